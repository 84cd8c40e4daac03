package clause

import "strings"

// Writer writer interface
type Writer interface {
	WriteByte(byte) error
	WriteString(string) (int, error)
}

// Builder builder interface
type Builder interface {
	Writer
	WriteQuoted(field interface{})
	AddVar(Writer, ...interface{})
}

// Expression expression interface
type Expression interface {
	Build(builder Builder)
}

// Interface clause interface
type Interface interface {
	Name() string
	Build(Builder)
}

// Quote writes name as a double quoted identifier. Dots are kept inside the
// quotes, so relationship aliases like member.mygroup stay one identifier.
func Quote(writer Writer, name string) {
	writer.WriteByte('"')
	if strings.IndexByte(name, '"') >= 0 {
		name = strings.ReplaceAll(name, `"`, `""`)
	}
	writer.WriteString(name)
	writer.WriteByte('"')
}

// Quoted returns name as a double quoted identifier
func Quoted(name string) string {
	var b strings.Builder
	Quote(&b, name)
	return b.String()
}
