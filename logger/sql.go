package logger

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const tmFmtWithMS = "2006-01-02 15:04:05.999"

func isPrintable(s []byte) bool {
	for _, r := range s {
		if !unicode.IsPrint(rune(r)) {
			return false
		}
	}
	return true
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ExplainSQL inlines vars into the ? placeholders of sql for display.
// Text is rendered as a SQLite string literal; the result is not meant to be executed.
func ExplainSQL(sql string, vars ...interface{}) string {
	rendered := make([]string, len(vars))
	for idx, v := range vars {
		if valuer, ok := v.(driver.Valuer); ok {
			v, _ = valuer.Value()
		}

		switch v := v.(type) {
		case nil:
			rendered[idx] = "NULL"
		case bool:
			if v {
				rendered[idx] = "1"
			} else {
				rendered[idx] = "0"
			}
		case time.Time:
			rendered[idx] = quote(v.Format(tmFmtWithMS))
		case *time.Time:
			if v == nil {
				rendered[idx] = "NULL"
			} else {
				rendered[idx] = quote(v.Format(tmFmtWithMS))
			}
		case []byte:
			if isPrintable(v) {
				rendered[idx] = quote(string(v))
			} else {
				rendered[idx] = "'<binary>'"
			}
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			rendered[idx] = fmt.Sprintf("%d", v)
		case float32, float64:
			rendered[idx] = fmt.Sprintf("%g", v)
		case string:
			rendered[idx] = quote(v)
		default:
			rendered[idx] = quote(fmt.Sprint(v))
		}
	}

	var (
		b   strings.Builder
		pos int
	)
	b.Grow(len(sql))
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' && pos < len(rendered) {
			b.WriteString(rendered[pos])
			pos++
			continue
		}
		b.WriteByte(sql[i])
	}
	return b.String()
}
