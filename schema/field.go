package schema

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/now"

	"github.com/macaronorm/macaron/clause"
)

// Kind field kind
type Kind int

const (
	Integer Kind = iota + 1
	Float
	Char
	Timestamp
	Date
	Time
)

// ValueType how a kind is written as a literal, quoted or bare
type ValueType string

const (
	CharValue ValueType = "CHAR"
	NumValue  ValueType = "NUM"
)

// Storage layouts of the time kinds
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
)

type kindInfo struct {
	name      string
	sqlType   string
	valueType ValueType
	layout    string
}

var kinds = map[Kind]kindInfo{
	Integer:   {name: "integer", sqlType: "INTEGER", valueType: NumValue},
	Float:     {name: "float", sqlType: "FLOAT", valueType: NumValue},
	Char:      {name: "char", sqlType: "TEXT", valueType: CharValue},
	Timestamp: {name: "timestamp", sqlType: "TIMESTAMP", valueType: CharValue, layout: TimestampLayout},
	Date:      {name: "date", sqlType: "DATE", valueType: CharValue, layout: DateLayout},
	Time:      {name: "time", sqlType: "TIME", valueType: CharValue, layout: TimeLayout},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// SQLType default storage type of the kind
func (k Kind) SQLType() string { return kinds[k].sqlType }

// ValueType literal tag of the kind
func (k Kind) ValueType() ValueType { return kinds[k].valueType }

// Layout storage layout of a time kind, empty otherwise
func (k Kind) Layout() string { return kinds[k].layout }

// ParseKind parses a kind name such as "char" or "timestamp"
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, info := range kinds {
		if info.name == name {
			return kind, nil
		}
	}
	switch name {
	case "int":
		return Integer, nil
	case "text", "string", "varchar":
		return Char, nil
	case "real", "double":
		return Float, nil
	case "datetime":
		return Timestamp, nil
	}
	return 0, fmt.Errorf("%w: unknown field kind %q", ErrUsage, name)
}

// Stage lifecycle step at which auto fields are refreshed
type Stage int

const (
	StageCreate Stage = iota + 1
	StageSave
)

// Field column declaration, finalized when the registry resolves
type Field struct {
	Name          string
	Kind          Kind
	DataType      string
	Null          bool
	Default       interface{}
	PrimaryKey    bool
	Unique        bool
	ExtraSQL      string
	Max           *float64
	Min           *float64
	MaxLength     int
	MinLength     int
	Length        int
	Pattern       string
	AutoCreate    bool
	AutoUpdate    bool
	AutoIncrement bool

	// set by the registry
	Schema   *Schema
	Relation *ManyToOne
	pattern  *regexp.Regexp
}

// Bound returns a pointer usable as Field.Max or Field.Min
func Bound(v float64) *float64 { return &v }

func (*Field) attribute() {}

// AttributeName column name
func (field *Field) AttributeName() string { return field.Name }

var sizedType = regexp.MustCompile(`(?i)CHAR\s*\(\s*(\d+)\s*\)`)

func (field *Field) finalize() error {
	if field.Name == "" {
		return fmt.Errorf("%w: field without a name", ErrUsage)
	}
	if _, ok := kinds[field.Kind]; !ok {
		return fmt.Errorf("%w: field %q has no kind", ErrUsage, field.Name)
	}

	if field.Kind == Char {
		if field.Length > 0 && field.MaxLength == 0 {
			field.MaxLength = field.Length
		}
		if m := sizedType.FindStringSubmatch(field.DataType); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && (field.MaxLength == 0 || n < field.MaxLength) {
				field.MaxLength = n
			}
		}
		if field.Pattern != "" {
			re, err := regexp.Compile("^(?:" + field.Pattern + ")")
			if err != nil {
				return fmt.Errorf("%w: field %q pattern: %v", ErrUsage, field.Name, err)
			}
			field.pattern = re
		}
	}
	if field.DataType == "" {
		field.DataType = field.dataType()
	}
	if field.AutoCreate || field.AutoUpdate || field.AutoIncrement {
		field.Null = true
	}
	return nil
}

func (field *Field) dataType() string {
	if field.DataType != "" {
		return field.DataType
	}
	if field.Kind == Char {
		switch {
		case field.Length > 0:
			return fmt.Sprintf("CHAR(%d)", field.Length)
		case field.MaxLength > 0:
			return fmt.Sprintf("VARCHAR(%d)", field.MaxLength)
		}
	}
	return field.Kind.SQLType()
}

func (field *Field) typeError(value interface{}) error {
	return fmt.Errorf("%w: field %q expects %s, got %T", ErrInvalidType, field.Name, field.Kind, value)
}

// Cast coerces value to the in-memory type of the field kind
func (field *Field) Cast(value interface{}) (interface{}, error) {
	if isNil(value) {
		return nil, nil
	}

	switch field.Kind {
	case Integer:
		if v, ok := toInt64(value); ok {
			return v, nil
		}
	case Float:
		if v, ok := toFloat64(value); ok {
			return v, nil
		}
	case Char:
		if v, ok := toText(value); ok {
			return v, nil
		}
	case Timestamp, Date, Time:
		if v, ok := field.toTime(value); ok {
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, field.typeError(value)
}

// Validate checks value against the field constraints
func (field *Field) Validate(value interface{}) error {
	if isNil(value) {
		if !field.Null {
			return fmt.Errorf("%w: field %q does not accept nil", ErrValidationFailed, field.Name)
		}
		return nil
	}

	v, err := field.Cast(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	switch field.Kind {
	case Integer, Float:
		n, _ := toFloat64(v)
		if field.Max != nil && n > *field.Max {
			return fmt.Errorf("%w: field %q: %v is greater than max=%v", ErrValidationFailed, field.Name, v, *field.Max)
		}
		if field.Min != nil && n < *field.Min {
			return fmt.Errorf("%w: field %q: %v is less than min=%v", ErrValidationFailed, field.Name, v, *field.Min)
		}
	case Char:
		s := v.(string)
		length := utf8.RuneCountInString(s)
		if field.MaxLength > 0 && length > field.MaxLength {
			return fmt.Errorf("%w: field %q: text is too long, max_length=%d", ErrValidationFailed, field.Name, field.MaxLength)
		}
		if field.MinLength > 0 && length < field.MinLength {
			return fmt.Errorf("%w: field %q: text is too short, min_length=%d", ErrValidationFailed, field.Name, field.MinLength)
		}
		if field.pattern != nil && !field.pattern.MatchString(s) {
			return fmt.Errorf("%w: field %q: %q does not match pattern %q", ErrValidationFailed, field.Name, s, field.Pattern)
		}
	}
	return nil
}

// ToStorage converts value to what is bound in SQL
func (field *Field) ToStorage(value interface{}) (interface{}, error) {
	v, err := field.Cast(value)
	if err != nil || v == nil {
		return nil, err
	}

	switch field.Kind {
	case Timestamp:
		return v.(time.Time).In(time.Local).Format(TimestampLayout), nil
	case Date, Time:
		return v.(time.Time).Format(field.Kind.Layout()), nil
	}
	return v, nil
}

// FromStorage converts a scanned column value to the in-memory type
func (field *Field) FromStorage(raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	if t, ok := raw.(time.Time); ok && field.Kind.Layout() != "" {
		// the driver parses DATE and TIMESTAMP text as UTC wall clock
		raw = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
	}
	return field.Cast(raw)
}

// AutoValue value an auto field takes at stage, ok is false for other fields
func (field *Field) AutoValue(stage Stage, at time.Time) (interface{}, bool) {
	switch {
	case stage == StageCreate && (field.AutoCreate || field.AutoUpdate):
	case stage == StageSave && field.AutoUpdate:
	default:
		return nil, false
	}

	at = at.Truncate(time.Second)
	switch field.Kind {
	case Integer:
		return at.Unix(), true
	case Float:
		return float64(at.Unix()), true
	case Char:
		return at.Format(TimestampLayout), true
	default:
		return field.normalize(at), true
	}
}

// Clause renders the column definition used by CREATE TABLE
func (field *Field) Clause() (string, error) {
	parts := []string{clause.Quoted(field.Name), field.dataType()}
	if field.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if !field.Null {
		parts = append(parts, "NOT NULL")
	}
	if field.Unique {
		parts = append(parts, "UNIQUE")
	}

	if field.Default != nil {
		if err := field.Validate(field.Default); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDefault, err)
		}
		v, err := field.ToStorage(field.Default)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidDefault, err)
		}
		if field.Kind.ValueType() == CharValue {
			parts = append(parts, "DEFAULT '"+strings.ReplaceAll(fmt.Sprint(v), "'", "''")+"'")
		} else {
			parts = append(parts, "DEFAULT "+fmt.Sprint(v))
		}
	}

	if field.ExtraSQL != "" {
		parts = append(parts, field.ExtraSQL)
	}
	return strings.Join(parts, " "), nil
}

// InitialValue default of the field cast to its in-memory type
func (field *Field) InitialValue() (interface{}, error) {
	return field.Cast(field.Default)
}

func (field *Field) toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return field.normalize(v), true
	case *time.Time:
		return field.normalize(*v), true
	case []byte:
		return field.parseTime(string(v))
	case string:
		return field.parseTime(v)
	}
	return time.Time{}, false
}

func (field *Field) parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(field.Kind.Layout(), s, time.Local); err == nil {
		return field.normalize(t), true
	}
	if field.Kind == Time {
		if t, err := time.ParseInLocation("15:04:05.999999999", s, time.Local); err == nil {
			return field.normalize(t), true
		}
		if t, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
			return field.normalize(t), true
		}
	}
	if t, err := now.ParseInLocation(time.Local, s); err == nil {
		return field.normalize(t), true
	}
	return time.Time{}, false
}

func (field *Field) normalize(t time.Time) time.Time {
	switch field.Kind {
	case Date:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case Time:
		return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	}
	return t
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case float32:
		return toInt64(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return toInt64(f)
		}
		return 0, false
	case []byte:
		return toInt64(string(v))
	}

	rv := reflect.Indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return toInt64(rv.Float())
	case reflect.String:
		return toInt64(rv.String())
	}
	return 0, false
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		return toFloat64(string(v))
	}

	rv := reflect.Indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return toFloat64(rv.String())
	}
	return 0, false
}

func toText(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	}
	if rv := reflect.Indirect(reflect.ValueOf(value)); rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
