package errtranslator

import "fmt"

type ErrTranslator interface {
	Translate(err error) error
}

// ConstraintKind the constraint a statement violated
type ConstraintKind string

const (
	Unique     ConstraintKind = "unique"
	PrimaryKey ConstraintKind = "primary key"
	ForeignKey ConstraintKind = "foreign key"
	NotNull    ConstraintKind = "not null"
	Check      ConstraintKind = "check"
	Other      ConstraintKind = "constraint"
)

// ConstraintError a driver error caused by a constraint violation
type ConstraintError struct {
	Kind    ConstraintKind
	Code    interface{}
	Message string
	Err     error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s constraint failed, code: %v, message: %s", e.Kind, e.Code, e.Message)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}
