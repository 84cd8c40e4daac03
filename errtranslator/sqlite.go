package errtranslator

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

var sqliteConstraints = map[sqlite3.ErrNoExtended]ConstraintKind{
	sqlite3.ErrConstraintUnique:     Unique,
	sqlite3.ErrConstraintPrimaryKey: PrimaryKey,
	sqlite3.ErrConstraintForeignKey: ForeignKey,
	sqlite3.ErrConstraintNotNull:    NotNull,
	sqlite3.ErrConstraintCheck:      Check,
}

type SqliteErrTranslator struct{}

// Translate turns SQLITE_CONSTRAINT errors into a *ConstraintError, other
// errors are returned as is
func (s *SqliteErrTranslator) Translate(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	kind, ok := sqliteConstraints[sqliteErr.ExtendedCode]
	if !ok {
		kind = Other
	}
	return &ConstraintError{
		Kind:    kind,
		Code:    int(sqliteErr.ExtendedCode),
		Message: sqliteErr.Error(),
		Err:     err,
	}
}
