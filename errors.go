package macaron

import (
	"errors"
	"fmt"

	"github.com/macaronorm/macaron/logger"
	"github.com/macaronorm/macaron/schema"
)

var (
	// ErrObjectNotFound object not found error
	ErrObjectNotFound = logger.ErrObjectNotFound
	// ErrMultipleResults a single object was requested but several matched
	ErrMultipleResults = errors.New("multiple objects returned")
	// ErrValidationFailed a value violates a field constraint, nothing was written
	ErrValidationFailed = schema.ErrValidationFailed
	// ErrInvalidDefault a field default fails its own validation
	ErrInvalidDefault = schema.ErrInvalidDefault
	// ErrSchemaConflict the database schema does not match the request
	ErrSchemaConflict = errors.New("schema conflict")
	// ErrTableExists create table on an existing table
	ErrTableExists = fmt.Errorf("%w: table already exists", ErrSchemaConflict)
	// ErrTableNotExist drop or introspect a missing table
	ErrTableNotExist = fmt.Errorf("%w: table does not exist", ErrSchemaConflict)
	// ErrIntegrityViolation a constraint of the database rejected the statement
	ErrIntegrityViolation = errors.New("integrity violation")
	// ErrUsage the API was called in a way that can never succeed
	ErrUsage = schema.ErrUsage
	// ErrInvalidType a value cannot be coerced to what the operation needs
	ErrInvalidType = schema.ErrInvalidType
	// ErrInvalidValue a value has an unacceptable shape
	ErrInvalidValue = schema.ErrInvalidValue
	// ErrUnknownAttribute a path segment names no field or relationship
	ErrUnknownAttribute = schema.ErrUnknownAttribute
	// ErrUnknownModel no model registered under that name
	ErrUnknownModel = schema.ErrUnknownModel
	// ErrNotUniqueForeignKey a many-to-one reference matched more than one row
	ErrNotUniqueForeignKey = errors.New("foreign key is not unique")
	// ErrObjectDeleted save or delete on an object that was deleted
	ErrObjectDeleted = errors.New("object has been deleted")
	// ErrInvalidDB the connection pool is not a *sql.DB
	ErrInvalidDB = errors.New("invalid db")
	// ErrDryRun a query was issued while the DB is in dry run mode
	ErrDryRun = errors.New("dry run mode, no rows")
)
