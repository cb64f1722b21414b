package teamquery

import "errors"

// Common errors used throughout the teamquery package
var (
	// ErrConfigValidation is returned when configuration validation fails.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnsupportedDialect indicates a dialect outside postgres, mysql, sqlite.
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	// ErrUnknownGenerator indicates a generator name with no backend implementation.
	ErrUnknownGenerator = errors.New("unknown generator")
	// ErrDuplicateQueryName indicates two queries in one file share a name.
	ErrDuplicateQueryName = errors.New("duplicate query name in file")
	// ErrDuplicateParameter indicates a parameter declared twice in one query.
	ErrDuplicateParameter = errors.New("duplicate parameter declaration")
	// ErrEmptyQueryName indicates a query annotation without a name.
	ErrEmptyQueryName = errors.New("query name must not be empty")
)
