package teamquery

// Dialect represents supported database dialects
// This type is shared across all packages
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Valid reports whether the dialect is one of the supported values.
func (d Dialect) Valid() bool {
	switch d {
	case DialectPostgres, DialectMySQL, DialectSQLite:
		return true
	default:
		return false
	}
}

// PlaceholderStyle describes how generated runtime code marks positional
// parameters in SQL. Which style a dialect gets is a per-backend decision:
// the same postgres dialect means $1 for the node-postgres driver but %s
// for Python DB-API drivers.
type PlaceholderStyle string

const (
	// PlaceholderNumbered is $1, $2, $3, ... - repeated references to the
	// same named wildcard collapse into a single argument.
	PlaceholderNumbered PlaceholderStyle = "numbered"
	// PlaceholderFormat is %s for every parameter; each occurrence
	// consumes its own argument.
	PlaceholderFormat PlaceholderStyle = "format"
	// PlaceholderQuestion is ? for every parameter; each occurrence
	// consumes its own argument.
	PlaceholderQuestion PlaceholderStyle = "qmark"
)
