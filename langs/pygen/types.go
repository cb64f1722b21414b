package pygen

import (
	"strings"
	"unicode"

	"github.com/teamquery/teamquery"
)

// ConvertToPythonType converts a semantic parameter type tag to a Python
// type hint. Unknown tags degrade to Any rather than failing generation;
// the tags are documentation-grade hints, not a type system.
func ConvertToPythonType(tag string) string {
	switch strings.ToLower(tag) {
	case "int", "int32", "int64", "integer", "bigint":
		return "int"
	case "string", "str", "text":
		return "str"
	case "bool", "boolean":
		return "bool"
	case "float", "float32", "float64", "double", "real":
		return "float"
	case "decimal", "numeric":
		return "Decimal"
	case "timestamp", "date", "time", "datetime":
		return "datetime"
	case "bytes", "bytea", "blob":
		return "bytes"
	default:
		return "Any"
	}
}

// SanitizeName makes a name a valid Python identifier: a leading digit is
// prefixed with an underscore and invalid interior runes become
// underscores. Valid names pass through verbatim, so a query's declared
// name stays the public function identifier.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}

	var sb strings.Builder

	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteRune('_')
			}

			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	return sb.String()
}

// placeholderStyle maps the configured dialect to the placeholder syntax
// of the matching Python DB-API driver. psycopg and MySQLdb both take
// format-style %s; sqlite3 takes qmark.
func placeholderStyle(dialect teamquery.Dialect) teamquery.PlaceholderStyle {
	switch dialect {
	case teamquery.DialectSQLite:
		return teamquery.PlaceholderQuestion
	default:
		return teamquery.PlaceholderFormat
	}
}

// escapeTripleQuoted escapes SQL text for embedding in a Python
// triple-quoted string.
func escapeTripleQuoted(sql string) string {
	escaped := strings.ReplaceAll(sql, `\`, `\\`)

	return strings.ReplaceAll(escaped, `"""`, `\"\"\"`)
}

// requiredImports returns the import lines needed by the module's
// functions, in deterministic order.
func requiredImports(functions []functionData) []string {
	imports := []string{"from typing import Any, Dict, List, Optional"}

	needDecimal := false
	needDatetime := false

	for _, fn := range functions {
		for _, p := range fn.Params {
			switch p.TypeHint {
			case "Decimal":
				needDecimal = true
			case "datetime":
				needDatetime = true
			}
		}
	}

	if needDatetime {
		imports = append(imports, "from datetime import datetime")
	}

	if needDecimal {
		imports = append(imports, "from decimal import Decimal")
	}

	return imports
}
