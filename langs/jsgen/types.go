package jsgen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/teamquery/teamquery"
)

// ConvertToJSType converts a semantic parameter type tag to the JSDoc type
// name. Unknown tags degrade to * rather than failing generation.
func ConvertToJSType(tag string) string {
	switch strings.ToLower(tag) {
	case "int", "int32", "int64", "integer", "bigint", "float", "float32", "float64", "double", "real", "decimal", "numeric":
		return "number"
	case "string", "str", "text":
		return "string"
	case "bool", "boolean":
		return "boolean"
	case "timestamp", "date", "time", "datetime":
		return "Date"
	case "bytes", "bytea", "blob":
		return "Buffer"
	default:
		return "*"
	}
}

// SanitizeName makes a name a valid JavaScript identifier: a leading digit
// is prefixed with an underscore and invalid interior runes become
// underscores. Public function names keep the query's declared name
// otherwise verbatim.
func SanitizeName(name string) string {
	if name == "" {
		return "_"
	}

	var sb strings.Builder

	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_' || r == '$':
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

var titleCaser = cases.Title(language.Und, cases.NoLower)

// camelCase converts a declared parameter name to the conventional casing
// for JavaScript locals: "author_id" becomes "authorId". The digit-prefix
// rule matches SanitizeName so both passes agree on digit-leading names.
func camelCase(name string) string {
	parts := strings.Split(SanitizeName(name), "_")

	var sb strings.Builder

	for _, part := range parts {
		if part == "" {
			continue
		}

		if sb.Len() == 0 {
			sb.WriteString(part)
		} else {
			sb.WriteString(titleCaser.String(part))
		}
	}

	if sb.Len() == 0 {
		return "_"
	}

	out := sb.String()
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}

	return out
}

// placeholderStyle maps the configured dialect to the placeholder syntax
// of the matching Node driver: node-postgres takes $1, $2, ...; mysql2 and
// node-sqlite3 take ?.
func placeholderStyle(dialect teamquery.Dialect) teamquery.PlaceholderStyle {
	switch dialect {
	case teamquery.DialectPostgres:
		return teamquery.PlaceholderNumbered
	default:
		return teamquery.PlaceholderQuestion
	}
}

// escapeTemplateLiteral escapes SQL text for embedding in a JavaScript
// template literal.
func escapeTemplateLiteral(sql string) string {
	escaped := strings.ReplaceAll(sql, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "`", "\\`")

	return strings.ReplaceAll(escaped, "${", "\\${")
}
