package teamquery

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Parameter is a single declared query parameter. Declarations are
// independent of whether the SQL text actually references them; unused
// declarations are allowed and serve as documentation.
type Parameter struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

// Query is one annotated SQL statement parsed from a queries file.
// Instances are constructed once during loading and treated as immutable:
// the template parser only derives new SQL strings from them.
type Query struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	SQL         string      `yaml:"sql"`
	Params      []Parameter `yaml:"params,omitempty"`
	Returns     string      `yaml:"returns,omitempty"`
	FilePath    string      `yaml:"-"`
}

// ParamNames returns the declared parameter names in declaration order.
func (q *Query) ParamNames() []string {
	names := make([]string, 0, len(q.Params))
	for _, p := range q.Params {
		names = append(names, p.Name)
	}

	return names
}

// HasParam reports whether a parameter with the given name is declared.
func (q *Query) HasParam(name string) bool {
	for _, p := range q.Params {
		if p.Name == name {
			return true
		}
	}

	return false
}

// QueriesFile is an ordered collection of queries from one source file.
type QueriesFile struct {
	Path       string
	ModuleName string
	Queries    []Query
}

// Validate checks the structural invariants of the file: query names are
// unique within the file and parameter names are unique within each query.
func (f *QueriesFile) Validate() error {
	seen := make(map[string]bool, len(f.Queries))

	for _, q := range f.Queries {
		if q.Name == "" {
			return fmt.Errorf("%w: %s", ErrEmptyQueryName, f.Path)
		}

		if seen[q.Name] {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateQueryName, q.Name, f.Path)
		}

		seen[q.Name] = true

		params := make(map[string]bool, len(q.Params))
		for _, p := range q.Params {
			if params[p.Name] {
				return fmt.Errorf("%w: %s in query %s", ErrDuplicateParameter, p.Name, q.Name)
			}

			params[p.Name] = true
		}
	}

	return nil
}

// ModuleNameFromPath derives a module name from a queries file path.
// "queries/user-stats.sql" becomes "user_stats". A leading digit is
// prefixed with an underscore so the result is a valid identifier in
// every target language.
func ModuleNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var sb strings.Builder

	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}

	name := sb.String()
	if name == "" {
		return "queries"
	}

	if unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}

	return name
}

// GenerationResult reports what a backend wrote and which queries it
// skipped because they failed validation. A skipped query is never silent:
// the driver prints every entry before deciding whether to proceed.
type GenerationResult struct {
	Written []string
	Skipped []SkippedQuery
}

// SkippedQuery identifies a query that failed validation and was left out
// of the generated output.
type SkippedQuery struct {
	File   string
	Query  string
	Errors []error
}

// Backend is a per-target-language code generator. Implementations are
// pure transforms: identical inputs written into a clean directory must
// reproduce the same files byte for byte.
type Backend interface {
	Name() string
	Generate(files []QueriesFile, config *Config, outputDir string) (*GenerationResult, error)
}
