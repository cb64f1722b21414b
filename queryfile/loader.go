// Package queryfile loads annotated .sql files into the query model.
// Annotations are header comments ahead of each statement:
//
//	-- name: GetAuthorById
//	-- description: Get author by ID
//	-- param: id int Author ID
//	-- returns: Author
//	SELECT * FROM authors WHERE id = :id;
//
// Everything that is not an annotation line, conditional block markers
// included, belongs to the statement body verbatim.
package queryfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teamquery/teamquery"
)

const (
	namePrefix        = "-- name:"
	descriptionPrefix = "-- description:"
	paramPrefix       = "-- param:"
	returnsPrefix     = "-- returns:"
)

// ErrParamAnnotation indicates a malformed -- param: line.
var ErrParamAnnotation = errors.New("invalid param annotation, expected '-- param: name type [description]'")

// ErrAnnotationOutsideQuery indicates an annotation line before any -- name: header.
var ErrAnnotationOutsideQuery = errors.New("annotation outside a query, expected '-- name:' first")

// LoadDir loads every .sql file under dir, sorted by path so repeated runs
// see the files in the same order.
func LoadDir(dir string) ([]teamquery.QueriesFile, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.HasSuffix(path, ".sql") {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk queries directory: %w", err)
	}

	sort.Strings(paths)

	files := make([]teamquery.QueriesFile, 0, len(paths))

	for _, path := range paths {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}

		files = append(files, *file)
	}

	return files, nil
}

// LoadFile loads a single annotated .sql file.
func LoadFile(path string) (*teamquery.QueriesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries file: %w", err)
	}

	queries, err := ParseQueries(path, string(data))
	if err != nil {
		return nil, err
	}

	file := &teamquery.QueriesFile{
		Path:       path,
		ModuleName: teamquery.ModuleNameFromPath(path),
		Queries:    queries,
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return file, nil
}

// ParseQueries parses the annotated content of one queries file.
func ParseQueries(path, content string) ([]teamquery.Query, error) {
	var (
		queries []teamquery.Query
		current *teamquery.Query
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}

		current.SQL = trimStatement(strings.Join(body, "\n"))
		queries = append(queries, *current)
		current = nil
		body = nil
	}

	for lineNo, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, namePrefix):
			flush()

			name := strings.TrimSpace(strings.TrimPrefix(trimmed, namePrefix))
			if name == "" {
				return nil, fmt.Errorf("%w: %s:%d", teamquery.ErrEmptyQueryName, path, lineNo+1)
			}

			current = &teamquery.Query{Name: name, FilePath: path}

		case strings.HasPrefix(trimmed, descriptionPrefix):
			if current == nil {
				return nil, fmt.Errorf("%w: %s:%d", ErrAnnotationOutsideQuery, path, lineNo+1)
			}

			current.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, descriptionPrefix))

		case strings.HasPrefix(trimmed, paramPrefix):
			if current == nil {
				return nil, fmt.Errorf("%w: %s:%d", ErrAnnotationOutsideQuery, path, lineNo+1)
			}

			param, err := parseParam(strings.TrimPrefix(trimmed, paramPrefix))
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d", err, path, lineNo+1)
			}

			current.Params = append(current.Params, param)

		case strings.HasPrefix(trimmed, returnsPrefix):
			if current == nil {
				return nil, fmt.Errorf("%w: %s:%d", ErrAnnotationOutsideQuery, path, lineNo+1)
			}

			current.Returns = strings.TrimSpace(strings.TrimPrefix(trimmed, returnsPrefix))

		default:
			if current != nil {
				body = append(body, line)
			}
		}
	}

	flush()

	return queries, nil
}

func parseParam(s string) (teamquery.Parameter, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return teamquery.Parameter{}, ErrParamAnnotation
	}

	return teamquery.Parameter{
		Name:        fields[0],
		Type:        fields[1],
		Description: strings.Join(fields[2:], " "),
	}, nil
}

// trimStatement drops surrounding blank lines and one trailing semicolon.
func trimStatement(sql string) string {
	sql = strings.Trim(sql, "\n")
	sql = strings.TrimRight(sql, " \t\r\n")
	sql = strings.TrimSuffix(sql, ";")

	return strings.TrimRight(sql, " \t\r\n")
}
