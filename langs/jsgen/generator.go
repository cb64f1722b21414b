// Package jsgen generates asynchronous JavaScript client modules from
// parsed query files: one CommonJS module per file, a shared utils runtime
// module, and an index manifest re-exporting every generated function.
package jsgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/teamquery/teamquery"
	"github.com/teamquery/teamquery/sqlparser"
)

// Generator generates JavaScript code from parsed query files
type Generator struct {
	Dialect teamquery.Dialect
}

// Option is a function that configures Generator
type Option func(*Generator)

// WithDialect sets the target database dialect
func WithDialect(dialect teamquery.Dialect) Option {
	return func(g *Generator) {
		g.Dialect = dialect
	}
}

// New creates a new Generator
func New(opts ...Option) *Generator {
	g := &Generator{
		Dialect: teamquery.DialectPostgres,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Name returns the generator name used in configuration files.
func (g *Generator) Name() string { return "javascript" }

type moduleData struct {
	SourcePath string
	Functions  []functionData
}

type functionData struct {
	Name        string
	Description string
	SQL         string
	Params      []paramData
	SingleRow   bool
	ReturnType  string
	ReturnDoc   string
}

type paramData struct {
	LocalName   string
	SQLName     string
	JSType      string
	Description string
}

type moduleExportsData struct {
	Module    string
	Functions []string
}

var returningPattern = regexp.MustCompile(`(?i)\bRETURNING\b`)

// Generate writes one JavaScript module per queries file plus the shared
// utils module and the index manifest. Queries that fail validation are
// skipped and reported in the result; the rest of their file is still
// generated.
func (g *Generator) Generate(files []teamquery.QueriesFile, config *teamquery.Config, outputDir string) (*teamquery.GenerationResult, error) {
	dialect := g.Dialect
	if config != nil && config.Dialect != "" {
		dialect = teamquery.Dialect(config.Dialect)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &teamquery.GenerationResult{}

	utils, err := renderUtilsModule(dialect)
	if err != nil {
		return nil, err
	}

	utilsPath := filepath.Join(outputDir, "utils.js")
	if err := os.WriteFile(utilsPath, []byte(utils), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write utils module: %w", err)
	}

	result.Written = append(result.Written, utilsPath)

	var manifest []moduleExportsData

	for _, file := range files {
		if err := file.Validate(); err != nil {
			return nil, err
		}

		data, skipped := prepareModuleData(&file)
		result.Skipped = append(result.Skipped, skipped...)

		if len(data.Functions) == 0 {
			continue
		}

		content, err := renderModule(data)
		if err != nil {
			return nil, fmt.Errorf("failed to render module %s: %w", file.ModuleName, err)
		}

		modulePath := filepath.Join(outputDir, file.ModuleName+".js")
		if err := os.WriteFile(modulePath, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write module %s: %w", file.ModuleName, err)
		}

		result.Written = append(result.Written, modulePath)

		exports := moduleExportsData{Module: file.ModuleName}
		for _, fn := range data.Functions {
			exports.Functions = append(exports.Functions, fn.Name)
		}

		manifest = append(manifest, exports)
	}

	index, err := renderManifest(manifest)
	if err != nil {
		return nil, err
	}

	indexPath := filepath.Join(outputDir, "index.js")
	if err := os.WriteFile(indexPath, []byte(index), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest module: %w", err)
	}

	result.Written = append(result.Written, indexPath)

	return result, nil
}

// prepareModuleData validates every query in the file and converts the
// valid ones into template data.
func prepareModuleData(file *teamquery.QueriesFile) (*moduleData, []teamquery.SkippedQuery) {
	data := &moduleData{SourcePath: file.Path}

	var skipped []teamquery.SkippedQuery

	for _, query := range file.Queries {
		if errs := sqlparser.ValidateParams(&query); len(errs) > 0 {
			skipped = append(skipped, teamquery.SkippedQuery{
				File:   file.Path,
				Query:  query.Name,
				Errors: errs,
			})

			continue
		}

		fn := functionData{
			Name:        SanitizeName(query.Name),
			Description: query.Description,
			SQL:         escapeTemplateLiteral(strings.TrimRight(query.SQL, "\n")),
			SingleRow:   query.Returns != "" || returningPattern.MatchString(query.SQL),
		}

		if fn.SingleRow {
			fn.ReturnType = "Promise<Object|null>"
			fn.ReturnDoc = "single row as a column/value object, or null when no row matched"
		} else {
			fn.ReturnType = "Promise<Array<Object>>"
			fn.ReturnDoc = "rows as column/value objects"
		}

		for _, p := range query.Params {
			fn.Params = append(fn.Params, paramData{
				LocalName:   camelCase(p.Name),
				SQLName:     p.Name,
				JSType:      ConvertToJSType(p.Type),
				Description: p.Description,
			})
		}

		data.Functions = append(data.Functions, fn)
	}

	return data, skipped
}

func renderModule(data *moduleData) (string, error) {
	return render("js_module", jsModuleTemplate, data)
}

func renderUtilsModule(dialect teamquery.Dialect) (string, error) {
	return render("js_utils", jsUtilsTemplate, struct {
		PlaceholderStyle teamquery.PlaceholderStyle
	}{PlaceholderStyle: placeholderStyle(dialect)})
}

func renderManifest(modules []moduleExportsData) (string, error) {
	return render("js_index", jsIndexTemplate, struct {
		Modules []moduleExportsData
	}{Modules: modules})
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
