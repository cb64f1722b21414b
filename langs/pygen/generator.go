// Package pygen generates synchronous Python client modules from parsed
// query files: one module per file, a shared utils runtime module, and an
// __init__ manifest re-exporting every generated function.
package pygen

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

// Generator generates Python code from parsed query files
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
func (g *Generator) Name() string { return "python" }

type moduleData struct {
	SourcePath string
	Imports    []string
	Functions  []functionData
}

type functionData struct {
	Name        string
	Description string
	SQL         string
	Params      []paramData
	SingleRow   bool
	ReturnType  string
}

type paramData struct {
	Name        string
	SQLName     string
	TypeHint    string
	Description string
}

type moduleExportsData struct {
	Module    string
	Functions []string
}

var returningPattern = regexp.MustCompile(`(?i)\bRETURNING\b`)

// Generate writes one Python module per queries file plus the shared utils
// module and the __init__ manifest. Queries that fail validation are
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

	utilsPath := filepath.Join(outputDir, "utils.py")
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

		modulePath := filepath.Join(outputDir, file.ModuleName+".py")
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

	indexPath := filepath.Join(outputDir, "__init__.py")
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
			SQL:         escapeTripleQuoted(strings.TrimRight(query.SQL, "\n")),
			SingleRow:   query.Returns != "" || returningPattern.MatchString(query.SQL),
		}

		if fn.SingleRow {
			fn.ReturnType = "Optional[Dict]"
		} else {
			fn.ReturnType = "List[Dict]"
		}

		for _, p := range query.Params {
			fn.Params = append(fn.Params, paramData{
				Name:        SanitizeName(p.Name),
				SQLName:     p.Name,
				TypeHint:    ConvertToPythonType(p.Type),
				Description: p.Description,
			})
		}

		data.Functions = append(data.Functions, fn)
	}

	data.Imports = requiredImports(data.Functions)

	return data, skipped
}

func getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
	}
}

func renderModule(data *moduleData) (string, error) {
	return render("python_module", pythonModuleTemplate, data)
}

func renderUtilsModule(dialect teamquery.Dialect) (string, error) {
	return render("python_utils", pythonUtilsTemplate, struct {
		PlaceholderStyle teamquery.PlaceholderStyle
	}{PlaceholderStyle: placeholderStyle(dialect)})
}

func renderManifest(modules []moduleExportsData) (string, error) {
	return render("python_init", pythonInitTemplate, struct {
		Modules []moduleExportsData
	}{Modules: modules})
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(getTemplateFuncs()).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
