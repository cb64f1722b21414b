package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/teamquery/teamquery"
)

const authorQueries = `-- name: GetAuthorById
-- description: Fetch one author by primary key
-- param: id int Author primary key
SELECT id, name, email FROM authors WHERE id = :id;

-- name: ListAuthors
SELECT id, name, email FROM authors ORDER BY name;
`

func setupProject(t *testing.T, configBody string) (configPath, queriesDir string) {
	t.Helper()

	root := t.TempDir()
	queriesDir = filepath.Join(root, "queries")
	assert.NoError(t, os.MkdirAll(queriesDir, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(queriesDir, "authors.sql"), []byte(authorQueries), 0o644))

	configPath = filepath.Join(root, "team-query.yaml")
	assert.NoError(t, os.WriteFile(configPath, []byte(configBody), 0o644))

	return configPath, queriesDir
}

func TestGenerateCmd(t *testing.T) {
	root := t.TempDir()
	configBody := `
dialect: postgres
generation:
  generators:
    python:
      output: ` + filepath.Join(root, "python") + `
    javascript:
      output: ` + filepath.Join(root, "javascript") + `
`
	configPath, queriesDir := setupProject(t, configBody)

	cmd := &GenerateCmd{Input: queriesDir}
	ctx := &Context{Config: configPath, Quiet: true}
	assert.NoError(t, cmd.Run(ctx))

	for _, path := range []string{
		filepath.Join(root, "python", "utils.py"),
		filepath.Join(root, "python", "authors.py"),
		filepath.Join(root, "python", "__init__.py"),
		filepath.Join(root, "javascript", "utils.js"),
		filepath.Join(root, "javascript", "authors.js"),
		filepath.Join(root, "javascript", "index.js"),
	} {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
}

func TestGenerateCmdStrictFailsOnInvalidQuery(t *testing.T) {
	root := t.TempDir()
	configBody := `
generation:
  generators:
    python:
      output: ` + filepath.Join(root, "python") + `
`
	configPath, queriesDir := setupProject(t, configBody)

	broken := "-- name: BrokenQuery\nSELECT * FROM authors WHERE id = :id;\n"
	assert.NoError(t, os.WriteFile(filepath.Join(queriesDir, "broken.sql"), []byte(broken), 0o644))

	cmd := &GenerateCmd{Input: queriesDir, Strict: true}
	ctx := &Context{Config: configPath, Quiet: true}
	assert.Error(t, cmd.Run(ctx))

	// Strict mode fails before any generator runs.
	_, err := os.Stat(filepath.Join(root, "python"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidateCmd(t *testing.T) {
	configPath, queriesDir := setupProject(t, "dialect: postgres\n")

	cmd := &ValidateCmd{Input: queriesDir}
	ctx := &Context{Config: configPath, Quiet: true}
	assert.NoError(t, cmd.Run(ctx))

	broken := "-- name: BrokenQuery\nSELECT * FROM authors WHERE id = :id;\n"
	assert.NoError(t, os.WriteFile(filepath.Join(queriesDir, "broken.sql"), []byte(broken), 0o644))

	assert.Error(t, cmd.Run(ctx))
}

func TestNewBackend(t *testing.T) {
	config := &teamquery.Config{Dialect: "postgres"}

	python, err := newBackend("python", config)
	assert.NoError(t, err)
	assert.Equal(t, "python", python.Name())

	javascript, err := newBackend("javascript", config)
	assert.NoError(t, err)
	assert.Equal(t, "javascript", javascript.Name())

	_, err = newBackend("rust", config)
	assert.IsError(t, err, teamquery.ErrUnknownGenerator)
}

func TestEnabledGenerators(t *testing.T) {
	disabled := true
	config := &teamquery.Config{
		Generation: teamquery.GenerationConfig{
			Generators: map[string]teamquery.GeneratorConfig{
				"javascript": {Output: "./js"},
				"python":     {Output: "./py", Disabled: &disabled},
			},
		},
	}

	assert.Equal(t, []string{"javascript"}, enabledGenerators(config))
}
