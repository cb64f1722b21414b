package sqlparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/teamquery/teamquery"
)

func TestExtractWildcards(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want map[string]bool
	}{
		{
			name: "named parameters",
			sql:  "SELECT * FROM users WHERE name = :name AND age = :age",
			want: map[string]bool{"name": true, "age": true},
		},
		{
			name: "positional parameters are ignored",
			sql:  "SELECT * FROM users WHERE name = $1 AND age = $2",
			want: map[string]bool{},
		},
		{
			name: "mixed named and positional",
			sql:  "SELECT * FROM users WHERE name = :name AND age = $1",
			want: map[string]bool{"name": true},
		},
		{
			name: "double colon cast is not a wildcard",
			sql:  "SELECT id::text FROM users WHERE created_at > :since::timestamp",
			want: map[string]bool{"since": true},
		},
		{
			name: "repeated wildcard counted once",
			sql:  "SELECT * FROM users WHERE first = :name OR last = :name",
			want: map[string]bool{"name": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := &teamquery.Query{Name: "GetUser", SQL: tt.sql}
			assert.Equal(t, tt.want, ExtractWildcards(query))
		})
	}
}

func TestValidateParams(t *testing.T) {
	t.Run("all parameters defined", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "GetUser",
			SQL:  "SELECT * FROM users WHERE name = :name AND age = :age",
			Params: []teamquery.Parameter{
				{Name: "name", Type: "string"},
				{Name: "age", Type: "int"},
			},
		}
		assert.Equal(t, 0, len(ValidateParams(query)))
	})

	t.Run("missing parameter", func(t *testing.T) {
		query := &teamquery.Query{
			Name:   "GetUser",
			SQL:    "SELECT * FROM users WHERE name = :name AND age = :age",
			Params: []teamquery.Parameter{{Name: "name", Type: "string"}},
		}

		errs := ValidateParams(query)
		assert.Equal(t, 1, len(errs))
		assert.True(t, errors.Is(errs[0], ErrMissingParameterDefinitions))
		assert.Contains(t, errs[0].Error(), "Missing parameter definitions: age")
	})

	t.Run("missing names aggregated into one error", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "ListPosts",
			SQL: `SELECT * FROM posts
			WHERE 1=1
			-- {author_id} AND author_id = :author_id -- }
			-- {published} AND published = TRUE -- }
			`,
		}

		errs := ValidateParams(query)
		assert.Equal(t, 1, len(errs))
		assert.Contains(t, errs[0].Error(), "Missing parameter definitions: author_id, published")
	})

	t.Run("unused declarations are allowed", func(t *testing.T) {
		query := &teamquery.Query{
			Name:   "ListUsers",
			SQL:    "SELECT * FROM users",
			Params: []teamquery.Parameter{{Name: "unused", Type: "int"}},
		}
		assert.Equal(t, 0, len(ValidateParams(query)))
	})
}

func TestReplaceWildcards(t *testing.T) {
	sql := "SELECT * FROM users WHERE name = :name AND age = :age"
	params := map[string]string{"name": "'John'", "age": "30"}

	result := ReplaceWildcards(sql, params)
	assert.Equal(t, "SELECT * FROM users WHERE name = 'John' AND age = 30", result)
}

func TestReplaceWildcardsPartial(t *testing.T) {
	sql := "SELECT * FROM users WHERE name = :name AND age = :age"

	result := ReplaceWildcards(sql, map[string]string{"age": "30"})
	assert.Equal(t, "SELECT * FROM users WHERE name = :name AND age = 30", result)
}

func TestExtractConditionalBlocks(t *testing.T) {
	sql := `
	SELECT * FROM users
	WHERE 1=1
	-- {name} AND name = 'John' -- }
	-- {age} AND age > 18 -- }
	`

	blocks := ExtractConditionalBlocks(sql)
	assert.Equal(t, 2, len(blocks))
	assert.Equal(t, 1, len(blocks["name"]))
	assert.Equal(t, 1, len(blocks["age"]))
	assert.Contains(t, blocks["name"][0].Fragment, "AND name = 'John'")
	assert.Contains(t, blocks["age"][0].Fragment, "AND age > 18")
}

func TestExtractConditionalBlocksRepeatedName(t *testing.T) {
	sql := `
	SELECT * FROM posts
	WHERE 1=1
	-- {tag} AND tags @> ARRAY[:tag] -- }
	ORDER BY created_at
	-- {tag} LIMIT 10 -- }
	`

	blocks := ExtractConditionalBlocks(sql)
	assert.Equal(t, 1, len(blocks))
	assert.Equal(t, 2, len(blocks["tag"]))
	assert.True(t, blocks["tag"][0].Start < blocks["tag"][1].Start)
}

func TestExtractConditionalBlocksMalformed(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{name: "unterminated block", sql: "SELECT * FROM users -- {name} AND name = 'John'"},
		{name: "missing closing brace", sql: "SELECT * FROM users -- {name AND name = 'John' -- }"},
		{name: "name is not an identifier", sql: "SELECT * FROM users -- {bad name} AND x = 1 -- }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := ExtractConditionalBlocks(tt.sql)
			assert.Equal(t, 0, len(blocks))

			// malformed markers degrade to literal text
			assert.Equal(t, tt.sql, BuildDynamicSQL(tt.sql, nil))
		})
	}
}

func TestBuildDynamicSQL(t *testing.T) {
	sql := `
	SELECT * FROM users
	WHERE 1=1
	-- {name} AND name = 'John' -- }
	-- {age} AND age > 18 -- }
	`

	t.Run("all blocks provided", func(t *testing.T) {
		result := BuildDynamicSQL(sql, map[string]bool{"name": true, "age": true})
		assert.Contains(t, result, "AND name = 'John'")
		assert.Contains(t, result, "AND age > 18")
		assert.NotContains(t, result, "-- {")
	})

	t.Run("one block provided", func(t *testing.T) {
		result := BuildDynamicSQL(sql, map[string]bool{"name": true})
		assert.Contains(t, result, "AND name = 'John'")
		assert.NotContains(t, result, "AND age > 18")
	})

	t.Run("no blocks provided rewrites sentinel", func(t *testing.T) {
		result := BuildDynamicSQL(`
		SELECT * FROM users
		WHERE 1=1
		-- {name} AND name = 'John' -- }
		`, map[string]bool{})
		assert.NotContains(t, result, "AND name = 'John'")
		assert.Contains(t, result, "WHERE TRUE")
		assert.NotContains(t, result, "WHERE 1=1")
	})
}

func TestCleanupSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "lone sentinel becomes true",
			sql:  "SELECT * FROM users WHERE 1=1",
			want: "SELECT * FROM users WHERE TRUE",
		},
		{
			name: "sentinel with surviving filter stays",
			sql:  "SELECT * FROM users WHERE 1=1\nAND age > 18",
			want: "SELECT * FROM users WHERE 1=1\nAND age > 18",
		},
		{
			name: "sentinel followed by order by",
			sql:  "SELECT * FROM users WHERE 1=1\nORDER BY name",
			want: "SELECT * FROM users WHERE TRUE\nORDER BY name",
		},
		{
			name: "case insensitive match",
			sql:  "SELECT * FROM users where 1 = 1",
			want: "SELECT * FROM users WHERE TRUE",
		},
		{
			name: "no sentinel untouched",
			sql:  "SELECT * FROM users WHERE id = :id",
			want: "SELECT * FROM users WHERE id = :id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanupSQL(tt.sql))
		})
	}
}

func TestPrepareQuery(t *testing.T) {
	t.Run("named parameters become positional", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "GetUser",
			SQL:  "SELECT * FROM users WHERE name = :name AND age = :age",
		}

		sql, paramNames := PrepareQuery(query, nil)
		assert.Equal(t, []string{"name", "age"}, paramNames)
		assert.Equal(t, "SELECT * FROM users WHERE name = $1 AND age = $2", sql)
	})

	t.Run("repeated wildcard reuses index", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "SearchUsers",
			SQL:  "SELECT * FROM users WHERE first = :name OR last = :name OR age = :age",
		}

		sql, paramNames := PrepareQuery(query, nil)
		assert.Equal(t, []string{"name", "age"}, paramNames)
		assert.Equal(t, "SELECT * FROM users WHERE first = $1 OR last = $1 OR age = $2", sql)
	})

	t.Run("provided parameters filter blocks", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "GetUser",
			SQL: `
			SELECT * FROM users
			WHERE 1=1
			-- {name} AND name = :name -- }
			-- {age} AND age = :age -- }
			`,
		}

		sql, paramNames := PrepareQuery(query, map[string]bool{"name": true})
		assert.Equal(t, []string{"name"}, paramNames)
		assert.Contains(t, sql, "name = $1")
		assert.NotContains(t, sql, "age = ")
	})

	t.Run("nil provided includes all blocks", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "GetUser",
			SQL: `
			SELECT * FROM users
			WHERE 1=1
			-- {name} AND name = :name -- }
			-- {age} AND age = :age -- }
			`,
		}

		sql, paramNames := PrepareQuery(query, nil)
		assert.Equal(t, []string{"name", "age"}, paramNames)
		assert.Contains(t, sql, "name = $1")
		assert.Contains(t, sql, "age = $2")
		assert.NotContains(t, sql, ":name")
		assert.NotContains(t, sql, ":age")
	})

	t.Run("cast survives preparation", func(t *testing.T) {
		query := &teamquery.Query{
			Name: "ListRecent",
			SQL:  "SELECT * FROM posts WHERE created_at > :since::timestamp",
		}

		sql, paramNames := PrepareQuery(query, nil)
		assert.Equal(t, []string{"since"}, paramNames)
		assert.Equal(t, "SELECT * FROM posts WHERE created_at > $1::timestamp", sql)
	})
}

func TestPrepareQueryDeterministic(t *testing.T) {
	query := &teamquery.Query{
		Name: "ListPosts",
		SQL: `
		SELECT * FROM posts
		WHERE 1=1
		-- {author_id} AND author_id = :author_id -- }
		-- {published} AND published = :published -- }
		ORDER BY created_at
		`,
	}

	first, firstNames := PrepareQuery(query, nil)

	for i := 0; i < 10; i++ {
		sql, names := PrepareQuery(query, nil)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstNames, names)
	}

	if !strings.Contains(first, "$1") || !strings.Contains(first, "$2") {
		t.Fatalf("expected positional placeholders in %q", first)
	}
}
