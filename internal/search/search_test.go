package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickshoe/Replit-Export-sub000/internal/index"
	"github.com/quickshoe/Replit-Export-sub000/internal/pipeline"
)

func seed(t *testing.T, files map[string]string) *index.DB {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "snapshots")
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	db, err := index.OpenDB(filepath.Join(dir, "rpx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ix := &index.Indexer{DB: db, Root: root, Runner: pipeline.New(pipeline.DefaultOptions(), nil, nil)}
	_, err = ix.IndexAll(context.Background())
	require.NoError(t, err)
	return db
}

var corpus = map[string]string{
	"older.jsonl": `{"text":"please add a login page","hints":["user"],"time_elements":[{"datetime":"2025-03-14T10:00:00Z"}]}
{"text":"The login page now validates passwords.","time_elements":[{"datetime":"2025-03-14T10:01:00Z"}]}
{"text":"Saved progress after login work","hints":["checkpoint"],"time_elements":[{"datetime":"2025-03-14T10:02:00Z"}]}
`,
	"newer.jsonl": `{"text":"请添加登录页面","hints":["user"],"time_elements":[{"datetime":"2025-03-20T08:00:00Z"}]}
{"text":"Fixed the login redirect loop.","time_elements":[{"datetime":"2025-03-20T08:05:00Z"}]}
`,
}

func TestSearchFTS(t *testing.T) {
	db := seed(t, corpus)

	results, err := Search(db, Options{Query: "login"})
	require.NoError(t, err)
	assert.Len(t, results, 4)
	for _, r := range results {
		assert.Contains(t, r.Snippet, ">>>")
	}

	results, err = Search(db, Options{Query: "login", PerExport: true})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchFilters(t *testing.T) {
	db := seed(t, corpus)

	results, err := Search(db, Options{Query: "login", Kind: "checkpoint"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "older", results[0].ExportKey)
	assert.Equal(t, 2, results[0].EventID)

	results, err = Search(db, Options{Query: "login", Role: "user"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "please add a >>>login<<< page", results[0].Snippet)

	results, err = Search(db, Options{Query: "login", Since: "2025-03-15"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "newer", results[0].ExportKey)
}

func TestSearchPunctuationIsLiteral(t *testing.T) {
	db := seed(t, corpus)
	results, err := Search(db, Options{Query: `redirect-loop "fixed`})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "newer", results[0].ExportKey)
}

func TestSearchCJK(t *testing.T) {
	db := seed(t, corpus)
	results, err := Search(db, Options{Query: "登录"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "newer", results[0].ExportKey)
	assert.Equal(t, "请添加>>>登录<<<页面", results[0].Snippet)
}

func TestListAll(t *testing.T) {
	db := seed(t, corpus)
	results, err := ListAll(db, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "newer", results[0].ExportKey)
	assert.Equal(t, -1, results[0].EventID)
	assert.Equal(t, "请添加登录页面", results[0].Summary)
	assert.Equal(t, "older", results[1].ExportKey)
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...lo >>>wor<<<ld!...", makeSnippet("hello world!!", "wor", 3))
	assert.Equal(t, "abcdef", makeSnippet("abcdef", "zzz", 5))
	assert.Equal(t, "ab...", makeSnippet("abcdef", "zzz", 1))
}
