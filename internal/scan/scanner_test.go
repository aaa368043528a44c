package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRoot(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("{}\n"), 0o644))
	}
	write("b.jsonl")
	write("proj/a.jsonl")
	write("proj/notes.txt")
	write(".cache/c.jsonl")
	write(".hidden.jsonl")

	files, err := ScanRoot(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(root, "b.jsonl"), files[0].Path)
	assert.Equal(t, filepath.Join(root, "proj", "a.jsonl"), files[1].Path)
	assert.Equal(t, int64(3), files[0].Size)
}

func TestScanRootMissing(t *testing.T) {
	files, err := ScanRoot(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = ScanRoot("")
	require.NoError(t, err)
	assert.Empty(t, files)
}
