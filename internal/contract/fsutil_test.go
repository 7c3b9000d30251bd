package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	require.NoError(t, WriteFileAtomic(path, []byte("[]")))
	require.NoError(t, WriteFileAtomic(path, []byte(`[{"name":"a"}]`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a"}]`, string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("x"))
	assert.Error(t, err)
}
