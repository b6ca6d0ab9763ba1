package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specgate/config"
)

func TestWatcherWatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "change-1"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))

	w, err := NewWatcher(config.DefaultConfig(), dir, nil)
	require.NoError(t, err)
	defer w.fsw.Close()

	require.NoError(t, w.addWatches(dir))

	list := w.fsw.WatchList()
	assert.Contains(t, list, dir)
	assert.Contains(t, list, filepath.Join(dir, "docs"))
	assert.Contains(t, list, filepath.Join(dir, "docs", "change-1"),
		"nested directories are watched so **/ patterns retrigger")
	assert.NotContains(t, list, filepath.Join(dir, ".git"))
}
