package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOwnSaveDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)

	// A save recorded at or after the file's mtime is ours.
	require.True(t, ownSave(path, info.ModTime()))
	require.True(t, ownSave(path, info.ModTime().Add(time.Second)))

	// A write after the last recorded save came from outside.
	require.False(t, ownSave(path, info.ModTime().Add(-time.Second)))

	// Never-saved registries treat any write as external.
	require.False(t, ownSave(path, time.Time{}))

	// Missing file cannot be our save.
	require.False(t, ownSave(filepath.Join(t.TempDir(), "missing.json"), time.Now()))
}
