package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mcpreg/internal/domain"
)

func openTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id string, success bool) domain.ExecutionRecord {
	return domain.ExecutionRecord{
		ID:         id,
		Server:     "github-mcp",
		Tool:       "create_issue",
		CallerID:   "agent-1",
		Success:    success,
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		DurationMs: 42,
	}
}

func TestStoreAppendAndRecent(t *testing.T) {
	store := openTestStore(t, Options{})

	require.NoError(t, store.Append(sampleRecord("exec-1", true)))
	require.NoError(t, store.Append(sampleRecord("exec-2", false)))
	require.NoError(t, store.Append(sampleRecord("exec-3", true)))

	records, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "exec-3", records[0].ID)
	require.Equal(t, "exec-1", records[2].ID)
	require.False(t, records[1].Success)
}

func TestStoreRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t, Options{})

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(sampleRecord(fmt.Sprintf("exec-%d", i), true)))
	}

	records, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "exec-4", records[0].ID)
	require.Equal(t, "exec-3", records[1].ID)
}

func TestStorePrunesOldestBeyondRetention(t *testing.T) {
	store := openTestStore(t, Options{RetainedRecords: 3})

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(sampleRecord(fmt.Sprintf("exec-%d", i), true)))
	}

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)

	records, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "exec-5", records[0].ID)
	require.Equal(t, "exec-3", records[2].ID)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, store.Append(sampleRecord("exec-1", true)))
	require.NoError(t, store.Close())

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "exec-1", records[0].ID)
}

func TestStoreRejectsUseAfterClose(t *testing.T) {
	store := openTestStore(t, Options{})
	require.NoError(t, store.Close())

	require.Error(t, store.Append(sampleRecord("exec-1", true)))
	_, err := store.Recent(10)
	require.Error(t, err)
}

func TestStoreRequiresPath(t *testing.T) {
	_, err := Open("  ", Options{})
	require.Error(t, err)
}
