package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jira-download/internal/models"
)

func entry(issue, id, filename, at string) models.HistoryEntry {
	return models.HistoryEntry{
		IssueKey:     issue,
		AttachmentID: id,
		Filename:     filename,
		Path:         "/tmp/" + filename,
		Checksum:     "deadbeef",
		DownloadedAt: at,
		Size:         10,
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err, "Failed to open store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestRecordAndList tests a round trip through the store
func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(entry("AB-1", "10001", "a.txt", "2024-05-01T10:00:00Z")))
	require.NoError(t, store.Record(entry("AB-1", "10002", "b.txt", "2024-05-01T09:00:00Z")))
	require.NoError(t, store.Record(entry("CD-2", "20001", "c.txt", "2024-05-01T11:00:00Z")))

	all, err := store.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Sorted by download time.
	assert.Equal(t, "10002", all[0].AttachmentID)
	assert.Equal(t, "20001", all[2].AttachmentID)

	filtered, err := store.List("AB-1")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, e := range filtered {
		assert.Equal(t, "AB-1", e.IssueKey)
	}
}

// TestRecord_Overwrite tests that re-recording an attachment replaces
// the previous entry
func TestRecord_Overwrite(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(entry("AB-1", "10001", "a.txt", "2024-05-01T10:00:00Z")))
	require.NoError(t, store.Record(entry("AB-1", "10001", "a (1).txt", "2024-05-02T10:00:00Z")))

	entries, err := store.List("AB-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a (1).txt", entries[0].Filename)
	assert.Equal(t, "2024-05-02T10:00:00Z", entries[0].DownloadedAt)
}

// TestList_Empty tests listing a fresh store
func TestList_Empty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestList_PrefixIsolation tests that issue filtering does not match
// key prefixes of other issues
func TestList_PrefixIsolation(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(entry("AB-1", "1", "a.txt", "2024-05-01T10:00:00Z")))
	require.NoError(t, store.Record(entry("AB-11", "2", "b.txt", "2024-05-01T10:00:00Z")))

	entries, err := store.List("AB-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AB-1", entries[0].IssueKey)
}
