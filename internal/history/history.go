// Package history persists a record of completed downloads in a
// bitcask key/value store under the output directory. The store is
// write-only during a session: it is never consulted to skip or
// resume a transfer.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-jira-download/internal/models"

	"git.mills.io/prologic/bitcask"
	log "github.com/sirupsen/logrus"
)

// Store wraps a bitcask database keyed by "<issueKey>/<attachmentID>".
type Store struct {
	db *bitcask.Bitcask
}

// Open opens (creating if needed) the history store at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}
	db, err := bitcask.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store at %s: %w", path, err)
	}
	log.Debugf("History store opened at %s", path)
	return &Store{db: db}, nil
}

// Record stores one completed download, overwriting any previous entry
// for the same issue/attachment pair.
func (s *Store) Record(entry models.HistoryEntry) error {
	key := entry.IssueKey + "/" + entry.AttachmentID
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry '%s': %w", key, err)
	}
	if err := s.db.Put([]byte(key), value); err != nil {
		return fmt.Errorf("failed to put history entry '%s': %w", key, err)
	}
	return nil
}

// List returns stored entries, optionally filtered by issue key,
// sorted by download time then key for stable output.
func (s *Store) List(issueKey string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	walk := func(key []byte) error {
		raw, err := s.db.Get(key)
		if err != nil {
			return fmt.Errorf("failed to get history entry '%s': %w", string(key), err)
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.WithError(err).Warnf("Skipping corrupt history entry '%s'", string(key))
			return nil
		}
		entries = append(entries, entry)
		return nil
	}

	var err error
	if issueKey != "" {
		err = s.db.Scan([]byte(issueKey+"/"), walk)
	} else {
		err = s.db.Fold(walk)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DownloadedAt != entries[j].DownloadedAt {
			return entries[i].DownloadedAt < entries[j].DownloadedAt
		}
		return strings.Compare(entries[i].AttachmentID, entries[j].AttachmentID) < 0
	})
	return entries, nil
}

// Close syncs and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
