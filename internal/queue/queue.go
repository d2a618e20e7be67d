// Package queue implements the sequential download pipeline: an
// ordered set of queue items drained one at a time, with per-item
// failure isolation, cooperative cancellation, and chunk-granularity
// progress events for the UI.
package queue

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-jira-download/internal/helpers"
	"go-jira-download/internal/models"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// Item failure reasons owned by the queue itself; everything else is
// wrapped from the API client taxonomy.
var (
	ErrSizeMismatch = errors.New("downloaded size does not match attachment metadata")
	ErrCancelled    = errors.New("download cancelled")
)

// chunkSize is how many bytes are copied between progress updates and
// cancellation checks. Small enough that the UI stays responsive,
// large enough that syscall overhead is negligible.
const chunkSize = 64 * 1024

// Status is the lifecycle state of a queue item. Terminal states are
// final: a failed item is never silently retried.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusDone
	StatusFailed
)

// String returns the status name for logs and the history store.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "InProgress"
	case StatusDone:
		return "Done"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Item is one attachment admitted into the queue. Transitions are
// owned solely by the queue's drain loop; the UI only ever sees
// snapshots.
type Item struct {
	Descriptor      models.Attachment
	Status          Status
	BytesDownloaded uint64
	Path            string // Final destination once resolved.
	Err             error  // Failure reason for StatusFailed.
}

// Event is a progress or terminal notification emitted during a drain.
// Index refers to the item's position in submission order.
type Event struct {
	Index    int
	Status   Status
	Bytes    uint64
	Err      error
	Path     string
	Finished bool // True for terminal item transitions.
	Drained  bool // True exactly once, when the drain loop exits.
}

// Fetcher is the slice of the Jira client the queue depends on.
type Fetcher interface {
	GetAttachment(ctx context.Context, contentURL string) (io.ReadCloser, int64, error)
}

// Recorder receives a history entry for each completed download.
// A nil Recorder disables history.
type Recorder interface {
	Record(entry models.HistoryEntry) error
}

// Queue drains selected attachments strictly in submission order, one
// transfer at a time.
type Queue struct {
	mu        sync.Mutex
	items     []*Item
	fetcher   Fetcher
	recorder  Recorder
	issueKey  string
	outputDir string
}

// New builds a queue from the marked subset in catalog order. The
// descriptors' relative order is preserved as the drain order.
func New(fetcher Fetcher, recorder Recorder, issueKey, outputDir string, descriptors []models.Attachment) *Queue {
	items := make([]*Item, len(descriptors))
	for i, d := range descriptors {
		items[i] = &Item{Descriptor: d, Status: StatusPending}
	}
	return &Queue{
		items:     items,
		fetcher:   fetcher,
		recorder:  recorder,
		issueKey:  issueKey,
		outputDir: outputDir,
	}
}

// Len returns the number of queue items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a snapshot of the queue for rendering.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = *it
	}
	return out
}

// Drain processes all items sequentially, sending events as it goes,
// and closes the events channel when done. Cancelling ctx fails the
// in-flight item (partial file removed), leaves the remainder Pending,
// and stops the loop. Any other per-item failure is isolated: the item
// is marked Failed and the loop continues.
func (q *Queue) Drain(ctx context.Context, events chan<- Event) {
	defer close(events)
	for i := range q.items {
		if ctx.Err() != nil {
			break
		}
		q.drainOne(ctx, i, events)
		if ctx.Err() != nil {
			break
		}
	}
	events <- Event{Drained: true}
}

func (q *Queue) drainOne(ctx context.Context, i int, events chan<- Event) {
	item := q.items[i]
	d := item.Descriptor

	q.setStatus(i, StatusInProgress, nil)
	events <- Event{Index: i, Status: StatusInProgress}
	log.WithFields(log.Fields{"issue": q.issueKey, "attachment": d.Filename, "size": d.Size}).Info("Download started")

	path, err := q.transfer(ctx, i, events)
	if err != nil {
		q.setStatus(i, StatusFailed, err)
		if errors.Is(err, ErrCancelled) {
			log.WithField("attachment", d.Filename).Warn("Download cancelled")
		} else {
			log.WithError(err).WithField("attachment", d.Filename).Error("Download failed")
		}
		events <- Event{Index: i, Status: StatusFailed, Err: err, Finished: true}
		return
	}

	q.mu.Lock()
	item.Status = StatusDone
	item.Path = path
	q.mu.Unlock()
	log.WithFields(log.Fields{"attachment": d.Filename, "path": path}).Info("Download finished")
	events <- Event{Index: i, Status: StatusDone, Bytes: d.Size, Path: path, Finished: true}
}

// transfer streams one attachment to disk. The destination name is
// resolved against existing files first (numeric suffix before the
// extension, never overwrite), the stream goes to a .part file, and
// the rename happens only after the end-of-stream size check passes.
func (q *Queue) transfer(ctx context.Context, i int, events chan<- Event) (string, error) {
	item := q.items[i]
	d := item.Descriptor

	dest := helpers.UniquePath(filepath.Join(q.outputDir, helpers.SanitizeFilename(d.Filename)))
	part := dest + ".part"

	body, _, err := q.fetcher.GetAttachment(ctx, d.Content)
	if err != nil {
		return "", err
	}
	defer body.Close()

	// #nosec G304
	f, err := os.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", part, err)
	}

	hasher := blake3.New()
	w := io.MultiWriter(f, hasher)

	var total uint64
	buf := make([]byte, chunkSize)
	for {
		// Cancellation is cooperative: checked at every chunk boundary.
		if ctx.Err() != nil {
			q.discard(f, part)
			return "", ErrCancelled
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				q.discard(f, part)
				return "", fmt.Errorf("writing %s: %w", part, writeErr)
			}
			total += uint64(n)
			q.setProgress(i, total)
			events <- Event{Index: i, Status: StatusInProgress, Bytes: total}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			q.discard(f, part)
			if ctx.Err() != nil {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("reading attachment stream: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("closing %s: %w", part, err)
	}

	// Length disagreement is only detectable once the stream ends; a
	// short body is a truncated transfer, not a protocol error.
	if total != d.Size {
		_ = os.Remove(part)
		return "", fmt.Errorf("%w: got %d bytes, expected %d", ErrSizeMismatch, total, d.Size)
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("renaming %s: %w", part, err)
	}

	if q.recorder != nil {
		entry := models.HistoryEntry{
			IssueKey:     q.issueKey,
			AttachmentID: d.ID,
			Filename:     d.Filename,
			Path:         dest,
			Size:         total,
			Checksum:     hex.EncodeToString(hasher.Sum(nil)),
			DownloadedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := q.recorder.Record(entry); err != nil {
			log.WithError(err).Warnf("Failed to record history for %s", d.Filename)
		}
	}
	return dest, nil
}

func (q *Queue) discard(f *os.File, part string) {
	_ = f.Close()
	_ = os.Remove(part)
}

func (q *Queue) setStatus(i int, s Status, err error) {
	q.mu.Lock()
	q.items[i].Status = s
	q.items[i].Err = err
	q.mu.Unlock()
}

func (q *Queue) setProgress(i int, bytes uint64) {
	q.mu.Lock()
	q.items[i].BytesDownloaded = bytes
	q.mu.Unlock()
}
