package catalog

import "go-jira-download/internal/models"

// Selection tracks the cursor and the set of attachments marked for
// download. All operations are total: out-of-range movement clamps,
// toggling on an empty catalog is a no-op. The cursor is only
// meaningful while the catalog is non-empty.
type Selection struct {
	cursor int
	marked map[string]struct{}
}

// NewSelection returns an empty selection with the cursor at 0.
func NewSelection() *Selection {
	return &Selection{marked: make(map[string]struct{})}
}

// Cursor returns the current cursor index.
func (s *Selection) Cursor() int {
	return s.cursor
}

// MoveCursor moves the cursor by delta, clamped to [0, len-1].
func (s *Selection) MoveCursor(c *Catalog, delta int) {
	if c.Len() == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor > c.Len()-1 {
		s.cursor = c.Len() - 1
	}
}

// Toggle flips the marked state of the attachment under the cursor.
func (s *Selection) Toggle(c *Catalog) {
	if c.Len() == 0 {
		return
	}
	id := c.At(s.cursor).ID
	if _, ok := s.marked[id]; ok {
		delete(s.marked, id)
	} else {
		s.marked[id] = struct{}{}
	}
}

// MarkAll marks every attachment in the catalog.
func (s *Selection) MarkAll(c *Catalog) {
	for i := 0; i < c.Len(); i++ {
		s.marked[c.At(i).ID] = struct{}{}
	}
}

// ClearAll unmarks everything.
func (s *Selection) ClearAll() {
	s.marked = make(map[string]struct{})
}

// IsMarked reports whether the given attachment id is marked.
func (s *Selection) IsMarked(id string) bool {
	_, ok := s.marked[id]
	return ok
}

// Count returns the number of marked attachments.
func (s *Selection) Count() int {
	return len(s.marked)
}

// Marked returns the marked subset in catalog order, regardless of the
// order the user toggled them in. This ordering is what the download
// queue drains in.
func (s *Selection) Marked(c *Catalog) []models.Attachment {
	out := make([]models.Attachment, 0, len(s.marked))
	for i := 0; i < c.Len(); i++ {
		if _, ok := s.marked[c.At(i).ID]; ok {
			out = append(out, c.At(i))
		}
	}
	return out
}

// Prune removes marks for ids no longer present in the catalog and
// clamps the cursor. Called after a catalog reload.
func (s *Selection) Prune(c *Catalog) {
	ids := c.IDs()
	for id := range s.marked {
		if _, ok := ids[id]; !ok {
			delete(s.marked, id)
		}
	}
	if c.Len() == 0 {
		s.cursor = 0
		return
	}
	if s.cursor > c.Len()-1 {
		s.cursor = c.Len() - 1
	}
}
