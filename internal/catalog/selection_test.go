package catalog

import (
	"testing"

	"go-jira-download/internal/models"
)

func testCatalog(ids ...string) *Catalog {
	attachments := make([]models.Attachment, len(ids))
	for i, id := range ids {
		attachments[i] = models.Attachment{ID: id, Filename: id + ".txt"}
	}
	return Load(attachments)
}

// TestCatalogLoad tests that the catalog copies its input
func TestCatalogLoad(t *testing.T) {
	source := []models.Attachment{{ID: "1"}, {ID: "2"}}
	c := Load(source)
	source[0].ID = "mutated"
	if c.At(0).ID != "1" {
		t.Error("Expected catalog to be unaffected by mutation of the source slice")
	}
	if c.Len() != 2 {
		t.Errorf("Expected Len 2, got %d", c.Len())
	}
}

// TestMoveCursor tests cursor clamping at both ends
func TestMoveCursor(t *testing.T) {
	c := testCatalog("1", "2", "3")
	s := NewSelection()

	s.MoveCursor(c, -5)
	if s.Cursor() != 0 {
		t.Errorf("Expected cursor clamped to 0, got %d", s.Cursor())
	}
	s.MoveCursor(c, 10)
	if s.Cursor() != 2 {
		t.Errorf("Expected cursor clamped to 2, got %d", s.Cursor())
	}
	s.MoveCursor(c, -1)
	if s.Cursor() != 1 {
		t.Errorf("Expected cursor 1, got %d", s.Cursor())
	}
}

// TestMoveCursor_EmptyCatalog tests cursor behavior with no attachments
func TestMoveCursor_EmptyCatalog(t *testing.T) {
	c := testCatalog()
	s := NewSelection()
	s.MoveCursor(c, 1)
	if s.Cursor() != 0 {
		t.Errorf("Expected cursor to stay 0 on empty catalog, got %d", s.Cursor())
	}
	s.Toggle(c)
	if s.Count() != 0 {
		t.Error("Expected Toggle on empty catalog to be a no-op")
	}
}

// TestToggle tests mark/unmark of the attachment under the cursor
func TestToggle(t *testing.T) {
	c := testCatalog("1", "2")
	s := NewSelection()

	s.Toggle(c)
	if !s.IsMarked("1") {
		t.Error("Expected attachment 1 to be marked after toggle")
	}
	s.Toggle(c)
	if s.IsMarked("1") {
		t.Error("Expected attachment 1 to be unmarked after second toggle")
	}
}

// TestMarkAllClearAll tests bulk selection operations
func TestMarkAllClearAll(t *testing.T) {
	c := testCatalog("1", "2", "3")
	s := NewSelection()

	s.MarkAll(c)
	if s.Count() != 3 {
		t.Errorf("Expected 3 marked after MarkAll, got %d", s.Count())
	}
	s.ClearAll()
	if s.Count() != 0 {
		t.Errorf("Expected 0 marked after ClearAll, got %d", s.Count())
	}
}

// TestMarked_CatalogOrder tests that the marked subset comes back in
// catalog order regardless of toggle order
func TestMarked_CatalogOrder(t *testing.T) {
	c := testCatalog("a", "b", "c", "d")
	s := NewSelection()

	// Mark d, then b, then a.
	s.MoveCursor(c, 3)
	s.Toggle(c)
	s.MoveCursor(c, -2)
	s.Toggle(c)
	s.MoveCursor(c, -1)
	s.Toggle(c)

	marked := s.Marked(c)
	want := []string{"a", "b", "d"}
	if len(marked) != len(want) {
		t.Fatalf("Expected %d marked, got %d", len(want), len(marked))
	}
	for i, id := range want {
		if marked[i].ID != id {
			t.Errorf("Marked[%d].ID = %q, want %q", i, marked[i].ID, id)
		}
	}
}

// TestPrune tests that stale marks are dropped and surviving marks kept
// after a catalog reload
func TestPrune(t *testing.T) {
	old := testCatalog("1", "2", "3")
	s := NewSelection()
	s.MarkAll(old)
	s.MoveCursor(old, 2)

	// Attachment 2 was deleted server-side.
	reloaded := testCatalog("1", "3")
	s.Prune(reloaded)

	if s.IsMarked("2") {
		t.Error("Expected stale mark for attachment 2 to be pruned")
	}
	if !s.IsMarked("1") || !s.IsMarked("3") {
		t.Error("Expected surviving marks to be retained")
	}
	if s.Cursor() != 1 {
		t.Errorf("Expected cursor clamped to 1, got %d", s.Cursor())
	}

	// Every remaining mark must exist in the new catalog.
	ids := reloaded.IDs()
	for _, a := range s.Marked(reloaded) {
		if _, ok := ids[a.ID]; !ok {
			t.Errorf("Marked id %q not present in catalog after prune", a.ID)
		}
	}
}

// TestPrune_EmptyCatalog tests pruning against a catalog with no rows
func TestPrune_EmptyCatalog(t *testing.T) {
	old := testCatalog("1")
	s := NewSelection()
	s.MarkAll(old)

	s.Prune(testCatalog())
	if s.Count() != 0 {
		t.Errorf("Expected all marks pruned, got %d", s.Count())
	}
	if s.Cursor() != 0 {
		t.Errorf("Expected cursor reset to 0, got %d", s.Cursor())
	}
}
