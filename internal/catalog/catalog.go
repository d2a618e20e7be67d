// Package catalog holds the in-memory attachment catalog of one issue
// load and the pure selection state the TUI mutates. Neither type does
// any I/O; a reload replaces the catalog wholesale and prunes the
// selection.
package catalog

import "go-jira-download/internal/models"

// Catalog is an immutable ordered list of attachment descriptors.
// Insertion order is the server response order.
type Catalog struct {
	attachments []models.Attachment
}

// Load builds a catalog from one issue response. It is a constructor,
// not a mutator: the caller replaces its catalog on reload.
func Load(attachments []models.Attachment) *Catalog {
	copied := make([]models.Attachment, len(attachments))
	copy(copied, attachments)
	return &Catalog{attachments: copied}
}

// Len returns the number of attachments.
func (c *Catalog) Len() int {
	return len(c.attachments)
}

// At returns the descriptor at index i. The index must be in range.
func (c *Catalog) At(i int) models.Attachment {
	return c.attachments[i]
}

// All returns a copy of the descriptors in catalog order.
func (c *Catalog) All() []models.Attachment {
	out := make([]models.Attachment, len(c.attachments))
	copy(out, c.attachments)
	return out
}

// IDs returns the set of ids present in the catalog.
func (c *Catalog) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.attachments))
	for _, a := range c.attachments {
		ids[a.ID] = struct{}{}
	}
	return ids
}
