// Package order maintains the display order of a form's top-level items.
// Only top-level fields and groups are reorderable; a group's internal field
// order is fixed at load time.
package order

import (
	"github.com/goliatone/go-formportal/pkg/schema"
)

// Controller owns an ordered sequence of top-level field items and mutates it
// in response to user reordering gestures.
type Controller struct {
	items []schema.Field
}

// NewController copies the given items so later permutations never mutate the
// caller's definition slice.
func NewController(items []schema.Field) *Controller {
	return &Controller{items: append([]schema.Field(nil), items...)}
}

// Items returns a snapshot of the current order.
func (c *Controller) Items() []schema.Field {
	return append([]schema.Field(nil), c.items...)
}

// IDs returns the ids of the current order, mostly useful in tests and logs.
func (c *Controller) IDs() []string {
	out := make([]string, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.ID)
	}
	return out
}

// MoveItem removes the item at fromID's position and reinserts it at toID's
// position, shifting the items in between by one. No-op when the ids are
// equal or either is absent.
func (c *Controller) MoveItem(fromID, toID string) bool {
	if fromID == toID {
		return false
	}
	from := c.indexOf(fromID)
	to := c.indexOf(toID)
	if from < 0 || to < 0 {
		return false
	}

	moved := c.items[from]
	rest := append(c.items[:from:from], c.items[from+1:]...)
	c.items = append(rest[:to:to], append([]schema.Field{moved}, rest[to:]...)...)
	return true
}

func (c *Controller) indexOf(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
