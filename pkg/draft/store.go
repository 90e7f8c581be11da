// Package draft persists in-progress answer sets per form. Drafts are
// per-session: the portal clears every draft on startup so a previous
// session's answers never leak into a fresh load.
package draft

import "context"

// KeyPrefix namespaces draft entries inside a shared key-value store.
const KeyPrefix = "draft_"

// Key derives the storage key for a form's draft.
func Key(formID string) string {
	return KeyPrefix + formID
}

// Store saves and restores answer-set snapshots keyed by form id.
//
// Save runs after every answer mutation and must not block input handling;
// callers invoke it fire-and-forget. Load is read exactly once, when a form
// becomes active. ResetAll wipes every form's draft and runs once at the
// start of a session.
type Store interface {
	Save(ctx context.Context, formID string, answers map[string]any) error
	Load(ctx context.Context, formID string) (map[string]any, bool, error)
	ResetAll(ctx context.Context) error
}
