// Package navguard decides whether leaving the post form would lose work,
// and funnels every exit vector through that single decision.
package navguard

import (
	"strings"

	"bulletin/internal/client/draft"
)

// FormState is the live form snapshot a policy evaluates.
type FormState struct {
	Title        string
	Content      string
	Category     draft.Category
	FileSelected bool
	Preview      string
}

// DirtinessPolicy reports whether the form differs meaningfully from its
// starting point. Create and edit mode apply different rules, so the policy
// is an explicit variant rather than a mode flag inside one function.
type DirtinessPolicy interface {
	Dirty(f FormState) bool
}

// CreatePolicy treats any non-blank title or content, or a selected file, as
// unsaved work. Category alone never counts: it starts pre-filled with a
// default, so touching it is not a user-initiated change worth warning
// about. That asymmetry with edit mode is deliberate.
type CreatePolicy struct{}

func (CreatePolicy) Dirty(f FormState) bool {
	return strings.TrimSpace(f.Title) != "" ||
		strings.TrimSpace(f.Content) != "" ||
		f.FileSelected
}

// Snapshot is the server record captured once at edit-form load.
type Snapshot struct {
	Title    string
	Content  string
	Category draft.Category
	HadImage bool
}

// EditPolicy compares the live form against the load-time snapshot. An image
// change is either a newly selected file or a deleted original (the record
// had an image and the preview is now empty). Deleting and re-adding the
// same image stays dirty: the comparison is presence-based, not
// content-based.
type EditPolicy struct {
	Snapshot Snapshot
}

func (p EditPolicy) Dirty(f FormState) bool {
	if f.Title != p.Snapshot.Title ||
		f.Content != p.Snapshot.Content ||
		f.Category != p.Snapshot.Category {
		return true
	}
	if f.FileSelected {
		return true
	}
	return p.Snapshot.HadImage && f.Preview == ""
}
