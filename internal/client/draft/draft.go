// Package draft persists in-progress post compositions locally so a user can
// leave the form and come back later. Drafts live under a single storage key
// as a JSON array, capped in count and pruned by age on every load and save.
package draft

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryNotice Category = "NOTICE"
	CategoryFree   Category = "FREE"
	CategoryQnA    Category = "QNA"
	CategoryEtc    Category = "ETC"
)

// Draft is a locally saved snapshot of a post being composed. Timestamp is
// the natural key: it is epoch milliseconds at save time, and Delete removes
// every entry that carries the given value.
type Draft struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  Category `json:"category"`
	Timestamp int64    `json:"timestamp"`
}

// Equivalent reports whether two drafts carry the same content: trimmed
// title, trimmed content, and category all equal. Timestamps are not part of
// draft identity for deduplication purposes.
func (d Draft) Equivalent(other Draft) bool {
	return strings.TrimSpace(d.Title) == strings.TrimSpace(other.Title) &&
		strings.TrimSpace(d.Content) == strings.TrimSpace(other.Content) &&
		d.Category == other.Category
}

// IsDuplicate reports whether candidate matches any existing entry on
// trimmed title, trimmed content, and category. Whitespace-only differences
// do not make drafts distinct.
func IsDuplicate(existing []Draft, candidate Draft) bool {
	for _, d := range existing {
		if d.Equivalent(candidate) {
			return true
		}
	}
	return false
}

// Age returns how old the draft is relative to now.
func (d Draft) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(d.Timestamp))
}
