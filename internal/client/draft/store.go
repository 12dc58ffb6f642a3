package draft

import (
	"encoding/json"
	"sort"
	"time"

	"bulletin/internal/client/storage"
)

const (
	// StorageKey is the single key the draft collection lives under. It is
	// shared by every form instance (and every concurrent client on the same
	// data directory).
	StorageKey = "bulletin_post_drafts"

	// MaxDrafts caps the stored collection; the oldest entries by timestamp
	// are evicted first.
	MaxDrafts = 10

	// MaxAge is the expiry horizon. An entry survives iff its age is
	// strictly less than this: a draft exactly MaxAge old is expired.
	MaxAge = 7 * 24 * time.Hour
)

// Store reads and writes the draft collection. Every operation reads fresh
// from storage rather than trusting an in-memory copy, so concurrent clients
// on the same directory see each other's saves (weakly: the
// read-check-write sequence is not atomic, which is accepted for a
// single-user local store).
type Store struct {
	storage storage.Storage
	now     func() time.Time
}

func NewStore(s storage.Storage) *Store {
	return &Store{storage: s, now: time.Now}
}

// Load returns the active draft collection: expired entries dropped, the
// count cap applied (newest first), and the cleaned result re-persisted so
// stale or hand-edited storage self-heals.
func (s *Store) Load() ([]Draft, error) {
	drafts := s.read()
	drafts = cleanExpired(drafts, s.now())
	drafts = limitCount(drafts)
	if err := s.persist(drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// Save appends candidate unless an equivalent draft already exists.
// On ErrDuplicate nothing is written.
func (s *Store) Save(candidate Draft) error {
	drafts := s.read()

	if IsDuplicate(drafts, candidate) {
		return ErrDuplicate
	}

	drafts = append(drafts, candidate)
	drafts = cleanExpired(drafts, s.now())
	drafts = limitCount(drafts)
	return s.persist(drafts)
}

// Delete removes every entry whose timestamp equals ts. Timestamp is a
// natural key: distinct saves get distinct millisecond stamps in practice,
// and any collision is deleted together.
func (s *Store) Delete(ts int64) error {
	drafts := s.read()

	kept := drafts[:0]
	for _, d := range drafts {
		if d.Timestamp != ts {
			kept = append(kept, d)
		}
	}
	return s.persist(kept)
}

func (s *Store) read() []Draft {
	raw, ok := s.storage.Get(StorageKey)
	if !ok || raw == "" {
		return nil
	}
	var drafts []Draft
	if err := json.Unmarshal([]byte(raw), &drafts); err != nil {
		// Corrupt collection: start over rather than fail the form.
		return nil
	}
	return drafts
}

func (s *Store) persist(drafts []Draft) error {
	if drafts == nil {
		drafts = []Draft{}
	}
	data, err := json.Marshal(drafts)
	if err != nil {
		return err
	}
	return s.storage.Set(StorageKey, string(data))
}

func cleanExpired(drafts []Draft, now time.Time) []Draft {
	kept := make([]Draft, 0, len(drafts))
	for _, d := range drafts {
		if d.Age(now) < MaxAge {
			kept = append(kept, d)
		}
	}
	return kept
}

// limitCount keeps the MaxDrafts entries with the largest timestamps,
// ordered newest first.
func limitCount(drafts []Draft) []Draft {
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].Timestamp > drafts[j].Timestamp
	})
	if len(drafts) > MaxDrafts {
		return drafts[:MaxDrafts]
	}
	return drafts
}
