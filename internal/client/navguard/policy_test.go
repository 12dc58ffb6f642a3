package navguard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bulletin/internal/client/draft"
)

func TestCreatePolicy(t *testing.T) {
	p := CreatePolicy{}

	tests := []struct {
		name  string
		state FormState
		dirty bool
	}{
		{"pristine", FormState{Category: draft.CategoryFree}, false},
		{"whitespace only title", FormState{Title: "   "}, false},
		{"whitespace only content", FormState{Content: "\n\t "}, false},
		{"title typed", FormState{Title: "Hello"}, true},
		{"content typed", FormState{Content: "World!"}, true},
		{"file selected", FormState{FileSelected: true}, true},
		{"category change alone does not count", FormState{Category: draft.CategoryQnA}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dirty, p.Dirty(tt.state))
		})
	}
}

func TestEditPolicy(t *testing.T) {
	snap := Snapshot{
		Title:    "Original",
		Content:  "Body",
		Category: draft.CategoryFree,
		HadImage: true,
	}
	p := EditPolicy{Snapshot: snap}

	base := FormState{
		Title:    "Original",
		Content:  "Body",
		Category: draft.CategoryFree,
		Preview:  "/static/uploads/a.png",
	}

	t.Run("identical snapshot is clean", func(t *testing.T) {
		assert.False(t, p.Dirty(base))
	})

	t.Run("category-only change is dirty", func(t *testing.T) {
		s := base
		s.Category = draft.CategoryQnA
		assert.True(t, p.Dirty(s))
	})

	t.Run("title change is dirty", func(t *testing.T) {
		s := base
		s.Title = "Changed"
		assert.True(t, p.Dirty(s))
	})

	t.Run("new file selection is dirty", func(t *testing.T) {
		s := base
		s.FileSelected = true
		assert.True(t, p.Dirty(s))
	})

	t.Run("deleted original image is dirty", func(t *testing.T) {
		s := base
		s.Preview = ""
		assert.True(t, p.Dirty(s))
	})

	t.Run("no original image and no preview is clean", func(t *testing.T) {
		np := EditPolicy{Snapshot: Snapshot{Title: "t", Content: "c", Category: draft.CategoryEtc}}
		assert.False(t, np.Dirty(FormState{Title: "t", Content: "c", Category: draft.CategoryEtc}))
	})
}
