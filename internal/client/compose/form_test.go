package compose

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bulletin/internal/client/api"
	"bulletin/internal/client/draft"
	"bulletin/internal/client/imaging"
	"bulletin/internal/client/navguard"
	"bulletin/internal/client/storage"
	"bulletin/internal/pkg/imagex"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetCategories(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) GetPostDetail(ctx context.Context, id int64) (*api.PostDetail, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*api.PostDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CreatePost(ctx context.Context, data api.PostData, file *imaging.File) (int64, error) {
	args := m.Called(ctx, data, file)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAPI) UpdatePost(ctx context.Context, id int64, data api.PostData, file *imaging.File) error {
	args := m.Called(ctx, id, data, file)
	return args.Error(0)
}

func (m *mockAPI) FetchImage(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if v := args.Get(0); v != nil {
		return v.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

type harness struct {
	api    *mockAPI
	store  *draft.Store
	gate   *navguard.Gate
	visits []string
	pushes int
}

func newHarness() *harness {
	return &harness{
		api:   new(mockAPI),
		store: draft.NewStore(storage.NewMemory()),
		gate:  navguard.NewGate(),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		API:         h.api,
		Drafts:      h.store,
		Gate:        h.gate,
		Navigate:    func(path string) { h.visits = append(h.visits, path) },
		PushHistory: func() { h.pushes++ },
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (h *harness) stubCategories() {
	h.api.On("GetCategories", mock.Anything).Return(map[string]string{
		"NOTICE": "공지", "FREE": "자유", "QNA": "Q&A", "ETC": "기타",
	}, nil)
}

func mountCreate(t *testing.T, h *harness) *Form {
	t.Helper()
	f := NewCreateForm(h.deps())
	require.NoError(t, f.Mount(context.Background()))
	return f
}

func TestMountFallsBackToBuiltInCategories(t *testing.T) {
	h := newHarness()
	h.api.On("GetCategories", mock.Anything).Return(nil, assert.AnError)

	f := mountCreate(t, h)

	opts := f.Categories()
	require.Len(t, opts, 4)
	assert.Equal(t, "NOTICE", opts[0].Key)
	assert.Equal(t, "자유", opts[1].Label)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	t.Run("empty fields never reach the server", func(t *testing.T) {
		err := f.Submit(context.Background())
		assert.ErrorIs(t, err, ErrValidation)
		assert.NotEmpty(t, f.TitleErr())
		assert.NotEmpty(t, f.ContentErr())
		h.api.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("whitespace-only title fails", func(t *testing.T) {
		f.SetTitle("   ")
		f.SetContent("body")
		assert.ErrorIs(t, f.Submit(context.Background()), ErrValidation)
		assert.NotEmpty(t, f.TitleErr())
		assert.Empty(t, f.ContentErr())
	})

	t.Run("overlong title fails", func(t *testing.T) {
		long := make([]rune, MaxTitleLen+1)
		for i := range long {
			long[i] = '가'
		}
		f.SetTitle(string(long))
		assert.ErrorIs(t, f.Submit(context.Background()), ErrValidation)
		assert.NotEmpty(t, f.TitleErr())
	})
}

func TestSubmitLatchesGuardBeforeNavigating(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	h.api.On("CreatePost", mock.Anything, api.PostData{
		Title: "hello", Content: "world", Category: "FREE",
	}, (*imaging.File)(nil)).Return(int64(5), nil)

	f := mountCreate(t, h)
	f.SetTitle("hello")
	f.SetContent("world")
	require.True(t, f.Dirty())

	require.NoError(t, f.Submit(context.Background()))

	assert.Equal(t, []string{"/boards/5"}, h.visits)
	assert.True(t, h.gate.Allowed("/boards"), "navigation must be free after submit")
	assert.True(t, f.OnBack(), "back must not be absorbed after submit")
}

func TestSubmitErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"413 maps to the size message", &api.Error{Status: http.StatusRequestEntityTooLarge, Code: "FILE_TOO_LARGE", Message: "too big"}, msgImageTooLarge},
		{"403 maps to the permission message", &api.Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "not yours"}, msgForbidden},
		{"5xx maps to the server message", &api.Error{Status: http.StatusBadGateway}, msgServerError},
		{"other statuses surface the server text", &api.Error{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "카테고리가 올바르지 않습니다."}, "카테고리가 올바르지 않습니다."},
		{"non-server failures get the generic message", assert.AnError, msgRequestFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.stubCategories()
			h.api.On("CreatePost", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), tc.err)

			f := mountCreate(t, h)
			f.SetTitle("t")
			f.SetContent("c")

			require.Error(t, f.Submit(context.Background()))
			assert.Equal(t, tc.want, f.SubmitErr())
			assert.Empty(t, h.visits)
		})
	}
}

func TestBackThenSaveAndExit(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	f.SetTitle("draft me")
	assert.Equal(t, 1, h.pushes, "first dirty edit pushes the absorber once")
	f.SetContent("still typing")
	assert.Equal(t, 1, h.pushes)

	require.False(t, f.OnBack(), "back on a dirty form is absorbed")
	assert.True(t, f.PromptVisible())
	assert.Equal(t, 2, h.pushes, "absorber is re-pushed")

	require.NoError(t, f.ExitSave())

	assert.False(t, f.PromptVisible())
	assert.Equal(t, []string{"/boards"}, h.visits)

	saved, err := h.store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "draft me", saved[0].Title)

	assert.True(t, f.OnBack(), "guard is latched after save-and-exit")
}

func TestExitSaveDuplicateKeepsPromptOpen(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	f.SetTitle("same")
	f.SetContent("same body")
	require.NoError(t, f.SaveDraft())

	require.False(t, f.OnBack())
	require.True(t, f.PromptVisible())

	err := f.ExitSave()
	assert.ErrorIs(t, err, draft.ErrDuplicate)
	assert.True(t, f.PromptVisible(), "a failed save must not let the exit happen")
	assert.Empty(t, h.visits)

	f.ExitDiscard()
	assert.False(t, f.PromptVisible())
	assert.Equal(t, []string{"/boards"}, h.visits)
}

func TestApplyDraftDoesNotConsumeIt(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	require.NoError(t, h.store.Save(draft.Draft{
		Title: "saved", Content: "content", Category: draft.CategoryQnA,
		Timestamp: time.Now().UnixMilli(),
	}))

	f := mountCreate(t, h)
	require.Len(t, f.Drafts(), 1)

	f.ApplyDraft(f.Drafts()[0])
	assert.Equal(t, "saved", f.Title())
	assert.Equal(t, draft.CategoryQnA, f.Category())

	remaining, err := h.store.Load()
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestEditMountTreatsPlaceholderAsNoImage(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	h.api.On("GetPostDetail", mock.Anything, int64(9)).Return(&api.PostDetail{
		ID: 9, Title: "t", Content: "c", Category: "FREE",
		ImageURL: "/static/placeholder.png",
	}, nil)
	h.api.On("FetchImage", mock.Anything, "/static/placeholder.png").
		Return(imagex.TransparentPlaceholder(), nil)

	f := NewEditForm(h.deps(), 9)
	require.NoError(t, f.Mount(context.Background()))

	assert.Empty(t, f.Intake().Preview())
	assert.False(t, f.Dirty(), "untouched edit form is clean")

	f.SetCategory(draft.CategoryEtc)
	assert.True(t, f.Dirty(), "category changes count in edit mode")
}

func TestEditDeleteImageUploadsPlaceholder(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	h.api.On("GetPostDetail", mock.Anything, int64(4)).Return(&api.PostDetail{
		ID: 4, Title: "t", Content: "c", Category: "FREE",
		ImageURL: "/static/uploads/2026/03/cat.jpg",
	}, nil)
	h.api.On("FetchImage", mock.Anything, "/static/uploads/2026/03/cat.jpg").
		Return([]byte("real image bytes"), nil)

	var sent *imaging.File
	h.api.On("UpdatePost", mock.Anything, int64(4), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			if v := args.Get(3); v != nil {
				sent = v.(*imaging.File)
			}
		}).Return(nil)

	f := NewEditForm(h.deps(), 4)
	require.NoError(t, f.Mount(context.Background()))
	assert.False(t, f.Dirty())

	f.RemoveImage()
	assert.True(t, f.Dirty(), "deleting the original image is a change")

	require.NoError(t, f.Submit(context.Background()))
	require.NotNil(t, sent, "clearing the image must upload the placeholder")
	assert.True(t, imagex.IsPlaceholder(sent.Data))
	assert.Equal(t, []string{"/boards/4"}, h.visits)
}

func TestEditMountFailureRedirectsToList(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	h.api.On("GetPostDetail", mock.Anything, int64(77)).Return(nil, assert.AnError)

	f := NewEditForm(h.deps(), 77)
	err := f.Mount(context.Background())

	assert.ErrorIs(t, err, ErrPostUnavailable)
	assert.Equal(t, []string{"/boards"}, h.visits)
}

func TestUnmountFreesTheGate(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	f.SetTitle("dirty")
	assert.False(t, h.gate.Allowed("/boards"))
	assert.True(t, f.PromptVisible())
	f.ExitCancel()

	f.Unmount()
	assert.True(t, h.gate.Allowed("/boards"))
}

func TestExitDiscardResumesBlockedNavigation(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	f.SetTitle("reading something else")

	require.False(t, h.gate.Allowed("/boards/7"), "dirty form blocks the route change")
	require.True(t, f.PromptVisible())

	f.ExitDiscard()
	assert.Equal(t, []string{"/boards/7"}, h.visits, "discard resumes the intercepted navigation")
	assert.False(t, f.PromptVisible())
}

func TestExitCancelForgetsBlockedTarget(t *testing.T) {
	h := newHarness()
	h.stubCategories()
	f := mountCreate(t, h)

	f.SetTitle("still writing")

	require.False(t, h.gate.Allowed("/boards/7"))
	f.ExitCancel()

	// A later back-button exit has no forward destination and falls back
	// to the list, not the stale route target.
	require.False(t, f.OnBack())
	f.ExitDiscard()
	assert.Equal(t, []string{"/boards"}, h.visits)
}
