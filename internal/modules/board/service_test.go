package board

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bulletin/internal/domain"
	"bulletin/internal/pkg/imagex"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, p *domain.Post) error {
	args := m.Called(ctx, p)
	if p != nil {
		p.ID = 123 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, p *domain.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]domain.Post, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingSender struct {
	events   []string
	payloads []any
}

func (r *recordingSender) Broadcast(event string, payload any) {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
}

func makeFileHeader(t *testing.T, name string, data []byte) *multipart.FileHeader {
	t.Helper()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&b, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestValidateForm(t *testing.T) {
	long := make([]rune, MaxTitleLen+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		form    PostForm
		wantErr error
	}{
		{"valid", PostForm{Title: "hello", Content: "world", Category: "FREE"}, nil},
		{"blank title", PostForm{Title: "   ", Content: "x", Category: "FREE"}, ErrTitleRequired},
		{"title too long", PostForm{Title: string(long), Content: "x", Category: "FREE"}, ErrTitleTooLong},
		{"blank content", PostForm{Title: "x", Content: " ", Category: "FREE"}, ErrContentRequired},
		{"bad category", PostForm{Title: "x", Content: "y", Category: "SPAM"}, ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateForm(tt.form)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestService_Create_BroadcastsEvent(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("Create", mock.Anything, mock.Anything).Return(nil)
	sender := &recordingSender{}

	svc := NewService(posts, sender, t.TempDir(), "/static/uploads")

	p, err := svc.Create(context.Background(), 1, PostForm{Title: "Hello", Content: "World!", Category: "FREE"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(123), p.ID)

	require.Len(t, sender.events, 1)
	assert.Equal(t, "post_created", sender.events[0])
}

func TestService_Create_PlaceholderMeansNoImage(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	fh := makeFileHeader(t, "clear.png", imagex.TransparentPlaceholder())
	p, err := svc.Create(context.Background(), 1, PostForm{Title: "t", Content: "c", Category: "ETC"}, fh)
	assert.NoError(t, err)
	assert.Empty(t, p.ImagePath)
	assert.Empty(t, p.ImageURL)
}

func TestService_Create_StoresRealImage(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	fh := makeFileHeader(t, "photo.png", pngBytes(t, 8, 8))
	p, err := svc.Create(context.Background(), 1, PostForm{Title: "t", Content: "c", Category: "FREE"}, fh)
	assert.NoError(t, err)
	assert.NotEmpty(t, p.ImagePath)
	assert.Contains(t, p.ImageURL, "/static/uploads/")
}

func TestService_Create_RejectsBadExtension(t *testing.T) {
	posts := new(MockPostRepository)
	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	fh := makeFileHeader(t, "photo.bmp", pngBytes(t, 8, 8))
	_, err := svc.Create(context.Background(), 1, PostForm{Title: "t", Content: "c", Category: "FREE"}, fh)
	assert.ErrorIs(t, err, ErrInvalidFileExt)
}

func TestService_Update_NotAuthor(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Post{ID: 5, AuthorID: 9}, nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	_, err := svc.Update(context.Background(), 5, 1, PostForm{Title: "t", Content: "c", Category: "FREE"}, nil)
	assert.ErrorIs(t, err, ErrNotAuthor)
}

func TestService_Delete_RemovesPostAndImage(t *testing.T) {
	baseDir := t.TempDir()
	imgPath := filepath.Join("2026", "08", "31", "old.png")
	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, filepath.Dir(imgPath)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, imgPath), pngBytes(t, 8, 8), 0644))

	posts := new(MockPostRepository)
	posts.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Post{ID: 5, AuthorID: 1, ImagePath: imgPath}, nil)
	posts.On("Delete", mock.Anything, int64(5)).Return(nil)

	svc := NewService(posts, nil, baseDir, "/static/uploads")

	require.NoError(t, svc.Delete(context.Background(), 5, 1))
	posts.AssertCalled(t, "Delete", mock.Anything, int64(5))
	assert.NoFileExists(t, filepath.Join(baseDir, imgPath))
}

func TestService_Delete_NotAuthor(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetByID", mock.Anything, int64(5)).
		Return(&domain.Post{ID: 5, AuthorID: 9}, nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	err := svc.Delete(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrNotAuthor)
	posts.AssertNotCalled(t, "Delete", mock.Anything, int64(5))
}

func TestService_Detail_NoImageServesPlaceholder(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetByID", mock.Anything, int64(2)).
		Return(&domain.Post{ID: 2, Title: "t", Category: domain.CategoryFree}, nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	d, err := svc.Detail(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, PlaceholderURL, d.ImageURL)
}

func TestService_List_Pagination(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("List", mock.Anything, 10, 20).
		Return([]domain.Post{{ID: 30}, {ID: 29}}, int64(42), nil)

	svc := NewService(posts, nil, t.TempDir(), "/static/uploads")

	res, err := svc.List(context.Background(), ListQuery{Page: 3, Size: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, 5, res.TotalPages)
	assert.Len(t, res.Items, 2)
	posts.AssertExpectations(t)
}
