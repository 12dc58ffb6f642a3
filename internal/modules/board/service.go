package board

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bulletin/internal/domain"
	"bulletin/internal/pkg/imagex"
)

const (
	MaxTitleLen   = 100
	MaxContentLen = 5000

	// MaxImageBytes is the accepted upload size. Clients resize toward this
	// ceiling before submitting.
	MaxImageBytes = 3 * 1024 * 1024

	MediaBaseDir   = "./media"
	StaticURLBase  = "/static/uploads"
	PlaceholderURL = "/static/placeholder.png"
)

// AllowedExtensions is the image extension allow-list, matched against the
// lowercase filename suffix.
var AllowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

type Service struct {
	posts      PostRepository
	events     EventSender
	baseDir    string
	staticBase string
}

func NewService(posts PostRepository, events EventSender, baseDir, staticBase string) *Service {
	if baseDir == "" {
		baseDir = MediaBaseDir
	}
	if staticBase == "" {
		staticBase = StaticURLBase
	}
	return &Service{posts: posts, events: events, baseDir: baseDir, staticBase: staticBase}
}

// Categories returns the category key to display label mapping.
func (s *Service) Categories() map[string]string {
	return domain.CategoryLabels
}

func (s *Service) Create(ctx context.Context, authorID int64, form PostForm, fileHeader *multipart.FileHeader) (*domain.Post, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	p := &domain.Post{
		AuthorID: authorID,
		Title:    strings.TrimSpace(form.Title),
		Content:  form.Content,
		Category: domain.Category(form.Category),
	}

	if fileHeader != nil {
		relPath, url, err := s.storeImage(fileHeader)
		if err != nil {
			return nil, err
		}
		// A placeholder upload means "no image"; storeImage reports it
		// with empty paths.
		p.ImagePath = relPath
		p.ImageURL = url
	}

	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Broadcast("post_created", PostSummary{
			ID:        p.ID,
			Title:     p.Title,
			Category:  string(p.Category),
			HasImage:  p.ImagePath != "",
			CreatedAt: p.CreatedAt,
		})
	}

	return p, nil
}

func (s *Service) Update(ctx context.Context, postID, actorID int64, form PostForm, fileHeader *multipart.FileHeader) (*domain.Post, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != actorID {
		return nil, ErrNotAuthor
	}

	p.Title = strings.TrimSpace(form.Title)
	p.Content = form.Content
	p.Category = domain.Category(form.Category)

	if fileHeader != nil {
		relPath, url, err := s.storeImage(fileHeader)
		if err != nil {
			return nil, err
		}
		s.removeImageFile(p.ImagePath)
		p.ImagePath = relPath
		p.ImageURL = url
	}

	if err := s.posts.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a post and its stored image. Only the author may delete.
func (s *Service) Delete(ctx context.Context, postID, actorID int64) error {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != actorID {
		return ErrNotAuthor
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	s.removeImageFile(p.ImagePath)
	return nil
}

// Detail returns a post for display. Posts without an image carry the 1x1
// transparent placeholder URL; editing clients detect and hide it.
func (s *Service) Detail(ctx context.Context, postID int64) (*PostDetail, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	imageURL := p.ImageURL
	if imageURL == "" {
		imageURL = PlaceholderURL
	}

	return &PostDetail{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Category:  string(p.Category),
		ImageURL:  imageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	offset := (q.Page - 1) * q.Size
	posts, total, err := s.posts.List(ctx, q.Size, offset)
	if err != nil {
		return nil, err
	}

	items := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		items = append(items, PostSummary{
			ID:        p.ID,
			Title:     p.Title,
			Category:  string(p.Category),
			HasImage:  p.ImagePath != "",
			CreatedAt: p.CreatedAt,
		})
	}

	totalPages := int((total + int64(q.Size) - 1) / int64(q.Size))
	return &ListResponse{
		Items:      items,
		Page:       q.Page,
		Size:       q.Size,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func validateForm(form PostForm) error {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return ErrTitleRequired
	}
	if len([]rune(title)) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(form.Content) == "" {
		return ErrContentRequired
	}
	if len([]rune(form.Content)) > MaxContentLen {
		return ErrContentTooLong
	}
	if !domain.Category(form.Category).Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// storeImage validates and persists an uploaded image, returning its relative
// disk path and public URL. A 1x1 placeholder upload returns empty values:
// that is the client's way of clearing the image.
func (s *Service) storeImage(fileHeader *multipart.FileHeader) (string, string, error) {
	if fileHeader.Size == 0 {
		return "", "", ErrEmptyFile
	}
	if fileHeader.Size > MaxImageBytes {
		return "", "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !AllowedExtensions[ext] {
		return "", "", ErrInvalidFileExt
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file: %w", err)
	}

	mime := imagex.DetectMime(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", "", ErrInvalidMimeType
	}

	if imagex.IsPlaceholder(data) {
		return "", "", nil
	}

	now := time.Now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create media directory: %w", err)
	}

	filename := uuid.New().String() + ext
	absPath := filepath.Join(absDir, filename)
	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}

	relPath := filepath.Join(relDir, filename)
	url := s.staticBase + "/" + strings.ReplaceAll(relPath, "\\", "/")
	return relPath, url, nil
}

func (s *Service) removeImageFile(relPath string) {
	if relPath == "" {
		return
	}
	// ignore error, the file may already be gone
	_ = os.Remove(filepath.Join(s.baseDir, relPath))
}
