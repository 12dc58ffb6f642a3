package compose

import (
	"context"

	"bulletin/internal/client/api"
	"bulletin/internal/client/imaging"
)

// PostAPI is the slice of the backend client the form needs. *api.Client
// satisfies it; tests substitute a mock.
type PostAPI interface {
	GetCategories(ctx context.Context) (map[string]string, error)
	GetPostDetail(ctx context.Context, id int64) (*api.PostDetail, error)
	CreatePost(ctx context.Context, data api.PostData, file *imaging.File) (int64, error)
	UpdatePost(ctx context.Context, id int64, data api.PostData, file *imaging.File) error
	FetchImage(ctx context.Context, url string) ([]byte, error)
}
