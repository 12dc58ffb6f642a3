package board

import (
	"context"

	"bulletin/internal/domain"
)

type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	Update(ctx context.Context, p *domain.Post) error
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]domain.Post, int64, error)
	Delete(ctx context.Context, id int64) error
}

// EventSender pushes board events to connected clients. The websocket hub
// satisfies this; services stay oblivious to the transport.
type EventSender interface {
	Broadcast(event string, payload any)
}
