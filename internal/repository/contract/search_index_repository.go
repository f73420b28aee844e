package contract

import (
	"context"

	"evoblast-be/internal/entity"

	"github.com/google/uuid"
)

type SearchIndexRepository interface {
	Create(ctx context.Context, index *entity.SearchIndex) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindActive(ctx context.Context) (*entity.SearchIndex, error)
	FindStale(ctx context.Context) ([]*entity.SearchIndex, error)
}
