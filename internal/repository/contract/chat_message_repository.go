package contract

import (
	"context"

	"evoblast-be/internal/entity"
	"evoblast-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	// Append persists the message with the next sequence number for its thread.
	// Must run inside the unit of work's transaction so two concurrent appends
	// to the same thread cannot collide or skip a number.
	Append(ctx context.Context, msg *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
