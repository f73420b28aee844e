package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message        string     `json:"message" validate:"required"`
	ThreadId       *uuid.UUID `json:"thread_id,omitempty"`
	IdempotencyKey string     `json:"idempotency_key,omitempty" validate:"max=128"`
}

type SendMessageResponse struct {
	Message        string    `json:"message"`
	ThreadId       uuid.UUID `json:"thread_id"`
	NewChatCreated bool      `json:"new_chat_created"`
}

type ThreadInfoResponse struct {
	ThreadId     uuid.UUID `json:"thread_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type UserChatsResponse struct {
	UserId string                `json:"user_id"`
	Chats  []*ThreadInfoResponse `json:"chats"`
	Total  int                   `json:"total"`
}

type MessageInfoResponse struct {
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	SequenceNumber int       `json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	ThreadId uuid.UUID              `json:"thread_id"`
	Messages []*MessageInfoResponse `json:"messages"`
	Total    int                    `json:"total"`
}

type DeleteChatResponse struct {
	ThreadId uuid.UUID `json:"thread_id"`
	Deleted  bool      `json:"deleted"`
}
