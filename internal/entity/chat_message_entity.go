package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id             uuid.UUID
	ThreadId       uuid.UUID
	Role           string
	Content        string
	SequenceNumber int
	CreatedAt      time.Time
}
