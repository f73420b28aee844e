package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id            uuid.UUID
	UserId        string
	Filename      string
	FileType      string
	FileSize      int64
	Status        string
	ExternalRef   string // file id in the assistant storage, empty until uploaded
	StorageKey    string // object storage key for the raw bytes
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
