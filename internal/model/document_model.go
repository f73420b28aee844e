package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId        string    `gorm:"type:text;not null;index"` // Uploader ownership
	Filename      string    `gorm:"type:text;not null"`
	FileType      string    `gorm:"type:text;not null"`
	FileSize      int64     `gorm:"not null"`
	Status        string    `gorm:"type:text;not null;index"`
	ExternalRef   string    `gorm:"type:text"`
	StorageKey    string    `gorm:"type:text"`
	FailureReason string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}
