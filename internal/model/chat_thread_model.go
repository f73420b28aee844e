package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatThread struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       string    `gorm:"type:text;not null;index"` // User ownership for data isolation
	Title        string    `gorm:"type:text;not null"`
	BoundIndexId string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	LastActiveAt time.Time `gorm:"not null;index"`
}

func (ChatThread) TableName() string {
	return "chat_threads"
}
