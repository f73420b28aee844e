package model

import (
	"time"

	"github.com/google/uuid"
)

type SearchIndex struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalRef string    `gorm:"type:text;not null;uniqueIndex"`
	Status      string    `gorm:"type:text;not null;index"`
	FileCount   int       `gorm:"not null"`
	BuiltAt     time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (SearchIndex) TableName() string {
	return "search_indexes"
}
