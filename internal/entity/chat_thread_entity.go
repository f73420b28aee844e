package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatThread struct {
	Id           uuid.UUID
	UserId       string
	Title        string
	BoundIndexId string // external index ref used for the most recent turn, empty if none
	CreatedAt    time.Time
	LastActiveAt time.Time
}
