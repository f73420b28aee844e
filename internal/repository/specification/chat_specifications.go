package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByThreadID filters messages by their chat thread
type ByThreadID struct {
	ThreadID uuid.UUID
}

func (s ByThreadID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_id = ?", s.ThreadID)
}
