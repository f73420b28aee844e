package entity

import (
	"time"

	"github.com/google/uuid"
)

// SearchIndex is a handle to an externally-maintained vector store. At most one
// handle is "active" at any time; a "stale" handle is a replaced index kept around
// because its delete failed.
type SearchIndex struct {
	Id          uuid.UUID
	ExternalRef string
	Status      string
	FileCount   int
	BuiltAt     time.Time
}
