package contract

import "context"

// CompletedTurn is a finished user/assistant exchange cached under an idempotency key.
type CompletedTurn struct {
	ThreadId       string
	Reply          string
	NewChatCreated bool
}

// DedupRepository remembers completed chat turns by idempotency key so a client
// retry of the same turn returns the stored reply instead of producing a duplicate.
type DedupRepository interface {
	Get(ctx context.Context, key string) (*CompletedTurn, bool, error)
	Save(ctx context.Context, key string, turn *CompletedTurn) error
}
