package assistant

import (
	"context"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Provider defines the contract for the external ML capability: file storage,
// search-index lifecycle and retrieval-augmented generation. Implementations may
// take seconds to tens of minutes per call and must honor ctx cancellation.
type Provider interface {
	// UploadFile stores raw document bytes and returns an opaque file reference.
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)

	// DeleteFile removes an uploaded file from the provider storage.
	DeleteFile(ctx context.Context, fileRef string) error

	// BuildIndex creates a new search index over the given file references and
	// returns its opaque reference once the index is ready.
	BuildIndex(ctx context.Context, fileRefs []string) (string, error)

	// DeleteIndex removes a search index.
	DeleteIndex(ctx context.Context, indexRef string) error

	// Generate produces a reply for the conversation history. A non-empty
	// indexRef grounds the reply in that index; empty means general knowledge.
	Generate(ctx context.Context, history []Message, indexRef string) (string, error)

	// GenerateTitle produces a short chat title from the first user message.
	GenerateTitle(ctx context.Context, message string) (string, error)
}

// APIError is a failed provider call with its HTTP status, used to decide
// whether a retry can help.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant api error (status %d): %s", e.StatusCode, e.Message)
}

// Transient reports whether the failure is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}
