package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_UPLOADED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocumentUploaded is emitted after a document is registered and pushed to
// the assistant storage.
func NewDocumentUploaded(documentId, userId, filename string) Event {
	return BaseEvent{
		Type: "DOCUMENT_UPLOADED",
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
			"filename":    filename,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentDeleted is emitted after a document is removed from the registry.
func NewDocumentDeleted(documentId, userId string) Event {
	return BaseEvent{
		Type: "DOCUMENT_DELETED",
		Data: map[string]interface{}{
			"document_id": documentId,
			"user_id":     userId,
		},
		OccurredAt: time.Now(),
	}
}

// NewIndexRebuilt is emitted when a rebuild finishes and the new index handle
// became active.
func NewIndexRebuilt(indexRef string, generation uint64, fileCount int) Event {
	return BaseEvent{
		Type: "INDEX_REBUILT",
		Data: map[string]interface{}{
			"index_ref":  indexRef,
			"generation": generation,
			"file_count": fileCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewChatThreadCreated is emitted when a new conversation thread is started.
func NewChatThreadCreated(threadId, userId, title string) Event {
	return BaseEvent{
		Type: "CHAT_THREAD_CREATED",
		Data: map[string]interface{}{
			"thread_id": threadId,
			"user_id":   userId,
			"title":     title,
		},
		OccurredAt: time.Now(),
	}
}
