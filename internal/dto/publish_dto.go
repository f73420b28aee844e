package dto

// PublishRebuildIndexMessage is the payload sent on the rebuild topic. The trigger
// carries no file set: the coordinator snapshots the registry at build start.
type PublishRebuildIndexMessage struct {
	Reason string `json:"reason"`
}
