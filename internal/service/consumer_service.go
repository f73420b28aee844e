package service

import (
	"context"
	"encoding/json"
	"log"

	"evoblast-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the rebuild topic and forwards each trigger to the
// index coordinator. Coalescing happens inside the coordinator, so a burst of
// uploads produces at most one build plus one follow-up.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	indexer   IIndexerService
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	indexer IIndexerService,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		indexer:   indexer,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishRebuildIndexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal rebuild trigger: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if _, err := cs.indexer.RequestRebuild(ctx, payload.Reason); err != nil {
		log.Printf("[ERROR] Failed to request rebuild (%s): %v", payload.Reason, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
