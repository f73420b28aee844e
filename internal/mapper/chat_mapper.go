package mapper

import (
	"evoblast-be/internal/entity"
	"evoblast-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Thread Mappers

func (m *ChatMapper) ThreadToEntity(t *model.ChatThread) *entity.ChatThread {
	if t == nil {
		return nil
	}
	return &entity.ChatThread{
		Id:           t.Id,
		UserId:       t.UserId,
		Title:        t.Title,
		BoundIndexId: t.BoundIndexId,
		CreatedAt:    t.CreatedAt,
		LastActiveAt: t.LastActiveAt,
	}
}

func (m *ChatMapper) ThreadToModel(t *entity.ChatThread) *model.ChatThread {
	if t == nil {
		return nil
	}
	return &model.ChatThread{
		Id:           t.Id,
		UserId:       t.UserId,
		Title:        t.Title,
		BoundIndexId: t.BoundIndexId,
		CreatedAt:    t.CreatedAt,
		LastActiveAt: t.LastActiveAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:             msg.Id,
		ThreadId:       msg.ThreadId,
		Role:           msg.Role,
		Content:        msg.Content,
		SequenceNumber: msg.SequenceNumber,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:             msg.Id,
		ThreadId:       msg.ThreadId,
		Role:           msg.Role,
		Content:        msg.Content,
		SequenceNumber: msg.SequenceNumber,
		CreatedAt:      msg.CreatedAt,
	}
}
