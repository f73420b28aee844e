package implementation

import (
	"context"

	"evoblast-be/internal/entity"
	"evoblast-be/internal/mapper"
	"evoblast-be/internal/model"
	"evoblast-be/internal/repository/contract"
	"evoblast-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) Append(ctx context.Context, msg *entity.ChatMessage) error {
	db := r.db.WithContext(ctx)

	// Lock the parent thread row so concurrent appends to the same thread serialize.
	// Aggregate queries cannot carry FOR UPDATE in Postgres, hence the two-step lock.
	var lockedId uuid.UUID
	if err := db.Raw("SELECT id FROM chat_threads WHERE id = ? FOR UPDATE", msg.ThreadId).
		Scan(&lockedId).Error; err != nil {
		return err
	}

	var next int
	err := db.Raw("SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM chat_messages WHERE thread_id = ?", msg.ThreadId).
		Scan(&next).Error
	if err != nil {
		return err
	}
	msg.SequenceNumber = next

	m := r.mapper.MessageToModel(msg)
	if err := db.Create(m).Error; err != nil {
		return err
	}
	*msg = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *ChatMessageRepositoryImpl) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("thread_id = ?", threadId).Delete(&model.ChatMessage{}).Error
}

func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
