package mapper

import (
	"time"

	"evoblast-be/internal/entity"
	"evoblast-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:            d.Id,
		UserId:        d.UserId,
		Filename:      d.Filename,
		FileType:      d.FileType,
		FileSize:      d.FileSize,
		Status:        d.Status,
		ExternalRef:   d.ExternalRef,
		StorageKey:    d.StorageKey,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	mod := &model.Document{
		Id:            d.Id,
		UserId:        d.UserId,
		Filename:      d.Filename,
		FileType:      d.FileType,
		FileSize:      d.FileSize,
		Status:        d.Status,
		ExternalRef:   d.ExternalRef,
		StorageKey:    d.StorageKey,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
	}
	if d.UpdatedAt != nil {
		mod.UpdatedAt = *d.UpdatedAt
	}
	return mod
}

func (m *DocumentMapper) ToEntities(models []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(models))
	for i, d := range models {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
