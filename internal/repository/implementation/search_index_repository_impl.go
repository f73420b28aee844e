package implementation

import (
	"context"
	"errors"

	"evoblast-be/internal/constant"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/mapper"
	"evoblast-be/internal/model"
	"evoblast-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SearchIndexRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.IndexMapper
}

func NewSearchIndexRepository(db *gorm.DB) contract.SearchIndexRepository {
	return &SearchIndexRepositoryImpl{
		db:     db,
		mapper: mapper.NewIndexMapper(),
	}
}

func (r *SearchIndexRepositoryImpl) Create(ctx context.Context, index *entity.SearchIndex) error {
	m := r.mapper.ToModel(index)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*index = *r.mapper.ToEntity(m)
	return nil
}

func (r *SearchIndexRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.SearchIndex{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *SearchIndexRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SearchIndex{}, id).Error
}

func (r *SearchIndexRepositoryImpl) FindActive(ctx context.Context) (*entity.SearchIndex, error) {
	var m model.SearchIndex
	err := r.db.WithContext(ctx).
		Where("status = ?", constant.IndexStatusActive).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SearchIndexRepositoryImpl) FindStale(ctx context.Context) ([]*entity.SearchIndex, error) {
	var models []*model.SearchIndex
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{constant.IndexStatusStale, constant.IndexStatusDeleteFailed}).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.SearchIndex, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
