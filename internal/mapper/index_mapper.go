package mapper

import (
	"evoblast-be/internal/entity"
	"evoblast-be/internal/model"
)

type IndexMapper struct{}

func NewIndexMapper() *IndexMapper {
	return &IndexMapper{}
}

func (m *IndexMapper) ToEntity(s *model.SearchIndex) *entity.SearchIndex {
	if s == nil {
		return nil
	}
	return &entity.SearchIndex{
		Id:          s.Id,
		ExternalRef: s.ExternalRef,
		Status:      s.Status,
		FileCount:   s.FileCount,
		BuiltAt:     s.BuiltAt,
	}
}

func (m *IndexMapper) ToModel(s *entity.SearchIndex) *model.SearchIndex {
	if s == nil {
		return nil
	}
	return &model.SearchIndex{
		Id:          s.Id,
		ExternalRef: s.ExternalRef,
		Status:      s.Status,
		FileCount:   s.FileCount,
		BuiltAt:     s.BuiltAt,
	}
}
