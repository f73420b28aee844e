package dto

import (
	"time"

	"github.com/google/uuid"
)

type FileInfoResponse struct {
	FileId            uuid.UUID  `json:"file_id"`
	UserId            string     `json:"user_id"`
	Filename          string     `json:"filename"`
	FileType          string     `json:"file_type"`
	FileSize          int64      `json:"file_size"`
	Status            string     `json:"status"`
	VectorStoreFileId string     `json:"vectorstore_file_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
}

type UploadFilesResponse struct {
	Files         []*FileInfoResponse `json:"files"`
	TotalUploaded int                 `json:"total_uploaded"`
	Errors        []string            `json:"errors,omitempty"`
}

type FileListResponse struct {
	UserId string              `json:"user_id"`
	Files  []*FileInfoResponse `json:"files"`
	Total  int                 `json:"total"`
}

type DeleteFileResponse struct {
	FileId  uuid.UUID `json:"file_id"`
	Deleted bool      `json:"deleted"`
}

type DeleteAllFilesResponse struct {
	DeletedCount int `json:"deleted_count"`
}

type ReindexResponse struct {
	Accepted   bool   `json:"accepted"`
	FilesCount int    `json:"files_count"`
	Message    string `json:"message"`
}

type IndexingStatusResponse struct {
	IsIndexing       bool   `json:"is_indexing"`
	Message          string `json:"message"`
	FilesCount       int    `json:"files_count"`
	VectorStoreId    string `json:"vector_store_id,omitempty"`
	HasKnowledgeBase bool   `json:"has_knowledge_base"`
}

type VectorStoreResponse struct {
	VectorStoreId    string `json:"vector_store_id,omitempty"`
	HasKnowledgeBase bool   `json:"has_knowledge_base"`
}
