package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"evoblast-be/internal/apperror"
	"evoblast-be/internal/config"
	"evoblast-be/internal/constant"
	"evoblast-be/internal/dto"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/pkg/logger"
	"evoblast-be/internal/repository/specification"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/pkg/assistant"
	"evoblast-be/pkg/events"
	pkgNats "evoblast-be/pkg/nats"
	"evoblast-be/pkg/storage"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Register(ctx context.Context, userId string, files []*multipart.FileHeader) (*dto.UploadFilesResponse, error)
	List(ctx context.Context, userId string, onlyMine bool) (*dto.FileListResponse, error)
	Get(ctx context.Context, userId string, id uuid.UUID) (*dto.FileInfoResponse, error)
	Download(ctx context.Context, userId string, id uuid.UUID) (string, io.ReadCloser, error)
	Remove(ctx context.Context, userId string, id uuid.UUID) (*dto.DeleteFileResponse, error)
	RemoveAll(ctx context.Context) (*dto.DeleteAllFilesResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	provider         assistant.Provider
	objectStore      storage.ObjectStore
	publisherService IPublisherService
	natsPub          *pkgNats.Publisher
	uploadCfg        config.UploadConfig
	log              logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	provider assistant.Provider,
	objectStore storage.ObjectStore,
	publisherService IPublisherService,
	natsPub *pkgNats.Publisher,
	uploadCfg config.UploadConfig,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		provider:         provider,
		objectStore:      objectStore,
		publisherService: publisherService,
		natsPub:          natsPub,
		uploadCfg:        uploadCfg,
		log:              log,
	}
}

func (s *documentService) Register(ctx context.Context, userId string, files []*multipart.FileHeader) (*dto.UploadFilesResponse, error) {
	if len(files) == 0 {
		return nil, apperror.NewValidation("no files provided")
	}
	if len(files) > s.uploadCfg.MaxFilesPerRequest {
		return nil, apperror.NewValidation("too many files: %d (maximum %d per request)", len(files), s.uploadCfg.MaxFilesPerRequest)
	}

	var totalSize int64
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !s.isAllowedExtension(ext) {
			return nil, apperror.NewValidation("unsupported file type '%s' for %s", ext, fh.Filename)
		}
		if fh.Size > s.uploadCfg.MaxTotalSizeBytes {
			return nil, apperror.NewValidation("file %s exceeds the size limit of %d bytes", fh.Filename, s.uploadCfg.MaxTotalSizeBytes)
		}
		totalSize += fh.Size
	}
	if totalSize > s.uploadCfg.MaxTotalSizeBytes {
		return nil, apperror.NewValidation("total upload size %d exceeds the limit of %d bytes", totalSize, s.uploadCfg.MaxTotalSizeBytes)
	}

	res := &dto.UploadFilesResponse{}
	for _, fh := range files {
		info, err := s.registerOne(ctx, userId, fh)
		if err != nil {
			// Partial failure: record the error, keep processing the batch.
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		res.Files = append(res.Files, info)
		res.TotalUploaded++
	}

	if res.TotalUploaded > 0 {
		s.publishRebuildTrigger(ctx, "documents uploaded")
	}

	return res, nil
}

func (s *documentService) registerOne(ctx context.Context, userId string, fh *multipart.FileHeader) (*dto.FileInfoResponse, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Filename:  fh.Filename,
		FileType:  ext,
		FileSize:  fh.Size,
		Status:    constant.DocumentStatusPending,
		CreatedAt: time.Now(),
	}
	doc.StorageKey = fmt.Sprintf("%s/%s%s", userId, doc.Id, ext)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	contentType := fh.Header.Get("Content-Type")
	if err := s.objectStore.Put(ctx, doc.StorageKey, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		s.markFailed(ctx, doc, fmt.Sprintf("object storage write failed: %v", err))
		return nil, err
	}

	externalRef, err := s.provider.UploadFile(ctx, fh.Filename, content)
	if err != nil {
		s.markFailed(ctx, doc, fmt.Sprintf("assistant upload failed: %v", err))
		return nil, classifyAssistantError(err)
	}

	if err := s.markUploaded(ctx, doc, externalRef); err != nil {
		return nil, err
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewDocumentUploaded(doc.Id.String(), userId, doc.Filename)); err != nil {
			s.log.Warn("document", "Failed to publish DOCUMENT_UPLOADED event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return s.toFileInfo(doc), nil
}

func (s *documentService) markUploaded(ctx context.Context, doc *entity.Document, externalRef string) error {
	doc.Status = constant.DocumentStatusUploaded
	doc.ExternalRef = externalRef
	now := time.Now()
	doc.UpdatedAt = &now
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().Update(ctx, doc)
}

func (s *documentService) markFailed(ctx context.Context, doc *entity.Document, reason string) {
	doc.Status = constant.DocumentStatusFailed
	doc.FailureReason = reason
	now := time.Now()
	doc.UpdatedAt = &now
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		s.log.Error("document", "Failed to mark document as failed", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}
}

func (s *documentService) List(ctx context.Context, userId string, onlyMine bool) (*dto.FileListResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if onlyMine {
		specs = append(specs, specification.OwnedBy{UserID: userId})
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.FileListResponse{
		UserId: userId,
		Files:  make([]*dto.FileInfoResponse, 0, len(docs)),
		Total:  len(docs),
	}
	for _, doc := range docs {
		res.Files = append(res.Files, s.toFileInfo(doc))
	}
	return res, nil
}

func (s *documentService) Get(ctx context.Context, userId string, id uuid.UUID) (*dto.FileInfoResponse, error) {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return s.toFileInfo(doc), nil
}

func (s *documentService) Download(ctx context.Context, userId string, id uuid.UUID) (string, io.ReadCloser, error) {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return "", nil, err
	}
	rc, err := s.objectStore.Get(ctx, doc.StorageKey)
	if err != nil {
		return "", nil, err
	}
	return doc.Filename, rc, nil
}

func (s *documentService) Remove(ctx context.Context, userId string, id uuid.UUID) (*dto.DeleteFileResponse, error) {
	doc, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Delete(ctx, doc.Id); err != nil {
		return nil, err
	}

	// External cleanup is best-effort: the registry record is gone, the next
	// rebuild no longer includes this file either way.
	s.cleanupExternal(ctx, doc)

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewDocumentDeleted(doc.Id.String(), userId)); err != nil {
			s.log.Warn("document", "Failed to publish DOCUMENT_DELETED event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.publishRebuildTrigger(ctx, "document deleted")

	return &dto.DeleteFileResponse{
		FileId:  doc.Id,
		Deleted: true,
	}, nil
}

func (s *documentService) RemoveAll(ctx context.Context) (*dto.DeleteAllFilesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	deleted, err := uow.DocumentRepository().DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		s.cleanupExternal(ctx, doc)
	}

	s.publishRebuildTrigger(ctx, "all documents deleted")

	return &dto.DeleteAllFilesResponse{
		DeletedCount: int(deleted),
	}, nil
}

func (s *documentService) findOwned(ctx context.Context, userId string, id uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		// Absent and not-owned are reported identically.
		return nil, apperror.NewNotFound("file", id.String())
	}
	return doc, nil
}

func (s *documentService) cleanupExternal(ctx context.Context, doc *entity.Document) {
	if doc.ExternalRef != "" {
		if err := s.provider.DeleteFile(ctx, doc.ExternalRef); err != nil {
			s.log.Warn("document", "Failed to delete assistant file", map[string]interface{}{
				"document_id":  doc.Id.String(),
				"external_ref": doc.ExternalRef,
				"error":        err.Error(),
			})
		}
	}
	if doc.StorageKey != "" {
		if err := s.objectStore.Delete(ctx, doc.StorageKey); err != nil {
			s.log.Warn("document", "Failed to delete stored object", map[string]interface{}{
				"document_id": doc.Id.String(),
				"storage_key": doc.StorageKey,
				"error":       err.Error(),
			})
		}
	}
}

// publishRebuildTrigger never fails the calling request; the worst case is a
// missed rebuild that the next registry change catches up on.
func (s *documentService) publishRebuildTrigger(ctx context.Context, reason string) {
	payload, err := json.Marshal(dto.PublishRebuildIndexMessage{Reason: reason})
	if err != nil {
		s.log.Error("document", "Failed to marshal rebuild trigger", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("document", "Failed to publish rebuild trigger", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	}
}

func (s *documentService) isAllowedExtension(ext string) bool {
	for _, allowed := range s.uploadCfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *documentService) toFileInfo(doc *entity.Document) *dto.FileInfoResponse {
	return &dto.FileInfoResponse{
		FileId:            doc.Id,
		UserId:            doc.UserId,
		Filename:          doc.Filename,
		FileType:          doc.FileType,
		FileSize:          doc.FileSize,
		Status:            doc.Status,
		VectorStoreFileId: doc.ExternalRef,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}
