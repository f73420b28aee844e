package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"evoblast-be/internal/apperror"
	"evoblast-be/internal/constant"
	"evoblast-be/internal/dto"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/pkg/logger"
	"evoblast-be/internal/repository/specification"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/pkg/assistant"
	"evoblast-be/pkg/events"
	pkgNats "evoblast-be/pkg/nats"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type IIndexerService interface {
	// RequestRebuild is fire-and-forget: it never blocks on the build and never
	// returns the build outcome. While a build runs, additional requests coalesce
	// into a single follow-up run.
	RequestRebuild(ctx context.Context, reason string) (*dto.ReindexResponse, error)
	Status(ctx context.Context) (*dto.IndexingStatusResponse, error)
	ActiveIndex(ctx context.Context) (*dto.VectorStoreResponse, error)
	// ActiveIndexRef returns the external ref of the active index, "" when none.
	ActiveIndexRef(ctx context.Context) (string, error)
}

type indexerService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   assistant.Provider
	natsPub    *pkgNats.Publisher
	log        logger.ILogger

	// Job state. The mutex guards only these fields; the external build and
	// delete calls run outside it so Status() never blocks behind a build.
	mu           sync.Mutex
	running      bool
	pendingRerun bool
	generation   uint64
	message      string
	fileCount    int
	startedAt    time.Time
}

func NewIndexerService(
	uowFactory unitofwork.RepositoryFactory,
	provider assistant.Provider,
	natsPub *pkgNats.Publisher,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		uowFactory: uowFactory,
		provider:   provider,
		natsPub:    natsPub,
		log:        log,
	}
}

func (s *indexerService) RequestRebuild(ctx context.Context, reason string) (*dto.ReindexResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.DocumentRepository().Count(ctx, specification.ByStatus{Status: constant.DocumentStatusUploaded})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running {
		s.pendingRerun = true
		s.mu.Unlock()
		return &dto.ReindexResponse{
			Accepted:   true,
			FilesCount: int(count),
			Message:    "Rebuild already in progress, a follow-up run is scheduled",
		}, nil
	}
	s.running = true
	s.pendingRerun = false
	s.generation++
	gen := s.generation
	s.startedAt = time.Now()
	s.message = "Rebuild started"
	s.mu.Unlock()

	s.log.Info("indexer", "Rebuild started", map[string]interface{}{
		"reason":     reason,
		"generation": gen,
	})

	// Detached from the request context: the build outlives the HTTP call.
	go s.runBuild(context.Background(), gen)

	return &dto.ReindexResponse{
		Accepted:   true,
		FilesCount: int(count),
		Message:    "Rebuild started",
	}, nil
}

func (s *indexerService) Status(ctx context.Context) (*dto.IndexingStatusResponse, error) {
	s.mu.Lock()
	running := s.running
	message := s.message
	jobFileCount := s.fileCount
	s.mu.Unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	active, err := uow.SearchIndexRepository().FindActive(ctx)
	if err != nil {
		return nil, err
	}

	filesCount := jobFileCount
	if !running {
		count, err := uow.DocumentRepository().Count(ctx, specification.ByStatus{Status: constant.DocumentStatusUploaded})
		if err != nil {
			return nil, err
		}
		filesCount = int(count)
	}

	res := &dto.IndexingStatusResponse{
		IsIndexing:       running,
		Message:          message,
		FilesCount:       filesCount,
		HasKnowledgeBase: active != nil,
	}
	if active != nil {
		res.VectorStoreId = active.ExternalRef
	}
	return res, nil
}

func (s *indexerService) ActiveIndex(ctx context.Context) (*dto.VectorStoreResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	active, err := uow.SearchIndexRepository().FindActive(ctx)
	if err != nil {
		return nil, err
	}
	res := &dto.VectorStoreResponse{
		HasKnowledgeBase: active != nil,
	}
	if active != nil {
		res.VectorStoreId = active.ExternalRef
	}
	return res, nil
}

func (s *indexerService) ActiveIndexRef(ctx context.Context) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	active, err := uow.SearchIndexRepository().FindActive(ctx)
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", nil
	}
	return active.ExternalRef, nil
}

// runBuild executes one build to completion and writes the outcome back into
// the job state. All failures are absorbed here; nothing crosses the async
// boundary back to the trigger caller.
func (s *indexerService) runBuild(ctx context.Context, gen uint64) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Snapshot the registry at build start. Documents changing mid-build are
	// picked up by the coalesced follow-up run, never by this one.
	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByStatus{Status: constant.DocumentStatusUploaded})
	if err != nil {
		s.finish(ctx, gen, 0, fmt.Sprintf("Rebuild failed: cannot read document registry: %v", err))
		return
	}
	fileRefs := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ExternalRef != "" {
			fileRefs = append(fileRefs, doc.ExternalRef)
		}
	}

	s.mu.Lock()
	if gen == s.generation {
		s.fileCount = len(fileRefs)
	}
	s.mu.Unlock()

	if len(fileRefs) == 0 {
		// Nothing to index. The existing active handle, if any, stays untouched.
		s.finish(ctx, gen, 0, "No uploaded documents, knowledge base is empty")
		return
	}

	newRef, err := s.buildWithRetry(ctx, fileRefs)
	if err != nil {
		s.log.Error("indexer", "Index build failed", map[string]interface{}{
			"generation": gen,
			"error":      err.Error(),
		})
		s.finish(ctx, gen, len(fileRefs), fmt.Sprintf("Index build failed: %v", err))
		return
	}

	if err := s.swapActive(ctx, newRef, len(fileRefs)); err != nil {
		// The new index exists externally but we could not record it; drop it
		// so it does not leak, and keep the old one active.
		s.log.Error("indexer", "Failed to persist new index handle", map[string]interface{}{
			"index_ref": newRef,
			"error":     err.Error(),
		})
		if delErr := s.provider.DeleteIndex(ctx, newRef); delErr != nil {
			s.log.Warn("indexer", "Failed to drop orphaned index", map[string]interface{}{
				"index_ref": newRef,
				"error":     delErr.Error(),
			})
		}
		s.finish(ctx, gen, len(fileRefs), fmt.Sprintf("Rebuild failed: cannot persist index handle: %v", err))
		return
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewIndexRebuilt(newRef, gen, len(fileRefs))); err != nil {
			s.log.Warn("indexer", "Failed to publish INDEX_REBUILT event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.finish(ctx, gen, len(fileRefs), fmt.Sprintf("Rebuild finished, %d files indexed", len(fileRefs)))
}

func (s *indexerService) buildWithRetry(ctx context.Context, fileRefs []string) (string, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)

	var newRef string
	err := backoff.Retry(func() error {
		ref, err := s.provider.BuildIndex(ctx, fileRefs)
		if err != nil {
			classified := classifyAssistantError(err)
			if apperror.IsTransient(classified) {
				return classified
			}
			return backoff.Permanent(classified)
		}
		newRef = ref
		return nil
	}, policy)
	if err != nil {
		return "", err
	}
	return newRef, nil
}

// swapActive records the new handle as active and demotes the old one, then
// deletes the old external index. The delete runs after the swap is committed,
// so readers never observe a window with no active index. A delete failure
// flags the old handle instead of rolling the swap back.
func (s *indexerService) swapActive(ctx context.Context, newRef string, fileCount int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	old, err := uow.SearchIndexRepository().FindActive(ctx)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	newHandle := &entity.SearchIndex{
		Id:          uuid.New(),
		ExternalRef: newRef,
		Status:      constant.IndexStatusActive,
		FileCount:   fileCount,
		BuiltAt:     time.Now(),
	}
	if err := uow.SearchIndexRepository().Create(ctx, newHandle); err != nil {
		return err
	}
	if old != nil {
		if err := uow.SearchIndexRepository().UpdateStatus(ctx, old.Id, constant.IndexStatusStale); err != nil {
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if old != nil {
		if err := s.provider.DeleteIndex(ctx, old.ExternalRef); err != nil {
			s.log.Warn("indexer", "Failed to delete replaced index, kept for later cleanup", map[string]interface{}{
				"index_ref": old.ExternalRef,
				"error":     err.Error(),
			})
			cleanupUow := s.uowFactory.NewUnitOfWork(ctx)
			if updErr := cleanupUow.SearchIndexRepository().UpdateStatus(ctx, old.Id, constant.IndexStatusDeleteFailed); updErr != nil {
				s.log.Error("indexer", "Failed to flag replaced index as delete_failed", map[string]interface{}{
					"index_id": old.Id.String(),
					"error":    updErr.Error(),
				})
			}
		} else {
			cleanupUow := s.uowFactory.NewUnitOfWork(ctx)
			if delErr := cleanupUow.SearchIndexRepository().Delete(ctx, old.Id); delErr != nil {
				s.log.Warn("indexer", "Failed to remove replaced index record", map[string]interface{}{
					"index_id": old.Id.String(),
					"error":    delErr.Error(),
				})
			}
		}
	}

	return nil
}

// finish writes the terminal job state and schedules exactly one follow-up run
// when rebuilds were requested while this one was in flight.
func (s *indexerService) finish(ctx context.Context, gen uint64, fileCount int, message string) {
	s.mu.Lock()
	if gen != s.generation {
		// A newer run owns the job state; this completion is stale.
		s.mu.Unlock()
		return
	}
	s.running = false
	s.message = message
	s.fileCount = fileCount
	rerun := s.pendingRerun
	s.pendingRerun = false
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	s.log.Info("indexer", "Rebuild finished", map[string]interface{}{
		"generation": gen,
		"message":    message,
		"elapsed":    elapsed.String(),
		"rerun":      rerun,
	})

	if rerun {
		if _, err := s.RequestRebuild(ctx, "coalesced follow-up"); err != nil {
			s.log.Error("indexer", "Failed to start follow-up rebuild", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
