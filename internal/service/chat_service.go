package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"evoblast-be/internal/apperror"
	"evoblast-be/internal/constant"
	"evoblast-be/internal/dto"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/pkg/logger"
	"evoblast-be/internal/repository/contract"
	"evoblast-be/internal/repository/specification"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/pkg/assistant"
	"evoblast-be/pkg/events"
	pkgNats "evoblast-be/pkg/nats"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	generateTimeout  = 2 * time.Minute
	titleTimeout     = 15 * time.Second
	fallbackTitleLen = 40
)

type IChatService interface {
	SendMessage(ctx context.Context, userId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ListThreads(ctx context.Context, userId string) (*dto.UserChatsResponse, error)
	History(ctx context.Context, userId string, threadId uuid.UUID) (*dto.ChatHistoryResponse, error)
	DeleteThread(ctx context.Context, userId string, threadId uuid.UUID) (*dto.DeleteChatResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   assistant.Provider
	indexer    IIndexerService
	dedup      contract.DedupRepository
	natsPub    *pkgNats.Publisher
	log        logger.ILogger

	// One lock per thread id so concurrent turns on the same thread serialize
	// without cross-thread contention.
	locksMu     sync.Mutex
	threadLocks map[uuid.UUID]*sync.Mutex
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	provider assistant.Provider,
	indexer IIndexerService,
	dedup contract.DedupRepository,
	natsPub *pkgNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		provider:    provider,
		indexer:     indexer,
		dedup:       dedup,
		natsPub:     natsPub,
		log:         log,
		threadLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *chatService) SendMessage(ctx context.Context, userId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	// A client retry with the same idempotency key returns the stored turn
	// instead of producing a duplicate exchange.
	dedupKey := ""
	if req.IdempotencyKey != "" {
		dedupKey = userId + ":" + req.IdempotencyKey
		if turn, found, err := s.dedup.Get(ctx, dedupKey); err == nil && found {
			threadId, parseErr := uuid.Parse(turn.ThreadId)
			if parseErr == nil {
				return &dto.SendMessageResponse{
					Message:        turn.Reply,
					ThreadId:       threadId,
					NewChatCreated: turn.NewChatCreated,
				}, nil
			}
		} else if err != nil {
			s.log.Warn("chat", "Dedup lookup failed, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	thread, newChatCreated, err := s.resolveThread(ctx, userId, req)
	if err != nil {
		return nil, err
	}

	lock := s.threadLock(thread.Id)
	lock.Lock()
	defer lock.Unlock()

	// No active index is a deliberate degraded mode: the assistant answers
	// from general knowledge instead of the knowledge base.
	indexRef, err := s.indexer.ActiveIndexRef(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, thread.Id)
	if err != nil {
		return nil, err
	}

	userMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		ThreadId:  thread.Id,
		Role:      constant.ChatMessageRoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}
	if err := s.appendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	providerHistory := make([]assistant.Message, 0, len(history)+1)
	for _, msg := range history {
		providerHistory = append(providerHistory, assistant.Message{Role: msg.Role, Content: msg.Content})
	}
	providerHistory = append(providerHistory, assistant.Message{Role: userMsg.Role, Content: userMsg.Content})

	reply, err := s.generateWithRetry(ctx, providerHistory, indexRef)
	if err != nil {
		// The user message stays persisted; no synthetic assistant reply is stored.
		return nil, apperror.NewGeneration(err)
	}

	assistantMsg := &entity.ChatMessage{
		Id:        uuid.New(),
		ThreadId:  thread.Id,
		Role:      constant.ChatMessageRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}
	if err := s.appendMessage(ctx, assistantMsg); err != nil {
		return nil, err
	}

	thread.BoundIndexId = indexRef
	thread.LastActiveAt = time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatThreadRepository().Update(ctx, thread); err != nil {
		s.log.Error("chat", "Failed to update thread binding", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
	}

	if dedupKey != "" {
		if err := s.dedup.Save(ctx, dedupKey, &contract.CompletedTurn{
			ThreadId:       thread.Id.String(),
			Reply:          reply,
			NewChatCreated: newChatCreated,
		}); err != nil {
			s.log.Warn("chat", "Failed to store completed turn for dedup", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return &dto.SendMessageResponse{
		Message:        reply,
		ThreadId:       thread.Id,
		NewChatCreated: newChatCreated,
	}, nil
}

// resolveThread returns an existing owned thread or creates a new one. An
// unknown or foreign thread id falls back to creating a fresh thread rather
// than failing the turn.
func (s *chatService) resolveThread(ctx context.Context, userId string, req *dto.SendMessageRequest) (*entity.ChatThread, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if req.ThreadId != nil {
		thread, err := uow.ChatThreadRepository().FindOne(ctx,
			specification.ByID{ID: *req.ThreadId},
			specification.OwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, false, err
		}
		if thread != nil {
			return thread, false, nil
		}
	}

	now := time.Now()
	thread := &entity.ChatThread{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        s.generateTitle(ctx, req.Message),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := uow.ChatThreadRepository().Create(ctx, thread); err != nil {
		return nil, false, err
	}

	if s.natsPub != nil {
		if err := s.natsPub.Publish(ctx, events.NewChatThreadCreated(thread.Id.String(), userId, thread.Title)); err != nil {
			s.log.Warn("chat", "Failed to publish CHAT_THREAD_CREATED event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return thread, true, nil
}

// generateTitle asks the assistant for a short thread title; on failure the
// first words of the message serve as a fallback.
func (s *chatService) generateTitle(ctx context.Context, firstMessage string) string {
	titleCtx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	title, err := s.provider.GenerateTitle(titleCtx, firstMessage)
	if err == nil && title != "" {
		return title
	}
	if err != nil {
		s.log.Warn("chat", "Title generation failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
	}

	fallback := strings.TrimSpace(firstMessage)
	if len(fallback) > fallbackTitleLen {
		fallback = fallback[:fallbackTitleLen] + "..."
	}
	return fallback
}

func (s *chatService) generateWithRetry(ctx context.Context, history []assistant.Message, indexRef string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), genCtx)

	var reply string
	err := backoff.Retry(func() error {
		res, err := s.provider.Generate(genCtx, history, indexRef)
		if err != nil {
			classified := classifyAssistantError(err)
			if apperror.IsTransient(classified) {
				return classified
			}
			return backoff.Permanent(classified)
		}
		reply = res
		return nil
	}, policy)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// appendMessage persists one message inside a transaction so the sequence
// number assignment cannot collide with a concurrent append.
func (s *chatService) appendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().Append(ctx, msg); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatService) loadHistory(ctx context.Context, threadId uuid.UUID) ([]*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "sequence_number"},
	)
}

func (s *chatService) ListThreads(ctx context.Context, userId string) (*dto.UserChatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	threads, err := uow.ChatThreadRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_active_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.UserChatsResponse{
		UserId: userId,
		Chats:  make([]*dto.ThreadInfoResponse, 0, len(threads)),
		Total:  len(threads),
	}
	for _, thread := range threads {
		res.Chats = append(res.Chats, &dto.ThreadInfoResponse{
			ThreadId:     thread.Id,
			Title:        thread.Title,
			CreatedAt:    thread.CreatedAt,
			LastActiveAt: thread.LastActiveAt,
		})
	}
	return res, nil
}

func (s *chatService) History(ctx context.Context, userId string, threadId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	if _, err := s.findOwnedThread(ctx, userId, threadId); err != nil {
		return nil, err
	}

	messages, err := s.loadHistory(ctx, threadId)
	if err != nil {
		return nil, err
	}

	res := &dto.ChatHistoryResponse{
		ThreadId: threadId,
		Messages: make([]*dto.MessageInfoResponse, 0, len(messages)),
		Total:    len(messages),
	}
	for _, msg := range messages {
		res.Messages = append(res.Messages, &dto.MessageInfoResponse{
			Role:           msg.Role,
			Content:        msg.Content,
			SequenceNumber: msg.SequenceNumber,
			CreatedAt:      msg.CreatedAt,
		})
	}
	return res, nil
}

func (s *chatService) DeleteThread(ctx context.Context, userId string, threadId uuid.UUID) (*dto.DeleteChatResponse, error) {
	if _, err := s.findOwnedThread(ctx, userId, threadId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByThreadId(ctx, threadId); err != nil {
		return nil, err
	}
	if err := uow.ChatThreadRepository().Delete(ctx, threadId); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.locksMu.Lock()
	delete(s.threadLocks, threadId)
	s.locksMu.Unlock()

	return &dto.DeleteChatResponse{
		ThreadId: threadId,
		Deleted:  true,
	}, nil
}

func (s *chatService) findOwnedThread(ctx context.Context, userId string, threadId uuid.UUID) (*entity.ChatThread, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ChatThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperror.NewNotFound("chat", threadId.String())
	}
	return thread, nil
}

func (s *chatService) threadLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if lock, ok := s.threadLocks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.threadLocks[id] = lock
	return lock
}
