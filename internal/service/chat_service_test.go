package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"evoblast-be/internal/apperror"
	"evoblast-be/internal/constant"
	"evoblast-be/internal/dto"
	"evoblast-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatForTest(store *memStore, provider *fakeProvider) IChatService {
	factory := newMemFactory(store)
	indexer := NewIndexerService(factory, provider, nil, noopLogger{})
	dedup := memory.NewDedupRepository(time.Minute)
	return NewChatService(factory, provider, indexer, dedup, nil, noopLogger{})
}

func TestSendMessageNewChat(t *testing.T) {
	store := newMemStore()
	store.addActiveIndex("vs-1")
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)

	assert.True(t, res.NewChatCreated)
	assert.Equal(t, "fake reply", res.Message)
	assert.NotEqual(t, uuid.Nil, res.ThreadId)

	history, err := svc.History(ctx, "user-1", res.ThreadId)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[0].Role)
	assert.Equal(t, "hello", history.Messages[0].Content)
	assert.Equal(t, 1, history.Messages[0].SequenceNumber)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history.Messages[1].Role)
	assert.Equal(t, 2, history.Messages[1].SequenceNumber)

	// The turn was bound to the active index.
	provider.mu.Lock()
	require.Len(t, provider.generateCalls, 1)
	assert.Equal(t, "vs-1", provider.generateCalls[0].indexRef)
	provider.mu.Unlock()

	threads, err := svc.ListThreads(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, threads.Total)
	assert.Equal(t, "fake title", threads.Chats[0].Title)
}

func TestSendMessageSecondTurnReusesThread(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "first"})
	require.NoError(t, err)
	require.True(t, first.NewChatCreated)

	second, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{
		Message:  "second",
		ThreadId: &first.ThreadId,
	})
	require.NoError(t, err)
	assert.False(t, second.NewChatCreated)
	assert.Equal(t, first.ThreadId, second.ThreadId)

	history, err := svc.History(ctx, "user-1", first.ThreadId)
	require.NoError(t, err)
	require.Len(t, history.Messages, 4)
	for i, msg := range history.Messages {
		assert.Equal(t, i+1, msg.SequenceNumber)
	}
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[0].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history.Messages[1].Role)
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[2].Role)
	assert.Equal(t, constant.ChatMessageRoleAssistant, history.Messages[3].Role)

	// The second turn saw the first exchange plus its own user message.
	provider.mu.Lock()
	assert.Equal(t, 3, provider.generateCalls[1].historyLen)
	provider.mu.Unlock()
}

func TestSendMessageUnknownThreadFallsBackToNewChat(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	unknown := uuid.New()
	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{
		Message:  "hello",
		ThreadId: &unknown,
	})
	require.NoError(t, err)
	assert.True(t, res.NewChatCreated)
	assert.NotEqual(t, unknown, res.ThreadId)
}

func TestSendMessageDegradedWithoutIndex(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	// No active index: the assistant answers without a knowledge base binding.
	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "fake reply", res.Message)

	provider.mu.Lock()
	require.Len(t, provider.generateCalls, 1)
	assert.Empty(t, provider.generateCalls[0].indexRef)
	provider.mu.Unlock()
}

func TestSendMessageGenerationFailure(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	provider.generateErr = permanentAPIError("model unavailable")
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "hello"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, apperror.IsGeneration(err))

	// The user message stays; no synthetic assistant reply was stored.
	threads, err := svc.ListThreads(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, threads.Total)

	history, err := svc.History(ctx, "user-1", threads.Chats[0].ThreadId)
	require.NoError(t, err)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, constant.ChatMessageRoleUser, history.Messages[0].Role)
}

func TestSendMessageIdempotencyKey(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	req := &dto.SendMessageRequest{Message: "hello", IdempotencyKey: "turn-1"}

	first, err := svc.SendMessage(ctx, "user-1", req)
	require.NoError(t, err)

	// A retry with the same key returns the stored turn without a second exchange.
	retry, err := svc.SendMessage(ctx, "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, first.ThreadId, retry.ThreadId)
	assert.Equal(t, first.Message, retry.Message)
	assert.Equal(t, first.NewChatCreated, retry.NewChatCreated)

	history, err := svc.History(ctx, "user-1", first.ThreadId)
	require.NoError(t, err)
	assert.Len(t, history.Messages, 2)

	provider.mu.Lock()
	assert.Len(t, provider.generateCalls, 1)
	provider.mu.Unlock()
}

func TestConcurrentTurnsGaplessSequence(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	first, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "turn 0"})
	require.NoError(t, err)

	const turns = 10
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{
				Message:  "concurrent turn",
				ThreadId: &first.ThreadId,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := svc.History(ctx, "user-1", first.ThreadId)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2*(turns+1))
	for i, msg := range history.Messages {
		assert.Equal(t, i+1, msg.SequenceNumber, "sequence must be gapless and ascending")
	}
}

func TestHistoryOwnershipMismatch(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "mine"})
	require.NoError(t, err)

	_, err = svc.History(ctx, "user-2", res.ThreadId)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteThread(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: "hello"})
	require.NoError(t, err)

	// A foreign owner cannot delete the thread.
	_, err = svc.DeleteThread(ctx, "user-2", res.ThreadId)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	deleted, err := svc.DeleteThread(ctx, "user-1", res.ThreadId)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = svc.History(ctx, "user-1", res.ThreadId)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	threads, err := svc.ListThreads(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, threads.Total)
}

func TestGenerateTitleFallback(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	provider.titleErr = transientAPIError("title service down")
	svc := newChatForTest(store, provider)
	ctx := context.Background()

	longMessage := "this is a rather long first message that should be truncated for the fallback title"
	res, err := svc.SendMessage(ctx, "user-1", &dto.SendMessageRequest{Message: longMessage})
	require.NoError(t, err)

	threads, err := svc.ListThreads(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, threads.Total)
	assert.Equal(t, longMessage[:fallbackTitleLen]+"...", threads.Chats[0].Title)
	assert.Equal(t, res.ThreadId, threads.Chats[0].ThreadId)
}
