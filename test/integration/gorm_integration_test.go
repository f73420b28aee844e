package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"evoblast-be/internal/constant"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/repository/specification"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.SearchIndexRepository())
	assert.NotNil(t, uow.ChatThreadRepository())
	assert.NotNil(t, uow.ChatMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Thread And Message Sequence", func(t *testing.T) {
		ctx := context.Background()
		userId := "integration-" + uuid.New().String()

		thread := &entity.ChatThread{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        "integration thread",
			CreatedAt:    time.Now(),
			LastActiveAt: time.Now(),
		}
		require.NoError(t, uow.ChatThreadRepository().Create(ctx, thread))
		defer func() {
			_ = uow.ChatMessageRepository().DeleteByThreadId(ctx, thread.Id)
			_ = uow.ChatThreadRepository().Delete(ctx, thread.Id)
		}()

		// Two appends in one transaction must come out 1, 2.
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		first := &entity.ChatMessage{
			Id:        uuid.New(),
			ThreadId:  thread.Id,
			Role:      constant.ChatMessageRoleUser,
			Content:   "hello",
			CreatedAt: time.Now(),
		}
		require.NoError(t, txUow.ChatMessageRepository().Append(ctx, first))

		second := &entity.ChatMessage{
			Id:        uuid.New(),
			ThreadId:  thread.Id,
			Role:      constant.ChatMessageRoleAssistant,
			Content:   "hi there",
			CreatedAt: time.Now(),
		}
		require.NoError(t, txUow.ChatMessageRepository().Append(ctx, second))
		require.NoError(t, txUow.Commit())

		assert.Equal(t, 1, first.SequenceNumber)
		assert.Equal(t, 2, second.SequenceNumber)

		messages, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByThreadID{ThreadID: thread.Id},
			specification.OrderBy{Field: "sequence_number"},
		)
		require.NoError(t, err)
		assert.Len(t, messages, 2)
	})
}
