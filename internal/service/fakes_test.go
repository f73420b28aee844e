package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"evoblast-be/internal/constant"
	"evoblast-be/internal/entity"
	"evoblast-be/internal/repository/contract"
	"evoblast-be/internal/repository/specification"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/pkg/assistant"

	"github.com/google/uuid"
)

// --- logger ---

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// --- assistant provider ---

type fakeProvider struct {
	mu sync.Mutex

	buildCalls    int
	buildStarted  chan struct{} // receives one signal per BuildIndex entry, if set
	buildRelease  chan struct{} // BuildIndex blocks until a receive, if set
	buildErr      error
	deleteIdxErr  error
	deletedIdx    []string
	uploadErr     error
	uploadedFiles []string
	deletedFiles  []string
	generateErr   error
	generateReply string
	generateCalls []fakeGenerateCall
	titleErr      error
	title         string
}

type fakeGenerateCall struct {
	historyLen int
	indexRef   string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		generateReply: "fake reply",
		title:         "fake title",
	}
}

func (p *fakeProvider) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uploadErr != nil {
		return "", p.uploadErr
	}
	ref := "file-" + filename
	p.uploadedFiles = append(p.uploadedFiles, ref)
	return ref, nil
}

func (p *fakeProvider) DeleteFile(ctx context.Context, fileRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletedFiles = append(p.deletedFiles, fileRef)
	return nil
}

func (p *fakeProvider) BuildIndex(ctx context.Context, fileRefs []string) (string, error) {
	p.mu.Lock()
	p.buildCalls++
	call := p.buildCalls
	started := p.buildStarted
	release := p.buildRelease
	err := p.buildErr
	p.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("vs-%d", call), nil
}

func (p *fakeProvider) DeleteIndex(ctx context.Context, indexRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteIdxErr != nil {
		return p.deleteIdxErr
	}
	p.deletedIdx = append(p.deletedIdx, indexRef)
	return nil
}

func (p *fakeProvider) Generate(ctx context.Context, history []assistant.Message, indexRef string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateCalls = append(p.generateCalls, fakeGenerateCall{historyLen: len(history), indexRef: indexRef})
	if p.generateErr != nil {
		return "", p.generateErr
	}
	return p.generateReply, nil
}

func (p *fakeProvider) GenerateTitle(ctx context.Context, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleErr != nil {
		return "", p.titleErr
	}
	return p.title, nil
}

func (p *fakeProvider) buildCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildCalls
}

func permanentAPIError(msg string) error {
	return &assistant.APIError{StatusCode: http.StatusBadRequest, Message: msg}
}

func transientAPIError(msg string) error {
	return &assistant.APIError{StatusCode: http.StatusTooManyRequests, Message: msg}
}

// --- in-memory persistence ---

// memStore is a shared in-memory database; every unit of work created from the
// same factory sees the same data. Transactions are emulated with a single
// store-wide mutex, which is enough to give Append the serialization the real
// row lock provides.
type memStore struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*entity.Document
	indexes  map[uuid.UUID]*entity.SearchIndex
	threads  map[uuid.UUID]*entity.ChatThread
	messages map[uuid.UUID][]*entity.ChatMessage
}

func newMemStore() *memStore {
	return &memStore{
		docs:     make(map[uuid.UUID]*entity.Document),
		indexes:  make(map[uuid.UUID]*entity.SearchIndex),
		threads:  make(map[uuid.UUID]*entity.ChatThread),
		messages: make(map[uuid.UUID][]*entity.ChatMessage),
	}
}

func (s *memStore) addDocument(userId, status string) *entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Filename:  "doc.txt",
		FileType:  ".txt",
		Status:    status,
		CreatedAt: time.Now(),
	}
	if status == constant.DocumentStatusUploaded {
		doc.ExternalRef = "file-" + doc.Id.String()
	}
	s.docs[doc.Id] = doc
	return doc
}

func (s *memStore) addActiveIndex(externalRef string) *entity.SearchIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := &entity.SearchIndex{
		Id:          uuid.New(),
		ExternalRef: externalRef,
		Status:      constant.IndexStatusActive,
		BuiltAt:     time.Now(),
	}
	s.indexes[idx.Id] = idx
	return idx
}

func (s *memStore) indexByRef(externalRef string) *entity.SearchIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.indexes {
		if idx.ExternalRef == externalRef {
			clone := *idx
			return &clone
		}
	}
	return nil
}

type memFactory struct {
	store *memStore
}

func newMemFactory(store *memStore) unitofwork.RepositoryFactory {
	return &memFactory{store: store}
}

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{store: f.store}
}

type memUow struct {
	store *memStore
}

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) DocumentRepository() contract.DocumentRepository {
	return &memDocumentRepo{store: u.store}
}

func (u *memUow) SearchIndexRepository() contract.SearchIndexRepository {
	return &memSearchIndexRepo{store: u.store}
}

func (u *memUow) ChatThreadRepository() contract.ChatThreadRepository {
	return &memChatThreadRepo{store: u.store}
}

func (u *memUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &memChatMessageRepo{store: u.store}
}

// Specifications run against gorm in production; the fakes only understand the
// handful used by the services.
func matchesDocument(doc *entity.Document, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if doc.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if doc.UserId != s.UserID {
				return false
			}
		case specification.ByStatus:
			if doc.Status != s.Status {
				return false
			}
		}
	}
	return true
}

type memDocumentRepo struct {
	store *memStore
}

func (r *memDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *doc
	r.store.docs[doc.Id] = &clone
	return nil
}

func (r *memDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	return r.Create(ctx, doc)
}

func (r *memDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.docs, id)
	return nil
}

func (r *memDocumentRepo) DeleteAll(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := int64(len(r.store.docs))
	r.store.docs = make(map[uuid.UUID]*entity.Document)
	return count, nil
}

func (r *memDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, doc := range r.store.docs {
		if matchesDocument(doc, specs) {
			clone := *doc
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Document
	for _, doc := range r.store.docs {
		if matchesDocument(doc, specs) {
			clone := *doc
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	docs, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

type memSearchIndexRepo struct {
	store *memStore
}

func (r *memSearchIndexRepo) Create(ctx context.Context, index *entity.SearchIndex) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *index
	r.store.indexes[index.Id] = &clone
	return nil
}

func (r *memSearchIndexRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if idx, ok := r.store.indexes[id]; ok {
		idx.Status = status
	}
	return nil
}

func (r *memSearchIndexRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.indexes, id)
	return nil
}

func (r *memSearchIndexRepo) FindActive(ctx context.Context) (*entity.SearchIndex, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, idx := range r.store.indexes {
		if idx.Status == constant.IndexStatusActive {
			clone := *idx
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memSearchIndexRepo) FindStale(ctx context.Context) ([]*entity.SearchIndex, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.SearchIndex
	for _, idx := range r.store.indexes {
		if idx.Status == constant.IndexStatusStale || idx.Status == constant.IndexStatusDeleteFailed {
			clone := *idx
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memChatThreadRepo struct {
	store *memStore
}

func matchesThread(thread *entity.ChatThread, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if thread.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if thread.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func (r *memChatThreadRepo) Create(ctx context.Context, thread *entity.ChatThread) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *thread
	r.store.threads[thread.Id] = &clone
	return nil
}

func (r *memChatThreadRepo) Update(ctx context.Context, thread *entity.ChatThread) error {
	return r.Create(ctx, thread)
}

func (r *memChatThreadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.threads, id)
	return nil
}

func (r *memChatThreadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatThread, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, thread := range r.store.threads {
		if matchesThread(thread, specs) {
			clone := *thread
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memChatThreadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatThread, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatThread
	for _, thread := range r.store.threads {
		if matchesThread(thread, specs) {
			clone := *thread
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActiveAt.After(out[j].LastActiveAt) })
	return out, nil
}

type memChatMessageRepo struct {
	store *memStore
}

func (r *memChatMessageRepo) Append(ctx context.Context, msg *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	next := 1
	for _, existing := range r.store.messages[msg.ThreadId] {
		if existing.SequenceNumber >= next {
			next = existing.SequenceNumber + 1
		}
	}
	msg.SequenceNumber = next
	clone := *msg
	r.store.messages[msg.ThreadId] = append(r.store.messages[msg.ThreadId], &clone)
	return nil
}

func (r *memChatMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var threadId uuid.UUID
	for _, spec := range specs {
		if s, ok := spec.(specification.ByThreadID); ok {
			threadId = s.ThreadID
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	msgs := r.store.messages[threadId]
	out := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		clone := *msg
		out[i] = &clone
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (r *memChatMessageRepo) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.messages, threadId)
	return nil
}

func (r *memChatMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	msgs, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(msgs)), nil
}
