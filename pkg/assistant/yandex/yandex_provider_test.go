package yandex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"evoblast-be/pkg/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(url string) *YandexProvider {
	return NewYandexProvider(url, "test-key", "folder-1", "model", "title-model", "be helpful")
}

func TestUploadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files", r.URL.Path)
		require.Equal(t, "Api-Key test-key", r.Header.Get("Authorization"))
		require.Equal(t, "folder-1", r.Header.Get("x-folder-id"))

		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "assistants", r.FormValue("purpose"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "doc.txt", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-123"})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	ref, err := p.UploadFile(context.Background(), "doc.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "file-123", ref)
}

func TestBuildIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vector_stores", r.URL.Path)

		var req createVectorStoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"f-1", "f-2"}, req.FileIds)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "vs-9", "status": "completed"})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	ref, err := p.BuildIndex(context.Background(), []string{"f-1", "f-2"})
	require.NoError(t, err)
	assert.Equal(t, "vs-9", ref)
}

func TestGenerateBindsIndexAndStripsAsterisks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "vs-9", req.SearchIndexId)
		require.NotEmpty(t, req.Messages)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be helpful", req.Messages[0].Content)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "**bold** answer"}},
			},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	reply, err := p.Generate(context.Background(), []assistant.Message{{Role: "user", Content: "hi"}}, "vs-9")
	require.NoError(t, err)
	assert.Equal(t, "bold answer", reply)
}

func TestGenerateTitleTrimsQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "title-model", req.Model)
		assert.Empty(t, req.SearchIndexId)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `"pricing question"`}},
			},
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	title, err := p.GenerateTitle(context.Background(), "how much does it cost?")
	require.NoError(t, err)
	assert.Equal(t, "pricing question", title)
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"timeout", http.StatusRequestTimeout, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]string{"message": "boom"},
				})
			}))
			defer srv.Close()

			p := newTestProvider(srv.URL)
			_, err := p.BuildIndex(context.Background(), []string{"f-1"})
			require.Error(t, err)

			var apiErr *assistant.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
			assert.Equal(t, tt.transient, apiErr.Transient())
		})
	}
}

func TestDeleteIndex(t *testing.T) {
	deleted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/vector_stores/vs-9", r.URL.Path)
		deleted = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	require.NoError(t, p.DeleteIndex(context.Background(), "vs-9"))
	assert.True(t, deleted)
}
