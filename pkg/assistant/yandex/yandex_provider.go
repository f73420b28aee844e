package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"evoblast-be/pkg/assistant"
)

// YandexProvider talks to the Yandex Cloud AI OpenAI-compatible REST API:
// files and vector stores for the knowledge base, chat completions for replies.
type YandexProvider struct {
	BaseURL     string
	APIKey      string
	FolderID    string
	Model       string
	TitleModel  string
	Instruction string
	Client      *http.Client
}

// Ensure YandexProvider implements Provider
var _ assistant.Provider = &YandexProvider{}

func NewYandexProvider(baseURL, apiKey, folderID, model, titleModel, instruction string) *YandexProvider {
	return &YandexProvider{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		FolderID:    folderID,
		Model:       model,
		TitleModel:  titleModel,
		Instruction: instruction,
		Client: &http.Client{
			Timeout: 180 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type uploadFileResponse struct {
	Id string `json:"id"`
}

type createVectorStoreRequest struct {
	FileIds []string `json:"file_ids"`
	Name    string   `json:"name,omitempty"`
}

type createVectorStoreResponse struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model         string        `json:"model"`
	Messages      []chatMessage `json:"messages"`
	SearchIndexId string        `json:"search_index_id,omitempty"`
	Temperature   float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// --- Interface Implementation ---

func (p *YandexProvider) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p.setAuth(req)

	var res uploadFileResponse
	if err := p.do(req, &res); err != nil {
		return "", err
	}
	return res.Id, nil
}

func (p *YandexProvider) DeleteFile(ctx context.Context, fileRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.BaseURL+"/files/"+fileRef, nil)
	if err != nil {
		return err
	}
	p.setAuth(req)
	return p.do(req, nil)
}

func (p *YandexProvider) BuildIndex(ctx context.Context, fileRefs []string) (string, error) {
	payload := createVectorStoreRequest{
		FileIds: fileRefs,
		Name:    fmt.Sprintf("kb-%d", time.Now().Unix()),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/vector_stores", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	p.setAuth(req)

	var res createVectorStoreResponse
	if err := p.do(req, &res); err != nil {
		return "", err
	}
	return res.Id, nil
}

func (p *YandexProvider) DeleteIndex(ctx context.Context, indexRef string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.BaseURL+"/vector_stores/"+indexRef, nil)
	if err != nil {
		return err
	}
	p.setAuth(req)
	return p.do(req, nil)
}

func (p *YandexProvider) Generate(ctx context.Context, history []assistant.Message, indexRef string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	messages = append(messages, chatMessage{
		Role:    "system",
		Content: p.Instruction,
	})
	for _, msg := range history {
		messages = append(messages, chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	payload := chatCompletionRequest{
		Model:         p.Model,
		Messages:      messages,
		SearchIndexId: indexRef,
	}
	reply, err := p.complete(ctx, payload)
	if err != nil {
		return "", err
	}
	// The web client renders [br] markers itself; bare asterisks break its markup.
	return strings.ReplaceAll(reply, "*", ""), nil
}

func (p *YandexProvider) GenerateTitle(ctx context.Context, message string) (string, error) {
	payload := chatCompletionRequest{
		Model: p.TitleModel,
		Messages: []chatMessage{
			{Role: "user", Content: message},
		},
		Temperature: 0.3,
	}
	title, err := p.complete(ctx, payload)
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(title), `"'«»`)
	return title, nil
}

func (p *YandexProvider) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	p.setAuth(req)

	var res chatCompletionResponse
	if err := p.do(req, &res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", &assistant.APIError{StatusCode: http.StatusBadGateway, Message: "empty completion response"}
	}
	return res.Choices[0].Message.Content, nil
}

func (p *YandexProvider) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "Api-Key "+p.APIKey)
	if p.FolderID != "" {
		req.Header.Set("x-folder-id", p.FolderID)
	}
}

func (p *YandexProvider) do(req *http.Request, out interface{}) error {
	resp, err := p.Client.Do(req)
	if err != nil {
		// Network errors and timeouts are reported as retryable.
		return &assistant.APIError{StatusCode: http.StatusGatewayTimeout, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &assistant.APIError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiErrorResponse
		msg := string(raw)
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return &assistant.APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
