package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/memostream/memostream-api/pkg/config"
	appErrors "github.com/memostream/memostream-api/pkg/errors"
)

const paraphraseSystemPrompt = "You are a paraphrasing assistant. Your task is to rewrite the given text while preserving the original meaning, tone, and key information. Provide only the paraphrased version without any additional comments or explanations."

// ParaphraseService calls the external text-rewriting service. The
// integration is fully isolated: its failures surface as
// EXTERNAL_SERVICE errors and never touch memo state.
type ParaphraseService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewParaphraseService constructs the service.
func NewParaphraseService(cfg config.ParaphraseConfig, logger *zap.Logger) *ParaphraseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParaphraseService{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type paraphraseChatRequest struct {
	Model       string                  `json:"model"`
	Messages    []paraphraseChatMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens"`
	Temperature float64                 `json:"temperature"`
}

type paraphraseChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type paraphraseChatResponse struct {
	Message struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Paraphrase rewrites the given text via the chat endpoint.
func (s *ParaphraseService) Paraphrase(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "text is required")
	}
	if s.apiKey == "" {
		return "", appErrors.Clone(appErrors.ErrExternalService, "paraphrase service is not configured")
	}

	payload, err := json.Marshal(paraphraseChatRequest{
		Model: s.model,
		Messages: []paraphraseChatMessage{
			{Role: "system", Content: paraphraseSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Please paraphrase the following text:\n\n%s", text)},
		},
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode paraphrase request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build paraphrase request")
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "paraphrase request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to read paraphrase response")
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("paraphrase service returned non-OK status",
			zap.Int("status", resp.StatusCode),
		)
		return "", appErrors.Clone(appErrors.ErrExternalService, fmt.Sprintf("paraphrase request failed with status %d", resp.StatusCode))
	}

	var chatResp paraphraseChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to decode paraphrase response")
	}

	for _, part := range chatResp.Message.Content {
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			return trimmed, nil
		}
	}

	return "", appErrors.Clone(appErrors.ErrExternalService, "no paraphrase generated")
}
