package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel      = "gemini-embedding-001"
	defaultMaxRetries = 3
	baseRetryDelay    = time.Second
	maxRetryDelay     = 10 * time.Second
	taskType          = "SEMANTIC_SIMILARITY"
)

// wait is swapped in tests.
var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder encodes text with a Gemini embedding model.
type Embedder struct {
	models     contentEmbedder
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewEmbedder creates an Embedder configured for the Gemini API backend.
func NewEmbedder(ctx context.Context, apiKey, model string, maxRetries int, logger *zap.Logger) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		models:     client.Models,
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// Encode returns the embedding of text, retrying temporary API failures.
func (e *Embedder) Encode(ctx context.Context, text string) ([]float32, error) {
	if e == nil || e.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	cfg := &genai.EmbedContentConfig{TaskType: taskType}

	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), cfg)
		if err == nil {
			return firstEmbedding(resp)
		}

		lastErr = err
		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == e.maxRetries {
			break
		}

		e.logger.Debug("gemini embed content failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embed content: %w", lastErr)
}

func (e *Embedder) Provider() string { return Provider }

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

func firstEmbedding(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, errors.New("gemini api returned empty response")
	}
	for _, embedding := range resp.Embeddings {
		if embedding != nil && len(embedding.Values) > 0 {
			return embedding.Values, nil
		}
	}
	return nil, errors.New("gemini api returned no embedding values")
}

// retryDelay decides whether err is worth another attempt and how long to wait.
// Quota errors asking for a longer pause than maxRetryDelay are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	if apiErr.Code != http.StatusTooManyRequests && apiErr.Code < http.StatusInternalServerError {
		return 0, false
	}

	if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); m != nil {
		seconds, parseErr := strconv.ParseFloat(m[1], 64)
		if parseErr == nil {
			delay := time.Duration(seconds * float64(time.Second))
			if delay > maxRetryDelay {
				return 0, false
			}
			return delay, true
		}
	}

	delay := baseRetryDelay << (attempt - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay, true
}
