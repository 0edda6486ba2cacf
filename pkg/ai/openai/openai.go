package openai

import (
	"errors"
	"net/http"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/bioreason/hypothesis/internal/util"
	"github.com/bioreason/hypothesis/pkg/ai"
)

// ProviderOpenAIClient implements ai.ProviderClient against an OpenAI-compatible
// chat completion endpoint.
type ProviderOpenAIClient struct {
	generationModel string
	critiqueModel   string

	chatURL string
	chatKey string

	maxRetries int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewProviderOpenAIClientParams configures a new ProviderOpenAIClient.
//
// GenerationModel is used for hypothesis generation and assembly.
// CritiqueModel is used for structured critique output.
// ChatURL overrides the API base URL (empty uses the OpenAI default).
type NewProviderOpenAIClientParams struct {
	GenerationModel string
	CritiqueModel   string

	ChatURL string
	ChatKey string

	MaxRetries int
}

// NewProviderOpenAIClient creates a provider client for the configured
// chat endpoint. Rate-limited requests are retried with exponential backoff
// up to MaxRetries attempts.
func NewProviderOpenAIClient(params NewProviderOpenAIClientParams) *ProviderOpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(params.ChatKey),
	}
	if params.ChatURL != "" {
		opts = append(opts, option.WithBaseURL(params.ChatURL))
	}
	client := openai.NewClient(opts...)

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &ProviderOpenAIClient{
		generationModel: params.GenerationModel,
		critiqueModel:   params.CritiqueModel,
		chatURL:         params.ChatURL,
		chatKey:         params.ChatKey,
		maxRetries:      maxRetries,
		ChatClient:      &client,
	}
}

// wrapRetryable converts rate-limit API errors into util.RetryableError so the
// backoff helper retries them and surfaces everything else immediately.
func wrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &util.RetryableError{Err: err}
	}
	return err
}

func (c *ProviderOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}

// ResetMetrics clears the accumulated model metrics.
func (c *ProviderOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated model metrics.
func (c *ProviderOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
