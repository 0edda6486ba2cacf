package ollama

import (
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/bioreason/hypothesis/internal/util"
	"github.com/bioreason/hypothesis/pkg/ai"
)

// ProviderOllamaClient implements ai.ProviderClient using a locally-hosted
// Ollama server.
type ProviderOllamaClient struct {
	generationModel string
	critiqueModel   string

	maxRetries int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewProviderOllamaClientParams configures a new ProviderOllamaClient.
type NewProviderOllamaClientParams struct {
	GenerationModel string
	CritiqueModel   string

	BaseURL    string
	MaxRetries int
}

// NewProviderOllamaClient creates a provider client connected to the Ollama
// server at BaseURL (the Ollama default when empty).
func NewProviderOllamaClient(params NewProviderOllamaClientParams) (*ProviderOllamaClient, error) {
	var client *api.Client
	if params.BaseURL != "" {
		u, err := url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
		client = api.NewClient(u, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &ProviderOllamaClient{
		generationModel: params.GenerationModel,
		critiqueModel:   params.CritiqueModel,
		maxRetries:      maxRetries,
		Client:          client,
	}, nil
}

// wrapRetryable converts throttling status errors into util.RetryableError so
// the backoff helper retries them.
func wrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return &util.RetryableError{Err: err}
	}
	return err
}

func (c *ProviderOllamaClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}

// ResetMetrics clears the accumulated model metrics.
func (c *ProviderOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated model metrics.
func (c *ProviderOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
