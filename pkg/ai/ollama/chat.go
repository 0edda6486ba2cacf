package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"

	"github.com/bioreason/hypothesis/internal/util"
	"github.com/bioreason/hypothesis/pkg/ai"
)

const backoffBase = 500 * time.Millisecond

// contextWindowFor sizes num_ctx for long prompts. Ollama defaults to a small
// context window, which silently truncates large subgraph narratives.
func contextWindowFor(prompt string) (int, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0, err
	}
	tokens := len(enc.Encode(prompt, nil, nil)) + 512
	if tokens <= 4096 {
		return 0, nil
	}
	return tokens, nil
}

func (c *ProviderOllamaClient) chatRequest(
	messages []api.Message,
	options ai.GenerateOptions,
) (*api.ChatRequest, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	var promptLen string
	for _, m := range messages {
		promptLen += m.Content
	}
	numCtx, err := contextWindowFor(promptLen)
	if err != nil {
		return nil, err
	}
	if numCtx > 0 {
		req.Options["num_ctx"] = numCtx
	}

	return req, nil
}

func (c *ProviderOllamaClient) run(ctx context.Context, req *api.ChatRequest) (string, error) {
	type chatResult struct {
		content string
		metrics api.Metrics
	}

	result, err := util.RetryBackoff(ctx, c.maxRetries, backoffBase,
		func(ctx context.Context) (chatResult, error) {
			var res chatResult
			err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
				res.content += cr.Message.Content
				if cr.Done {
					res.metrics = cr.Metrics
				}
				return nil
			})
			return res, wrapRetryable(err)
		})
	if err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  result.metrics.PromptEvalCount,
		OutputTokens: result.metrics.EvalCount,
		TotalTokens:  result.metrics.PromptEvalCount + result.metrics.EvalCount,
		DurationMs:   result.metrics.TotalDuration.Milliseconds(),
	})

	return result.content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *ProviderOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.generationModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	messages := []api.Message{}
	for _, sp := range options.SystemPrompts {
		messages = append(messages, api.Message{Role: "system", Content: sp})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	req, err := c.chatRequest(messages, options)
	if err != nil {
		return "", err
	}
	return c.run(ctx, req)
}

// GenerateCompletionWithFormat enforces a JSON schema and unmarshals into out.
func (c *ProviderOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.critiqueModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	messages := []api.Message{}
	for _, sp := range options.SystemPrompts {
		messages = append(messages, api.Message{Role: "system", Content: sp})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	req, err := c.chatRequest(messages, options)
	if err != nil {
		return err
	}
	req.Format = json.RawMessage(formatBytes)

	raw, err := c.run(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(raw, out)
}

// GenerateChat sends a multi-turn conversation and returns the reply.
func (c *ProviderOllamaClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.generationModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []api.Message{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Message})
	}

	req, err := c.chatRequest(msgs, options)
	if err != nil {
		return "", err
	}
	return c.run(ctx, req)
}

// GenerateChatStream sends a multi-turn conversation and streams the reply
// token-by-token. The channel is closed when the stream ends or the context
// is canceled.
func (c *ProviderOllamaClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := ai.GenerateOptions{
		Model:       c.generationModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []api.Message{}
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	for _, m := range messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Message})
	}

	req, err := c.chatRequest(msgs, options)
	if err != nil {
		return nil, err
	}
	stream := true
	req.Stream = &stream

	contentChan := make(chan ai.StreamEvent, 10)
	start := time.Now()

	go func() {
		defer close(contentChan)

		var final api.Metrics
		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			if cr.Message.Content != "" {
				select {
				case contentChan <- ai.StreamEvent{Type: "content", Content: cr.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if cr.Done {
				final = cr.Metrics
			}
			return nil
		})
		if err != nil {
			return
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  final.PromptEvalCount,
			OutputTokens: final.EvalCount,
			TotalTokens:  final.PromptEvalCount + final.EvalCount,
			DurationMs:   time.Since(start).Milliseconds(),
		})
	}()

	return contentChan, nil
}
