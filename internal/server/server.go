package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"

	"github.com/bioreason/hypothesis/internal/queue"
	mid "github.com/bioreason/hypothesis/internal/server/middleware"
	"github.com/bioreason/hypothesis/internal/util"
	"github.com/bioreason/hypothesis/pkg/ai"
	oai "github.com/bioreason/hypothesis/pkg/ai/ollama"
	gai "github.com/bioreason/hypothesis/pkg/ai/openai"
	"github.com/bioreason/hypothesis/pkg/literature"
	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewProviderFromEnv builds the language-model client selected by
// AI_ADAPTER.
func NewProviderFromEnv() ai.ProviderClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewProviderOllamaClient(oai.NewProviderOllamaClientParams{
			GenerationModel: util.GetEnv("AI_GENERATION_MODEL"),
			CritiqueModel:   util.GetEnv("AI_CRITIQUE_MODEL"),
			BaseURL:         util.GetEnv("AI_CHAT_URL"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewProviderOpenAIClient(gai.NewProviderOpenAIClientParams{
			GenerationModel: util.GetEnv("AI_GENERATION_MODEL"),
			CritiqueModel:   util.GetEnv("AI_CRITIQUE_MODEL"),
			ChatURL:         util.GetEnv("AI_CHAT_URL"),
			ChatKey:         util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

// LiteratureSourcesFromEnv builds the configured literature search
// backends.
func LiteratureSourcesFromEnv() []literature.Source {
	sources := []literature.Source{
		literature.NewPubMedSource(),
		literature.NewArxivSource(),
		literature.NewSemanticScholarSource(util.GetEnv("S2_API_KEY")),
	}
	return sources
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient := NewProviderFromEnv()

	runner := workflow.NewRunner(workflow.NewRunnerParams{
		Provider: aiClient,
		Sources:  LiteratureSourcesFromEnv(),
	})

	// The broker is optional: without it every run executes in-process.
	var ch *amqp091.Channel
	if util.GetEnv("RABBITMQ_HOST") != "" {
		que := queue.Init()
		defer que.Close()

		var err error
		ch, err = que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to declare queues", "err", err)
		}
	}

	e.Use(mid.AppContextMiddleware(&mid.App{
		Queue:    ch,
		Runner:   runner,
		AiClient: aiClient,
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
