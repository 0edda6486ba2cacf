package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/bioreason/hypothesis/pkg/ai"
	"github.com/bioreason/hypothesis/pkg/workflow"
)

// App holds the shared collaborators handlers reach through the request
// context. Queue is nil when the server runs without a message broker; runs
// then execute in-process.
type App struct {
	Queue    *amqp091.Channel
	Runner   *workflow.Runner
	AiClient ai.ProviderClient
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{
				Context: c,
				App:     app,
			}
			return next(cc)
		}
	}
}
