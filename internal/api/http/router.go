package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/relay-service/internal/api/http/handlers"
	"github.com/spec-kit/relay-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Slack         *handlers.SlackHandler
	GitHub        *handlers.GitHubHandler
	Jira          *handlers.JiraHandler
	Transcript    *handlers.TranscriptHandler
	TrackerTokens *auth.TrackerTokenMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	webhooks := app.Group("/webhooks")
	webhooks.Post("/slack", cfg.Slack.Events)
	webhooks.Post("/github", cfg.GitHub.Events)
	webhooks.Post("/jira", cfg.TrackerTokens.Handle, cfg.Jira.Events)
	webhooks.Post("/transcript", cfg.Transcript.Submit)
}
