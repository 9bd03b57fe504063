package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/prodpilot/prodpilot/internal/controllers"
	"github.com/prodpilot/prodpilot/internal/version"
)

type HTTPServerDependencies struct {
	AuthController    *controllers.AuthController
	ToolsController   *controllers.ToolsController
	ContextController *controllers.ContextController
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "prodpilot",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "prodpilot",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth := router.Group("/auth")
	auth.Post("/disconnect", deps.AuthController.Disconnect)
	auth.Get("/status", deps.AuthController.Status)
	auth.Post("/save-token", deps.AuthController.SaveToken)
	auth.Get("/:provider", deps.AuthController.Connect)
	auth.Get("/:provider/callback", deps.AuthController.Callback)

	api := router.Group("/api")

	api.Post("/jira", deps.ToolsController.CreateJiraTicket)
	api.Get("/jira", deps.ToolsController.SearchJiraTickets)
	api.Put("/jira", deps.ToolsController.UpdateJiraTicket)

	api.Post("/slack", deps.ToolsController.PostSlackMessage)

	api.Post("/calendar", deps.ToolsController.CreateCalendarEvent)
	api.Get("/calendar", deps.ToolsController.ListCalendarEvents)
	api.Put("/calendar", deps.ToolsController.CheckCalendarAvailability)

	api.Post("/github", deps.ToolsController.AnalyzeGitHubFeature)

	api.Post("/connection-test", deps.ToolsController.TestConnection)

	contextGroup := api.Group("/context")
	contextGroup.Post("/feedback", deps.ContextController.SetFeedback)
	contextGroup.Get("/feedback", deps.ContextController.GetFeedback)
	contextGroup.Delete("/feedback", deps.ContextController.ClearFeedback)
	contextGroup.Post("/product-doc", deps.ContextController.SetProductDoc)
	contextGroup.Get("/product-doc", deps.ContextController.GetProductDoc)
	contextGroup.Delete("/product-doc", deps.ContextController.ClearProductDoc)

	return router
}
