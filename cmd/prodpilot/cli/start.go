package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prodpilot/prodpilot/internal/controllers"
	"github.com/prodpilot/prodpilot/internal/managers"
	"github.com/prodpilot/prodpilot/internal/server"
	"github.com/prodpilot/prodpilot/internal/vault"
	"github.com/prodpilot/prodpilot/internal/version"
)

func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the prodpilot service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}
}

func runStart() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cipher, err := vault.NewCipher(cfg.TokenEncryptionKey)
	if err != nil {
		return err
	}
	store := vault.NewStore(cipher)
	refreshes := managers.NewRefreshGroup()

	resolvers := controllers.Resolvers{
		Jira: managers.NewJiraCredentialManager(managers.JiraCredentialManagerDependencies{
			Store:     store,
			Config:    cfg.Jira,
			Refreshes: refreshes,
		}),
		Slack: managers.NewSlackCredentialManager(managers.SlackCredentialManagerDependencies{
			Store:  store,
			Config: cfg.Slack,
		}),
		Google: managers.NewGoogleCredentialManager(managers.GoogleCredentialManagerDependencies{
			Store:     store,
			Config:    cfg.Google,
			Refreshes: refreshes,
		}),
		GitHub: managers.NewGitHubCredentialManager(managers.GitHubCredentialManagerDependencies{
			Store:  store,
			Config: cfg.GitHub,
		}),
	}

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		AuthController: controllers.NewAuthController(controllers.AuthControllerDependencies{
			Config:    *cfg,
			Store:     store,
			Resolvers: resolvers,
		}),
		ToolsController: controllers.NewToolsController(controllers.ToolsControllerDependencies{
			Config:    *cfg,
			Resolvers: resolvers,
		}),
		ContextController: controllers.NewContextController(controllers.ContextControllerDependencies{
			Contexts: managers.NewSessionContextManager(),
		}),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().
		Str("version", version.GetShortVersion()).
		Str("address", cfg.HTTPAddress).
		Str("app_url", cfg.AppURL).
		Msg("Starting prodpilot service")

	return app.Listen(cfg.HTTPAddress)
}
