package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/prodpilot/prodpilot/internal/domain"
)

// LoadConfig loads configuration from environment variables and an optional
// yaml config file.
func LoadConfig() (*domain.Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"HTTPAddress":        "HTTP_ADDRESS",
		"AppURL":             "APP_URL",
		"TokenEncryptionKey": "TOKEN_ENCRYPTION_KEY",

		"Jira.Email":             "JIRA_EMAIL",
		"Jira.APIToken":          "JIRA_API_TOKEN",
		"Jira.Domain":            "JIRA_DOMAIN",
		"Jira.ProjectKey":        "JIRA_PROJECT_KEY",
		"Jira.OAuthClientID":     "JIRA_OAUTH_CLIENT_ID",
		"Jira.OAuthClientSecret": "JIRA_OAUTH_CLIENT_SECRET",

		"Slack.BotToken":     "SLACK_BOT_TOKEN",
		"Slack.ChannelID":    "SLACK_CHANNEL_ID",
		"Slack.ClientID":     "SLACK_CLIENT_ID",
		"Slack.ClientSecret": "SLACK_CLIENT_SECRET",

		"Google.ClientID":     "GOOGLE_CLIENT_ID",
		"Google.ClientSecret": "GOOGLE_CLIENT_SECRET",
		"Google.RefreshToken": "GOOGLE_REFRESH_TOKEN",

		"GitHub.PersonalAccessToken": "GITHUB_PERSONAL_ACCESS_TOKEN",
		"GitHub.ClientID":            "GITHUB_CLIENT_ID",
		"GitHub.ClientSecret":        "GITHUB_CLIENT_SECRET",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("prodpilot_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.prodpilot")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config domain.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8090")
	v.SetDefault("AppURL", "http://localhost:3000")
}

// validateConfig checks the fields no credential path can work without.
// Provider credentials themselves stay optional: each provider simply
// resolves to "not connected" when its configuration is absent.
func validateConfig(config *domain.Config) error {
	var missingVars []string

	if config.TokenEncryptionKey == "" {
		missingVars = append(missingVars, "TOKEN_ENCRYPTION_KEY")
	}
	if config.AppURL == "" {
		missingVars = append(missingVars, "APP_URL")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
