package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/prodpilot/prodpilot/internal/version"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a running prodpilot instance is healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	address := cfg.HTTPAddress
	if strings.HasPrefix(address, ":") {
		address = "localhost" + address
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/health", address))
	if err != nil {
		return fmt.Errorf("service not reachable at %s: %w", address, err)
	}
	defer resp.Body.Close()

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("unexpected health response: %w", err)
	}

	fmt.Printf("service:  %s\n", health.Status)
	fmt.Printf("version:  %s (cli %s)\n", health.Version, version.GetShortVersion())
	fmt.Printf("address:  %s\n", address)
	return nil
}
