package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a server's admin endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
	cmd.Flags().StringVar(&cfg.AdminURL, "admin-url", cfg.AdminURL, "Admin endpoint base URL (env: BATTLESHIP_ADMIN_URL)")
	return cmd
}

func runStatus() error {
	httpClient := &http.Client{Timeout: 5 * time.Second}

	for _, path := range []string{"/healthz", "/lobby", "/sessions"} {
		resp, err := httpClient.Get(cfg.AdminURL + path)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", path, string(body))
	}
	return nil
}
