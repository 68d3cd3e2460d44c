// Package cli implements the interactive game client.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "battleship",
		Short: "Client for the battleship game server",
		Long: `battleship is the terminal client for the battleship game server.

It speaks the server's encrypted packet protocol over TCP. Use "play" to
join a game and "status" to query a server's admin endpoint.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Server TCP address (env: BATTLESHIP_ADDR)")
	rootCmd.PersistentFlags().StringVar(&cfg.Passphrase, "passphrase", cfg.Passphrase, "Shared passphrase for packet keys (env: BATTLESHIP_PASSPHRASE)")
	rootCmd.PersistentFlags().StringVar(&cfg.KeyHex, "key", cfg.KeyHex, "Hex-encoded 32-byte packet key, overrides passphrase (env: BATTLESHIP_KEY)")

	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
