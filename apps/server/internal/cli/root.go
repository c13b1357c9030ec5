// Package cli is a terminal client for the blackjack server.
package cli

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type Config struct {
	ServerURL string
	Timeout   time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("BLACKJACK_SERVER", "http://localhost:8080"),
		Timeout:   10 * time.Second,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bjclient",
		Short: "Terminal client for the blackjack server",
		Long: `bjclient connects to a blackjack server over WebSocket and lets you play
from the terminal. Four connected players form a table.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: BLACKJACK_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP and dial timeout")

	rootCmd.AddCommand(newPlayCmd(cfg))
	rootCmd.AddCommand(newHealthCmd(cfg))
	rootCmd.AddCommand(newRoundsCmd(cfg))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
