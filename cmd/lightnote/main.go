package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/lightnote/internal/config"
	"github.com/TobiSchelling/lightnote/internal/llm"
	"github.com/TobiSchelling/lightnote/internal/logging"
	"github.com/TobiSchelling/lightnote/internal/server"
	"github.com/TobiSchelling/lightnote/internal/week"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "lightnote",
	Short:   "Weekly journal digests",
	Long:    "lightnote turns a week of journal entries into a digest of mood, themes and tracked people, with an optional AI reflection.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup("INFO", verbose, os.Stderr)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logging.Setup(cfg.Logging.Level, verbose, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("lightnote", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/lightnote/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the completion service and tracked names.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and completion service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("This week: %s\n", week.Current(time.Now()))
		fmt.Printf("Database: %s\n\n", a.db.Path())
		fmt.Println("Entries:")
		fmt.Printf("  Total: %d\n", stats.Entries)
		fmt.Printf("  Scored: %d\n", stats.ScoredEntries)
		fmt.Println("\nOutput:")
		fmt.Printf("  Digests: %d\n", stats.Digests)
		fmt.Printf("  Insights: %d\n", stats.Insights)
		fmt.Printf("  Cached blobs: %d\n", stats.Blobs)

		fmt.Println("\nCompletion service:")
		fmt.Printf("  Provider: %s\n", cfg.LLM.Provider)
		fmt.Printf("  Model: %s\n", cfg.LLM.Model)
		var cfgErr *llm.ConfigurationError
		switch {
		case errors.As(a.providerErr, &cfgErr):
			fmt.Printf("  Not configured: %v\n", cfgErr)
			fmt.Println("  Themes will use word frequencies.")
		case a.providerErr != nil:
			fmt.Printf("  Error: %v\n", a.providerErr)
		case a.provider.IsConfigured():
			fmt.Println("  Reachable")
		default:
			fmt.Println("  Unreachable; themes will use word frequencies.")
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := a.server()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cmd.Context(), srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}
