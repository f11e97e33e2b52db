package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"jasper-go/internal/app"
	"jasper-go/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the environment.
func loadConfig() (*config.Config, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("reading config (run `jasper config init` first): %w", err)
	}
	return cfg, nil
}

// withApp reads the config, creates a JasperApp for operation, runs fn and
// closes the app, recording fn's outcome in the log.
func withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, a *app.JasperApp) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.NewJasperApp(cmd.Context(), cfg, operation)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer a.Close()

	err = fn(cmd.Context(), a)
	a.Finish(err)
	return err
}

var rootCmd = &cobra.Command{
	Use:          "jasper",
	Short:        "Personal library of links, files and their permanent archives",
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(propCmd)
	rootCmd.AddCommand(locCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}
