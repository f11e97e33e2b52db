package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jasper-go/internal/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track file locations and record when they appear or disappear",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "watch", func(ctx context.Context, a *app.JasperApp) error {
			err := a.Watch(ctx, func(path string, accessible bool) {
				fmt.Printf("%s\t%s\n", accessLabel(accessible), path)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the file watcher",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "serve", func(ctx context.Context, a *app.JasperApp) error {
			err := a.Serve(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the library to an MCP client over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "mcp", func(ctx context.Context, a *app.JasperApp) error {
			return a.MCPServer(version).ServeStdio()
		})
	},
}
