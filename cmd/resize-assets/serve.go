package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tallyfy/denizen-assets/internal/appServer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an HTTP API for uploading assets and triggering runs",
	Long: `Serve an HTTP API on server.port:

  POST /assets        upload (multipart field "image"), resize and stage
  GET  /assets/:name  tier outputs of an asset
  POST /runs          resize the whole source folder
  GET  /health`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *appServer.App) error {
			return app.Serve(ctx)
		})
	},
}
