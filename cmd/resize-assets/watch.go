package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tallyfy/denizen-assets/internal/appServer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Resize once, then keep resizing files as they land in the source folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *appServer.App) error {
			return app.Watch(ctx)
		})
	},
}
