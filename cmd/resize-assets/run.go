package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tallyfy/denizen-assets/internal/appServer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resize the source folder once and stage the outputs",
	RunE:  runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *appServer.App) error {
		report, err := app.Service.Run(ctx)
		if report != nil {
			log.WithFields(log.Fields{
				"run_id":    report.RunID,
				"processed": report.Processed,
				"skipped":   report.Skipped,
				"ignored":   len(report.Ignored),
				"failed":    len(report.Failed),
			}).Info("Resize finished")
		}
		return err
	})
}
