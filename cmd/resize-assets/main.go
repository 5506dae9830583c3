// entry point: resize source images into size tiers and stage them
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tallyfy/denizen-assets/config"
	"github.com/tallyfy/denizen-assets/internal/appServer"
)

const (
	appName        = "resize-assets"
	appDescription = "Resizes every image in the assets folder into small, medium and large tiers and stages the results in git."
)

var (
	cfgFile string
	root    string
	verbose bool
)

// rootCmd without a subcommand behaves like `run`
var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         appDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: runBatch,
}

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./config/config.yaml when present)")
	rootCmd.PersistentFlags().StringVarP(&root, "root", "r", "", "Working directory the asset folders are relative to")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithFields(log.Fields{
			"app.name": appName,
			"error":    err.Error(),
		}).Fatal("application exited with an error")
	}
}

func loadConfig() (*config.Config, error) {
	viperInstance, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		return nil, err
	}
	if root != "" {
		cfg.Root = root
	}
	return cfg, nil
}

// withApp loads config, wires the app and hands it a context that is
// cancelled on SIGINT/SIGTERM.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *appServer.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := appServer.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app)
}
