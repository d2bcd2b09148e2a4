package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ordertrack/internal/config"
	"github.com/sells-group/ordertrack/internal/eventlog"
	"github.com/sells-group/ordertrack/internal/monitoring"
	"github.com/sells-group/ordertrack/internal/tracker"
)

var (
	cfg       *config.Config
	aliasFile string
)

var rootCmd = &cobra.Command{
	Use:   "ordertrack",
	Short: "Order fulfillment tracking and reconciliation",
	Long:  "Reconciles order-tracking events from bulk report exports and live webhook submissions into one canonical view of each order's fulfillment state.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// buildService wires the reconciliation service from configuration.
func buildService() (*tracker.Service, *monitoring.Collector, error) {
	sets := cfg.Aliases.Sets()
	if aliasFile != "" {
		merged, err := config.LoadAliasFile(aliasFile, sets)
		if err != nil {
			return nil, nil, err
		}
		sets = merged
	}

	metrics := monitoring.NewCollector()
	svc := tracker.NewService(tracker.ServiceOptions{
		BootstrapPath:  cfg.Bootstrap.Path,
		BootstrapSheet: cfg.Bootstrap.Sheet,
		Log:            eventlog.New(cfg.EventLog.Path),
		Aliases: tracker.Aliases{
			Prefix: sets.Prefix,
			Ref:    sets.Ref,
			Order:  sets.Order,
			Stage:  sets.Stage,
			Actor:  sets.Actor,
			Time:   sets.Time,
		},
		Mode:        tracker.KeyMode(cfg.Tracker.KeyMode),
		Carry:       tracker.CarryMode(cfg.Tracker.CarryForward),
		DefaultView: tracker.View(cfg.Tracker.View),
		Metrics:     metrics,
	})

	return svc, metrics, nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&aliasFile, "aliases", "", "YAML alias map overriding configured field aliases")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
