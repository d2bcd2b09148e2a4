package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ordertrack/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API and webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, metrics, err := buildService()
		if err != nil {
			return err
		}

		handler := server.New(server.Options{
			Service:        svc,
			Metrics:        metrics,
			StaticDir:      cfg.Server.StaticDir,
			WebhookSecret:  cfg.Server.WebhookSecret,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			WebhookRPS:     cfg.Server.WebhookRPS,
			WebhookBurst:   cfg.Server.WebhookBurst,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("bootstrap", cfg.Bootstrap.Path),
			zap.String("event_log", cfg.EventLog.Path),
			zap.Bool("webhook_auth", cfg.Server.WebhookSecret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
