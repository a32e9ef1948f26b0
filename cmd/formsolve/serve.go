package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/njchilds90/formsolve/internal/cache"
	"github.com/njchilds90/formsolve/internal/config"
	"github.com/njchilds90/formsolve/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the formsolve HTTP server.

Endpoints:
  POST /solve        - Solve a formula image ({"image": "<base64 or data URL>"})
  POST /solve/latex  - Solve a LaTeX formula ({"latex": "..."})
  GET  /health       - Liveness check`,
	Example: `  formsolve serve
  formsolve serve --port 3000
  formsolve serve --host 0.0.0.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rec, err := newRecognizer(cfg, logger)
		if err != nil {
			logger.Warn("image recognition disabled", "error", err)
		}
		srv, err := server.New(server.Config{
			Addr:         cfg.Server.Addr(),
			RateLimit:    cfg.Server.RateLimit,
			Burst:        cfg.Server.Burst,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
			Pipeline:     newPipeline(),
			Recognizer:   rec,
			Cache:        cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		watchLogLevel()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind")
	serveCmd.Flags().Int("port", 0, "port to listen on")
	_ = v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

// watchLogLevel applies log level edits to the running process when a
// config file is in use.
func watchLogLevel() {
	if v.ConfigFileUsed() == "" {
		return
	}
	config.Watch(v, logger, func(c config.Config) {
		if level, err := c.Log.ParseLevel(); err == nil {
			logLevel.Set(level)
		}
	})
}
