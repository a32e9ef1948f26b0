package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/njchilds90/formsolve/internal/cache"
	"github.com/njchilds90/formsolve/internal/ratelimit"
	"github.com/njchilds90/formsolve/internal/telegram"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	Long: `Run a long-polling Telegram bot. Photos are recognized and solved;
text messages are solved as LaTeX. The token comes from telegram.token
(default ${TELEGRAM_BOT_TOKEN}).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram token is not set")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		logger.Info("telegram bot authorized", "username", api.Self.UserName)

		rec, err := newRecognizer(cfg, logger)
		if err != nil {
			logger.Warn("image recognition disabled", "error", err)
		}
		b, err := telegram.New(telegram.Config{
			API:        api,
			Pipeline:   newPipeline(),
			Recognizer: rec,
			Cache:      cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
			Limiter:    ratelimit.New(cfg.Server.RateLimit, cfg.Server.Burst),
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		watchLogLevel()
		return b.Run(ctx)
	},
}
