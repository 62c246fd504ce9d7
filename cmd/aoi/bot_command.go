package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	telegram "aoi-workspace/internal/api"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Запустить Telegram-бота",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, appContainer, log, err := ctx.build(runCtx)
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, log.With().Str("component", "telegram").Logger())
			if err != nil {
				return err
			}

			log.Info().Msg("bot is running")
			return bot.Run(runCtx)
		},
	}
}
