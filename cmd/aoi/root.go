package main

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"aoi-workspace/config"
	"aoi-workspace/internal/container"
	"aoi-workspace/internal/infrastructure/inspection"
	"aoi-workspace/internal/infrastructure/vision"
	"aoi-workspace/internal/logger"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "aoi",
		Short:         "Рабочее место оператора AOI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Путь к файлу конфигурации")

	rootCmd.AddCommand(newBotCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newPartsCommand(ctx))

	return rootCmd
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// build собирает логгер и сервисы и загружает каталог.
func (c *commandContext) build(ctx context.Context) (*config.Config, *container.Container, zerolog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.LogLevel)

	client := inspection.NewClient(cfg.InspectionURL, inspection.WithTimeout(cfg.RequestTimeout))
	appContainer := container.New(client, client, vision.NewCompositor(), cfg.Defaults(), log)
	appContainer.CatalogService.Load(ctx)

	return cfg, appContainer, log, nil
}
