package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	console "aoi-workspace/internal/http"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить веб-консоль",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, appContainer, log, err := ctx.build(runCtx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ConsoleAddr
			}

			gin.SetMode(gin.ReleaseMode)
			handler := console.NewHandler(appContainer.WorkspaceService, appContainer.CatalogService, log.With().Str("component", "console").Logger())
			srv := &http.Server{
				Addr:              addr,
				Handler:           console.NewRouter(handler, cfg.CORSOrigins, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("console listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			log.Info().Msg("shutting down console")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Адрес веб-консоли (по умолчанию CONSOLE_ADDR)")
	return cmd
}
