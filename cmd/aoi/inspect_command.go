package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "aoi-workspace/internal/application"
	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/textview"
)

// cliSessionID — сессия одиночного запуска из командной строки.
const cliSessionID int64 = 1

type inspectOptions struct {
	part      string
	psm       string
	adaptive  bool
	whitelist string
	overlay   string
	json      bool
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect <image>...",
		Short: "Отправить изображения на инспекцию и показать результаты",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.overlay != "" && len(args) > 1 {
				return errors.New("--overlay accepts a single image")
			}

			_, appContainer, _, err := ctx.build(cmd.Context())
			if err != nil {
				return err
			}
			ws := appContainer.WorkspaceService
			runCtx := cmd.Context()

			if _, err := ws.UpdateParameters(runCtx, cliSessionID, opts.update(cmd)); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, path := range args {
				if err := inspectFile(runCtx, ws, path, opts, w); err != nil {
					return err
				}
			}

			if len(args) > 1 {
				rows, err := ws.History(runCtx, cliSessionID)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, textview.HistoryTable(rows))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.part, "part", "", "Деталь из каталога")
	flags.StringVar(&opts.psm, "psm", "", "Режим сегментации (6, 7, 8, 11, 13)")
	flags.BoolVar(&opts.adaptive, "adaptive", true, "Адаптивная бинаризация")
	flags.StringVar(&opts.whitelist, "whitelist", "", "Допустимые символы")
	flags.StringVar(&opts.overlay, "overlay", "", "Сохранить JPEG с рамкой в файл")
	flags.BoolVar(&opts.json, "json", false, "Вывести полный ответ сервиса")
	return cmd
}

func (o inspectOptions) update(cmd *cobra.Command) app.ParametersUpdate {
	upd := app.ParametersUpdate{}
	if o.part != "" {
		upd.PartID = &o.part
	}
	if cmd.Flags().Changed("psm") {
		upd.PSM = &o.psm
	}
	if cmd.Flags().Changed("adaptive") {
		upd.Adaptive = &o.adaptive
	}
	if cmd.Flags().Changed("whitelist") {
		upd.Whitelist = &o.whitelist
	}
	return upd
}

func inspectFile(ctx context.Context, ws *app.WorkspaceService, path string, opts inspectOptions, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if _, err := ws.AcceptImage(ctx, cliSessionID, filepath.Base(path), data, entity.SourceChooser); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out, err := ws.Submit(ctx, cliSessionID)
	if err != nil {
		return err
	}
	if out.State == entity.StateFailed {
		return fmt.Errorf("%s: %s: %w", path, app.TextFailed, out.Err)
	}

	if opts.json {
		js, _, err := ws.LastResultJSON(ctx, cliSessionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, js)
	} else {
		fmt.Fprintln(w, filepath.Base(path))
		fmt.Fprintln(w, textview.ResultTable(*out.View))
	}

	if opts.overlay == "" {
		return nil
	}
	preview, ok, err := ws.Preview(ctx, cliSessionID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := os.WriteFile(opts.overlay, preview, 0o644); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}
	return nil
}
