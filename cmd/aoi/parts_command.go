package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPartsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "parts",
		Short: "Показать каталог деталей",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, appContainer, _, err := ctx.build(cmd.Context())
			if err != nil {
				return err
			}
			cat := appContainer.CatalogService.Catalog()
			w := cmd.OutOrStdout()
			for i, e := range cat.Entries {
				marker := " "
				if i == cat.Default {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\n", marker, e.Label())
			}
			if cat.Fallback {
				fmt.Fprintln(w, "(каталог недоступен, используется деталь по умолчанию)")
			}
			return nil
		},
	}
}
