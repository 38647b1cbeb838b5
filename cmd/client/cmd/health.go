package cmd

import (
	"context"
	"fmt"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Проверить состояние сервера",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		h, err := app.Health(ctx)
		if err != nil {
			return fmt.Errorf("сервер недоступен: %w", err)
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(h)
		}

		if h.Status == "healthy" {
			ui.Success("Сервер работает, БД доступна")
		} else {
			ui.Warn("Сервер отвечает, но БД недоступна")
		}
		ui.Hint("Пул соединений: всего %d, свободно %d, ожидают %d", h.Pool.Total, h.Pool.Idle, h.Pool.Waiting)
		return nil
	},
}
