package excel

import (
	"context"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Сессия и сведения о файле на сервере",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		st, err := app.Status(ctx)
		if err != nil {
			return err
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(st)
		}

		ui.Info("Сервер: %s", st.Server)
		if !st.LoggedIn {
			ui.Warn("Вход не выполнен")
			return nil
		}
		ui.Info("Роль:   %s", st.Role)
		if !st.File.Success {
			ui.Warn("Файл не загружен")
			return nil
		}
		ui.Success("Файл: %s, загружен %s", st.File.FileName, st.File.UploadedDate)
		return nil
	},
}
