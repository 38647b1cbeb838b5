package auth

import (
	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long:  `Удаляет сохраненный токен. Токен остается действительным на сервере до истечения срока.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(); err != nil {
			return err
		}
		ui.Success("Сессия удалена")
		return nil
	},
}
