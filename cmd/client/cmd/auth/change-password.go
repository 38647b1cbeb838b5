package auth

import (
	"context"
	"errors"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var ChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Сменить пароль гостя",
	Long: `Устанавливает новый пароль гостя. Требуется вход администратором.

Пароль администратора этой командой не меняется.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		password, err := readPassword("Новый пароль гостя: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Повторите пароль: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("пароли не совпадают")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		msg, err := app.ChangeGuestPassword(ctx, password)
		if err != nil {
			return err
		}
		ui.Success("%s", msg)
		return nil
	},
}
