package auth

import (
	"context"
	"fmt"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"
	"excelkeeper/internal/app/client"

	"github.com/spf13/cobra"
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему",
	Long: `Аутентификация по паролю администратора или гостя.

После входа токен сохраняется локально для последующих операций.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		password, err := readPassword("Пароль: ")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		role, err := app.Login(ctx, password)
		if err != nil {
			if client.IsRateLimited(err) {
				return fmt.Errorf("слишком много попыток входа: %w", err)
			}
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(map[string]string{"role": role})
		}
		ui.Success("Вход выполнен, роль: %s", role)
		return nil
	},
}
