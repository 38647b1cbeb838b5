package auth

import (
	"context"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Проверить сохраненный токен",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		res, err := app.Verify(ctx)
		if err != nil {
			return err
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(res)
		}
		ui.Success("Токен действителен, роль: %s", res.Role)
		return nil
	},
}
