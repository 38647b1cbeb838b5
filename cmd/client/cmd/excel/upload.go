package excel

import (
	"context"
	"errors"
	"fmt"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"
	"excelkeeper/internal/app/client"
	"excelkeeper/internal/domain/excel"

	"github.com/spf13/cobra"
)

var UploadCmd = &cobra.Command{
	Use:   "upload <файл.xlsx|файл.xls>",
	Short: "Загрузить файл (только администратор)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		msg, err := app.Upload(context.WithoutCancel(cmd.Context()), args[0])
		switch {
		case errors.Is(err, excel.ErrFileTooLarge):
			return fmt.Errorf("файл больше %d МБ", excel.MaxFileSize>>20)
		case errors.Is(err, excel.ErrInvalidFormat):
			return fmt.Errorf("поддерживаются только .xlsx и .xls")
		case client.IsRateLimited(err):
			return fmt.Errorf("слишком много загрузок, попробуйте позже: %w", err)
		case err != nil:
			return err
		}

		ui.Success("%s", msg)
		return nil
	},
}
