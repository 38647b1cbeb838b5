package excel

import (
	"errors"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"
	"excelkeeper/internal/app/client"

	"github.com/spf13/cobra"
)

var output string

var DownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Скачать файл",
	Long: `Скачивает хранимый файл. Без --output файл сохраняется в текущий каталог
под именем, присвоенным сервером.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		rec, err := app.Download(cmd.Context(), output)
		if errors.Is(err, client.ErrNoFile) {
			ui.Warn("На сервере нет файла")
			return nil
		}
		if err != nil {
			return err
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(rec)
		}
		ui.Success("Сохранено: %s (%d байт)", rec.LocalPath, rec.SizeBytes)
		ui.Hint("sha256 %s", rec.SHA256)
		return nil
	},
}

func init() {
	DownloadCmd.Flags().StringVarP(&output, "output", "o", "", "путь или каталог для сохранения")
}
