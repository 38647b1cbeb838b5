package excel

import (
	"fmt"
	"os"
	"text/tabwriter"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var limit int

var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "История скачиваний на этом компьютере",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		records, err := app.History(limit)
		if err != nil {
			return err
		}

		if types.JSONOutput(cmd) {
			return ui.JSON(records)
		}
		if len(records) == 0 {
			ui.Info("История пуста")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tФайл\tЗагружен\tСкачан\tРазмер\tПуть\t\n")
		fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t\n")
		for _, rec := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t\n",
				rec.ID,
				rec.FileName,
				rec.UploadedDate,
				rec.DownloadedAt.Local().Format("2006-01-02 15:04"),
				rec.SizeBytes,
				rec.LocalPath,
			)
		}
		return w.Flush()
	},
}

func init() {
	HistoryCmd.Flags().IntVarP(&limit, "limit", "n", 20, "сколько записей показать, 0 - все")
}
