package excel

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/cmd/client/cmd/ui"

	"github.com/spf13/cobra"
)

var yes bool

var DeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Удалить файл (только администратор)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if !yes {
			fmt.Print("Удалить файл с сервера? [y/N]: ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				ui.Info("Отменено")
				return nil
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		msg, err := app.Delete(ctx)
		if err != nil {
			return err
		}
		ui.Success("%s", msg)
		return nil
	},
}

func init() {
	DeleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "не запрашивать подтверждение")
}
