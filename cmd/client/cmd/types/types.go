package types

import (
	"errors"

	"excelkeeper/internal/app/client"

	"github.com/spf13/cobra"
)

type contextKey string

// ClientAppKey ключ *client.App в контексте команды.
const ClientAppKey contextKey = "app"

var ErrNoApp = errors.New("приложение не инициализировано")

func App(cmd *cobra.Command) (*client.App, error) {
	if cmd.Context() == nil {
		return nil, ErrNoApp
	}
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// JSONOutput значение глобального флага --json.
func JSONOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}
