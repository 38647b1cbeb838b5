package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AuthCmd - родительская команда для входа и управления паролем
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Аутентификация",
	Long:  `Вход, выход, проверка токена и смена пароля гостя.`,
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(password), nil
}
