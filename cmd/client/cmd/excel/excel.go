package excel

import (
	"github.com/spf13/cobra"
)

// ExcelCmd - родительская команда для операций с файлом
var ExcelCmd = &cobra.Command{
	Use:   "excel",
	Short: "Работа с Excel-файлом",
	Long: `Загрузка, скачивание и удаление хранимого файла.

На сервере хранится ровно один файл, новая загрузка заменяет предыдущую.`,
}
