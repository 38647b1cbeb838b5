package cmd

import (
	"excelkeeper/cmd/client/cmd/auth"
	"excelkeeper/cmd/client/cmd/excel"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.VerifyCmd)
	auth.AuthCmd.AddCommand(auth.ChangePasswordCmd)

	rootCmd.AddCommand(excel.ExcelCmd)
	excel.ExcelCmd.AddCommand(excel.UploadCmd)
	excel.ExcelCmd.AddCommand(excel.DownloadCmd)
	excel.ExcelCmd.AddCommand(excel.DeleteCmd)
	excel.ExcelCmd.AddCommand(excel.StatusCmd)
	excel.ExcelCmd.AddCommand(excel.HistoryCmd)

	rootCmd.AddCommand(healthCmd)
}
