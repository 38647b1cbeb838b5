package main

import "excelkeeper/cmd/client/cmd"

func main() {
	cmd.Execute()
}
