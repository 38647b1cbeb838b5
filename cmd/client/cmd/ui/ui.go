package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	Out io.Writer = os.Stdout

	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	dim      = color.New(color.Faint).SprintFunc()
)

func Success(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", okMark("✓"), fmt.Sprintf(format, args...))
}

func Warn(format string, args ...any) {
	fmt.Fprintf(Out, "%s %s\n", warnMark("!"), fmt.Sprintf(format, args...))
}

func Info(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

func Hint(format string, args ...any) {
	fmt.Fprintln(Out, dim(fmt.Sprintf(format, args...)))
}

func JSON(v any) error {
	enc := json.NewEncoder(Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
