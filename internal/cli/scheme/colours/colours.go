package colours

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Color scheme for the CLI
var (
	Title    = color.New(color.FgCyan, color.Bold)
	Mystery  = color.New(color.FgMagenta, color.Bold)
	Prayer   = color.New(color.FgWhite)
	Prompt   = color.New(color.FgGreen, color.Bold)
	Error    = color.New(color.FgRed, color.Bold)
	Success  = color.New(color.FgGreen)
	Info     = color.New(color.FgBlue)
	Warning  = color.New(color.FgYellow)
	Muted    = color.New(color.FgHiBlack)
	Progress = color.New(color.FgCyan)
)

// Configure turns colour off when w is not a terminal or the user asked for
// plain output through NO_COLOR.
func Configure(w io.Writer) {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
		return
	}
	color.NoColor = !IsTerminal(w)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
