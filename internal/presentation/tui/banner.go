package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the start-up banner, coloured when w is a colour terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.Profile

	rows := []struct {
		text  string
		color string
	}{
		{"              _     _          _ _ ", "#818cf8"},
		{"  _ __   __ _| |___| |__   ___| | |", "#a78bfa"},
		{" | '_ \\ / _` / __| '_ \\ / _ \\ | |", "#c084fc"},
		{" | |_) | (_| \\__ \\ | | |  __/ | |", "#e879f9"},
		{" | .__/ \\__,_|___/_| |_|\\___|_|_|", "#f472b6"},
		{" |_|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintln(w, p.String(r.text).Foreground(p.Color(r.color)))
	}
	fmt.Fprintln(w, p.String(" v"+version+"  type ? for help, exit to quit").Faint())
	fmt.Fprintln(w)
}
