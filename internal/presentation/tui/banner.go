package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Sushrusha ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Teal to green, the colors of the community health worker kit.
	lines := []struct {
		text  string
		color string
	}{
		{"  ____            _                     _           ", "#2dd4bf"},
		{" / ___| _   _ ___| |__  _ __ _   _ ___| |__   __ _ ", "#34d399"},
		{" \\___ \\| | | / __| '_ \\| '__| | | / __| '_ \\ / _` |", "#4ade80"},
		{"  ___) | |_| \\__ \\ | | | |  | |_| \\__ \\ | | | (_| |", "#a3e635"},
		{" |____/ \\__,_|___/_| |_|_|   \\__,_|___/_| |_|\\__,_|", "#facc15"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  Practice patient conversations, one turn at a time.").Faint())
	fmt.Fprintln(w)
}
