package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the stash banner followed by the version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Teal to indigo, one color per line.
	lines := []struct {
		text  string
		color string
	}{
		{"      _            _     ", "#2dd4bf"},
		{"  ___| |_ __ _ ___| |__  ", "#22d3ee"},
		{" / __| __/ _` / __| '_ \\ ", "#38bdf8"},
		{" \\__ \\ || (_| \\__ \\ | | |", "#60a5fa"},
		{" |___/\\__\\__,_|___/_| |_|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("v"+strings.TrimSpace(version)).Faint())
}
