package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// displayGenres renders genre tags in title case for table output.
func displayGenres(genres []string) string {
	if len(genres) == 0 {
		return "-"
	}
	shown := make([]string, len(genres))
	for i, g := range genres {
		shown[i] = titleCaser.String(strings.TrimSpace(g))
	}
	return strings.Join(shown, ", ")
}

func formatCoins(coins int) string {
	if coins == 1 {
		return "1 coin"
	}
	return fmt.Sprintf("%d coins", coins)
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	minutes := seconds / 60
	rem := seconds % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", rem)
	}
	return fmt.Sprintf("%dm%02ds", minutes, rem)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// isTerminal reports whether the writer is an interactive terminal; plain
// output is used when it is not.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
