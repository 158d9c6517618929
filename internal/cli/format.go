// Package cli provides shared formatting helpers for CLI output.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/posts"
)

// ANSI color constants.
const (
	Green = "\033[32m"
	Red   = "\033[31m"
	Cyan  = "\033[36m"
	Dim   = "\033[2m"
	Bold  = "\033[1m"
	Reset = "\033[0m"
)

// Box width is the inner content width (between the border characters).
const boxWidth = 40

// Margin is the left indent for all branded output.
const margin = "  "

// ShortenHome replaces $HOME prefix with ~.
func ShortenHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// FormatNumber adds comma separators (1234 -> "1,234").
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return FormatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

// Header prints a small heavy-border box with a title. Used by `blog run`.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w)
	heavyTop := margin + "┏" + strings.Repeat("━", boxWidth) + "┓"
	heavyBottom := margin + "┗" + strings.Repeat("━", boxWidth) + "┛"

	padded := padRight("  "+title, boxWidth)

	fmt.Fprintf(w, "%s%s%s\n", Cyan, heavyTop, Reset)
	fmt.Fprintf(w, "%s%s┃%s┃%s\n", Cyan, margin, padded, Reset)
	fmt.Fprintf(w, "%s%s%s\n", Cyan, heavyBottom, Reset)
}

// Section prints a section divider line: ── Name ─────────────────
func Section(w io.Writer, name string) {
	prefix := "── " + name + " "
	remaining := boxWidth + 2 - runeLen(prefix)
	if remaining < 0 {
		remaining = 0
	}
	rule := prefix + strings.Repeat("─", remaining)
	fmt.Fprintf(w, "\n%s%s%s%s\n\n", margin, Cyan, rule, Reset)
}

// Posts prints one line per post: date, slug and title.
func Posts(w io.Writer, list []posts.Post) {
	if len(list) == 0 {
		fmt.Fprintf(w, "%s%sNo posts.%s\n", margin, Dim, Reset)
		return
	}
	for _, p := range list {
		date := p.Meta.Date
		if date == "" {
			date = "----------"
		}
		fmt.Fprintf(w, "%s%s%s%s  %s%-24s%s %s\n",
			margin, Dim, date, Reset, Cyan, p.Slug, Reset, p.Meta.Title)
	}
}

// Counts prints name/count pairs aligned on the longest name.
func Counts(w io.Writer, counts []index.Count) {
	if len(counts) == 0 {
		fmt.Fprintf(w, "%s%sNothing yet.%s\n", margin, Dim, Reset)
		return
	}
	width := 0
	for _, c := range counts {
		width = max(width, runeLen(c.Name))
	}
	for _, c := range counts {
		fmt.Fprintf(w, "%s%s %s%d%s\n", margin, padRight(c.Name, width), Dim, c.Count, Reset)
	}
}

// Archive prints the year/month tree.
func Archive(w io.Writer, groups []index.YearGroup) {
	if len(groups) == 0 {
		fmt.Fprintf(w, "%s%sNo posts.%s\n", margin, Dim, Reset)
		return
	}
	for _, yg := range groups {
		fmt.Fprintf(w, "%s%s%s%s\n", margin, Bold, yg.Year, Reset)
		for _, mg := range yg.Months {
			fmt.Fprintf(w, "%s  %s%s%s\n", margin, Cyan, mg.Month, Reset)
			for _, p := range mg.Posts {
				fmt.Fprintf(w, "%s    %s %s(%s)%s\n", margin, p.Meta.Title, Dim, p.Slug, Reset)
			}
		}
	}
}

// Keywords prints keywords as a ranked list.
func Keywords(w io.Writer, kws []index.Keyword) {
	counts := make([]index.Count, len(kws))
	for i, k := range kws {
		counts[i] = index.Count{Name: k.Word, Count: k.Count}
	}
	Counts(w, counts)
}

// Heat prints posts ranked by visits.
func Heat(w io.Writer, entries []index.HeatEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s%sNo posts.%s\n", margin, Dim, Reset)
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%s%3d. %s%8s%s  %s\n",
			margin, i+1, Green, FormatNumber(e.Count), Reset, e.Post.Meta.Title)
	}
}

// padRight pads s with spaces to exactly width characters.
// If s is longer than width, it is truncated.
func padRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		r := []rune(s)
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

// runeLen counts the display width in runes.
func runeLen(s string) int {
	return len([]rune(s))
}
