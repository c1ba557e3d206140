package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/libnss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// render formats a query result. Plain output has one key=value line per
// field and a blank line between records.
func render(db, key string, res *result, styled bool) string {
	paint := func(s lipgloss.Style, v string) string {
		if styled {
			return s.Render(v)
		}
		return v
	}

	var b strings.Builder
	what := db
	if key != "" {
		what += " " + key
	}
	b.WriteString(paint(titleStyle, what))
	b.WriteString("\n\n")

	width := 0
	for _, rec := range res.records {
		for _, f := range rec {
			width = max(width, len(f.key))
		}
	}
	for i, rec := range res.records {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, f := range rec {
			pad := strings.Repeat(" ", width-len(f.key))
			fmt.Fprintf(&b, "%s%s = %s\n", paint(keyStyle, f.key), pad, paint(valueStyle, f.value))
		}
	}
	if len(res.records) > 0 {
		b.WriteString("\n")
	}

	statusStyle := errorStyle
	if res.status == libnss.StatusSuccess {
		statusStyle = okStyle
	}
	fmt.Fprintf(&b, "%s  %s\n",
		paint(statusStyle, res.status.String()),
		paint(helpStyle, fmt.Sprintf("%d record(s), %d retries, buffer %d bytes", len(res.records), res.retries, res.buflen)),
	)
	return b.String()
}
