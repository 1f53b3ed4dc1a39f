package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e7eb"))
	groupStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")).Italic(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8"))
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a"))

	chefBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorChef))
	freeBarStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFree))
	savedBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorTimeSaved))
)

const (
	termLabelWidth = 34
	chefGlyph      = "█"
	freeGlyph      = "▒"
	savedGlyph     = "░"
)

// Terminal writes a text Gantt chart with width cells for the time axis.
// Bars use distinct glyphs so the chart stays readable without colour.
func Terminal(w io.Writer, title string, rows []Row, width int) error {
	if width < 10 {
		width = 60
	}
	span := max(Span(rows), 1)
	cell := func(t int) int { return t * width / span }

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", termLabelWidth+1))
	b.WriteString(axisStyle.Render(axis(span, width)))
	b.WriteString("\n")

	prev := ""
	for _, r := range rows {
		if r.Group != prev {
			b.WriteString(groupStyle.Render(r.Group))
			b.WriteString("\n")
			prev = r.Group
		}

		glyph, style := freeGlyph, freeBarStyle
		switch {
		case r.Group == GroupTimeSaved:
			glyph, style = savedGlyph, savedBarStyle
		case r.Chef:
			glyph, style = chefGlyph, chefBarStyle
		}
		from, to := cell(r.Start), cell(r.End)
		if to == from && r.End > r.Start {
			to++
		}

		b.WriteString(labelStyle.Render(fit(r.Label, termLabelWidth)))
		b.WriteString(" ")
		b.WriteString(strings.Repeat(" ", from))
		b.WriteString(style.Render(strings.Repeat(glyph, to-from)))
		fmt.Fprintf(&b, " %d-%d\n", r.Start, r.End)
	}
	b.WriteString(axisStyle.Render(fmt.Sprintf("%s chef  %s free  %s saved", chefGlyph, freeGlyph, savedGlyph)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// axis labels the start, middle and end of the time axis.
func axis(span, width int) string {
	line := []rune(strings.Repeat("─", width+1))
	mid := fmt.Sprint(span / 2)
	end := fmt.Sprint(span)
	place := func(at int, s string) {
		for i, r := range s {
			if at+i < len(line) {
				line[at+i] = r
			}
		}
	}
	place(0, "0")
	place(width/2-len(mid)/2, mid)
	place(width+1-len(end), end)
	return string(line)
}

// fit truncates or pads s to exactly n cells.
func fit(s string, n int) string {
	if lipgloss.Width(s) > n {
		rs := []rune(s)
		for len(rs) > 0 && lipgloss.Width(string(rs))+1 > n {
			rs = rs[:len(rs)-1]
		}
		s = string(rs) + "…"
	}
	return s + strings.Repeat(" ", max(n-lipgloss.Width(s), 0))
}
