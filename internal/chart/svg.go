package chart

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	svgLabelWidth = 280
	svgPlotWidth  = 640
	svgRowHeight  = 22
	svgBarHeight  = 16
	svgTop        = 48
	svgPad        = 12

	colorChef      = "#e07a5f"
	colorFree      = "#81b29a"
	colorTimeSaved = "#f2cc8f"
	colorAxis      = "#9ca3af"
)

// SVG writes a horizontal bar chart of rows. Chef-occupying bars use a
// distinct colour. Ticks are every 10 units (coarser for long spans).
func SVG(w io.Writer, title string, rows []Row) error {
	bw := bufio.NewWriter(w)
	span := max(Span(rows), 1)
	width := svgPad*2 + svgLabelWidth + svgPlotWidth
	height := svgTop + len(rows)*svgRowHeight + svgPad*2 + groupGaps(rows)*svgRowHeight/2
	x := func(t int) int { return svgPad + svgLabelWidth + t*svgPlotWidth/span }

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`+"\n",
		width, height, width, height)
	fmt.Fprintf(bw, `<text x="%d" y="20" font-size="16" font-weight="bold">%s</text>`+"\n", svgPad, escape(title))

	step := tickStep(span, 20)
	for t := 0; t <= span; t += step {
		fmt.Fprintf(bw, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="2,3"/>`+"\n",
			x(t), svgTop-8, x(t), height-svgPad, colorAxis)
		fmt.Fprintf(bw, `<text x="%d" y="%d" fill="%s" text-anchor="middle">%d</text>`+"\n", x(t), svgTop-12, colorAxis, t)
	}

	y := svgTop
	prev := ""
	for _, r := range rows {
		if prev != "" && r.Group != prev {
			y += svgRowHeight / 2
		}
		prev = r.Group

		color := colorFree
		switch {
		case r.Group == GroupTimeSaved:
			color = colorTimeSaved
		case r.Chef:
			color = colorChef
		}
		fmt.Fprintf(bw, `<g class="%s">`, escape(r.Group))
		fmt.Fprintf(bw, `<text x="%d" y="%d">%s</text>`, svgPad, y+svgBarHeight-4, escape(r.Group+" · "+r.Label))
		fmt.Fprintf(bw, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s</title></rect>`,
			x(r.Start), y, max(x(r.End)-x(r.Start), 1), svgBarHeight, color,
			escape(fmt.Sprintf("%s: %d-%d", r.Label, r.Start, r.End)))
		bw.WriteString("</g>\n")
		y += svgRowHeight
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func groupGaps(rows []Row) int {
	n := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].Group != rows[i-1].Group {
			n++
		}
	}
	return n
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
