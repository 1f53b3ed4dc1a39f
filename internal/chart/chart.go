// Package chart renders schedule comparisons as Gantt charts: SVG for the
// HTTP surface and a lipgloss-styled text chart for the terminal.
package chart

import (
	"fmt"

	"chefplan/internal/schedule"
)

const (
	GroupNormal    = "normal"
	GroupOptimal   = "optimal"
	GroupTimeSaved = "time_saved"
)

// Row is one horizontal bar covering [Start, End).
type Row struct {
	Group string `json:"group"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Chef  bool   `json:"chef"`
}

// Rows lays out a comparison. With no modes both schedules are included,
// normal first, followed by a time_saved bar spanning the two makespans.
// With modes only those schedules are included and no time_saved bar.
func Rows(cmp schedule.Comparison, modes ...schedule.Mode) []Row {
	both := len(modes) == 0
	want := func(m schedule.Mode) bool {
		if both {
			return true
		}
		for _, x := range modes {
			if x == m {
				return true
			}
		}
		return false
	}

	var rows []Row
	if want(schedule.Sequential) {
		rows = appendSteps(rows, GroupNormal, cmp.Normal.Steps)
	}
	if want(schedule.ResourceAware) {
		rows = appendSteps(rows, GroupOptimal, cmp.Optimal.Steps)
	}
	if both && cmp.TimeSaved != 0 {
		lo, hi := cmp.Optimal.Makespan, cmp.Normal.Makespan
		if lo > hi {
			lo, hi = hi, lo
		}
		rows = append(rows, Row{
			Group: GroupTimeSaved,
			Label: fmt.Sprintf("time saved: %d", cmp.TimeSaved),
			Start: lo,
			End:   hi,
		})
	}
	return rows
}

func appendSteps(rows []Row, group string, steps []schedule.ScheduledStep) []Row {
	for _, s := range steps {
		rows = append(rows, Row{
			Group: group,
			Label: fmt.Sprintf("%d. %s", s.ID, s.Task),
			Start: s.Start,
			End:   s.End,
			Chef:  s.OccupiesChef,
		})
	}
	return rows
}

// Span is the largest End over rows.
func Span(rows []Row) int {
	span := 0
	for _, r := range rows {
		span = max(span, r.End)
	}
	return span
}

// tickStep starts at 10 and doubles until at most maxTicks ticks fit.
func tickStep(span, maxTicks int) int {
	step := 10
	for span/step > maxTicks {
		step *= 2
	}
	return step
}
