package schedule

import (
	"fmt"
	"strings"
)

// Step is one unit of work within a recipe.
//
// ID must equal the step's 1-based position in its sequence: a prerequisite
// value p is resolved as "the step at position p", not by searching IDs.
type Step struct {
	ID            int    `json:"id"`
	Task          string `json:"task"`
	Time          int    `json:"time"`
	Prerequisites []int  `json:"prerequisites"`
	OccupiesChef  bool   `json:"occupies_chef"`
}

// ScheduledStep is a Step annotated with its computed interval.
// End is always Start + Time.
type ScheduledStep struct {
	Step
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result is the output of one Compute call.
type Result struct {
	Mode     Mode
	Makespan int
	Steps    []ScheduledStep
}

// Comparison holds both disciplines for the same input.
type Comparison struct {
	Optimal Result
	Normal  Result

	// TimeSaved is Normal.Makespan - Optimal.Makespan. It can be negative.
	TimeSaved int
}

// Mode selects the scheduling discipline.
type Mode int

const (
	// Sequential chains every step after the previous one.
	Sequential Mode = iota
	// ResourceAware honours prerequisites and chef exclusivity.
	ResourceAware
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case ResourceAware:
		return "resource_aware"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the canonical names plus the "normal"/"optimal" aliases
// used by the HTTP surface.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "normal":
		return Sequential, nil
	case "resource_aware", "resource-aware", "optimal":
		return ResourceAware, nil
	default:
		return 0, fmt.Errorf("unknown schedule mode %q", s)
	}
}
