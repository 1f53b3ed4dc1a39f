// Package schedule computes start/end times for an ordered sequence of
// recipe steps that share a single exclusive worker (the chef).
//
// Two disciplines are available:
//   - Sequential: every step runs back-to-back in array order.
//   - ResourceAware: steps wait for their prerequisites, chef-occupying
//     steps are admitted to the chef strictly in array order, and chef-free
//     steps without prerequisites are scheduled to finish together with the
//     step before them.
//
// Compute is pure: it never mutates its input and keeps no state between
// calls, so it is safe to call concurrently.
package schedule

import "fmt"

// Compute schedules steps under mode.
//
// Steps must be in iteration order and, for ResourceAware, every
// prerequisite must reference a strictly earlier position.
func Compute(steps []Step, mode Mode) (Result, error) {
	if len(steps) == 0 {
		return Result{}, fmt.Errorf("%w: recipe has no steps", ErrInvalidInput)
	}
	for i, s := range steps {
		if s.Time < 0 {
			return Result{}, fmt.Errorf("%w: step %d (position %d) has negative time %d", ErrInvalidInput, s.ID, i+1, s.Time)
		}
	}

	switch mode {
	case Sequential:
		return sequential(steps), nil
	case ResourceAware:
		return resourceAware(steps)
	default:
		return Result{}, fmt.Errorf("%w: unknown mode %v", ErrInvalidInput, mode)
	}
}

// Compare runs both disciplines over the same steps.
func Compare(steps []Step) (Comparison, error) {
	optimal, err := Compute(steps, ResourceAware)
	if err != nil {
		return Comparison{}, err
	}
	normal, err := Compute(steps, Sequential)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Optimal:   optimal,
		Normal:    normal,
		TimeSaved: normal.Makespan - optimal.Makespan,
	}, nil
}

func sequential(steps []Step) Result {
	out := make([]ScheduledStep, 0, len(steps))
	clock := 0
	for _, s := range steps {
		placed := annotate(s, clock)
		clock = placed.End
		out = append(out, placed)
	}
	return Result{Mode: Sequential, Makespan: clock, Steps: out}
}

// chefFold is the accumulator threaded through the resource-aware pass.
type chefFold struct {
	placed        []ScheduledStep
	chefBusyUntil int
}

func resourceAware(steps []Step) (Result, error) {
	acc := chefFold{placed: make([]ScheduledStep, 0, len(steps))}
	for i, s := range steps {
		next, err := acc.place(i, s, len(steps))
		if err != nil {
			return Result{}, err
		}
		acc = next
	}

	makespan := 0
	for _, p := range acc.placed {
		makespan = max(makespan, p.End)
	}
	return Result{Mode: ResourceAware, Makespan: makespan, Steps: acc.placed}, nil
}

// place returns the accumulator advanced by the step at position i.
func (f chefFold) place(i int, s Step, n int) (chefFold, error) {
	start := 0
	switch {
	case len(s.Prerequisites) > 0:
		for _, p := range s.Prerequisites {
			if err := checkPrerequisite(i, s, p, n); err != nil {
				return f, err
			}
			start = max(start, f.placed[p-1].End)
		}
	case s.ID > 1 && !s.OccupiesChef && i > 0:
		// Chef-free prep with no dependency finishes together with the previous step.
		start = max(f.placed[i-1].End-s.Time, 0)
	}

	busy := f.chefBusyUntil
	if s.OccupiesChef {
		start = max(start, busy)
		busy = start + s.Time
	}

	return chefFold{
		placed:        append(f.placed, annotate(s, start)),
		chefBusyUntil: busy,
	}, nil
}

func checkPrerequisite(i int, s Step, p, n int) error {
	var reason string
	switch {
	case p <= 0:
		reason = "must be positive"
	case p > n:
		reason = fmt.Sprintf("exceeds the number of steps (%d)", n)
	case p-1 >= i:
		reason = "does not refer to an earlier step"
	default:
		return nil
	}
	return &PrerequisiteError{StepID: s.ID, Position: i, Prerequisite: p, Reason: reason}
}

// annotate builds a fresh record; the prerequisite slice is copied so the
// result never aliases caller input. It is never nil so it encodes as [].
func annotate(s Step, start int) ScheduledStep {
	cp := s
	cp.Prerequisites = append(make([]int, 0, len(s.Prerequisites)), s.Prerequisites...)
	return ScheduledStep{Step: cp, Start: start, End: start + s.Time}
}
