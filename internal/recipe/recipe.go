// Package recipe holds the recipe model, its structural validation, the
// ordered append-only catalog served to clients, and seed data.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chefplan/internal/schedule"
)

var (
	ErrNotFound      = errors.New("recipe not found")
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// Recipe is a name plus an ordered sequence of steps.
type Recipe struct {
	Name  string          `json:"recipe"`
	Steps []schedule.Step `json:"steps"`
}

// Backend persists recipes in insertion order.
type Backend interface {
	AppendRecipe(ctx context.Context, r Recipe) error
	ListRecipes(ctx context.Context) ([]Recipe, error)
}

// Clone returns a deep copy.
func (r Recipe) Clone() Recipe {
	out := Recipe{Name: r.Name, Steps: make([]schedule.Step, len(r.Steps))}
	for i, s := range r.Steps {
		s.Prerequisites = append(make([]int, 0, len(s.Prerequisites)), s.Prerequisites...)
		out.Steps[i] = s
	}
	return out
}

// ValidationError lists every structural problem found in a recipe.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid recipe: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecipe }

// Validate checks structural shape only. Prerequisite semantics are left to
// the scheduler, which reports them when a schedule is computed.
func Validate(r Recipe) error {
	var problems []string
	if len(r.Steps) == 0 {
		problems = append(problems, "recipe must have at least one step")
	}
	for i, s := range r.Steps {
		if strings.TrimSpace(s.Task) == "" {
			problems = append(problems, fmt.Sprintf("task description for step %d cannot be empty", i+1))
		}
		if s.Time < 0 {
			problems = append(problems, fmt.Sprintf("time for step %d must be a non-negative number", i+1))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
