package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chefplan/internal/chart"
	"chefplan/internal/recipe"
	"chefplan/internal/schedule"
)

type planOptions struct {
	file   string
	index  int
	name   string
	mode   string
	asJSON bool
	width  int
}

func newPlanCmd() *cobra.Command {
	var o planOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Schedule one recipe and print both timelines",
		Long: `Schedule one recipe offline. Without --file the built-in recipes are used.
--mode picks "optimal", "normal" or "both" (default).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.file, "file", "f", "", "recipe file (.json, .yaml, .yml, .toml)")
	f.IntVarP(&o.index, "recipe", "r", 0, "0-based recipe index")
	f.StringVarP(&o.name, "name", "n", "", "pick the recipe by name instead of index")
	f.StringVarP(&o.mode, "mode", "m", "both", "optimal, normal or both")
	f.BoolVar(&o.asJSON, "json", false, "print the schedules as JSON")
	f.IntVarP(&o.width, "width", "w", 60, "chart width in columns")
	return cmd
}

func loadRecipes(file string) ([]recipe.Recipe, error) {
	if file == "" {
		return recipe.Builtin(), nil
	}
	return recipe.LoadFile(file)
}

func pickRecipe(rs []recipe.Recipe, index int, name string) (recipe.Recipe, error) {
	if name != "" {
		for _, r := range rs {
			if strings.EqualFold(r.Name, name) {
				return r, nil
			}
		}
		return recipe.Recipe{}, fmt.Errorf("no recipe named %q", name)
	}
	if index < 0 || index >= len(rs) {
		return recipe.Recipe{}, fmt.Errorf("recipe index %d out of range (have %d)", index, len(rs))
	}
	return rs[index], nil
}

func runPlan(w io.Writer, o planOptions) error {
	rs, err := loadRecipes(o.file)
	if err != nil {
		return err
	}
	r, err := pickRecipe(rs, o.index, o.name)
	if err != nil {
		return err
	}
	if err := recipe.Validate(r); err != nil {
		return err
	}

	var modes []schedule.Mode
	if m := strings.ToLower(strings.TrimSpace(o.mode)); m != "" && m != "both" {
		mode, err := schedule.ParseMode(m)
		if err != nil {
			return err
		}
		modes = append(modes, mode)
	}

	cmp, err := schedule.Compare(r.Steps)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Recipe           string                   `json:"recipe"`
			TotalOptimalTime int                      `json:"total_optimal_time"`
			TotalNormalTime  int                      `json:"total_normal_time"`
			StepsOptimal     []schedule.ScheduledStep `json:"steps_optimal"`
			StepsNormal      []schedule.ScheduledStep `json:"steps_normal"`
			TimeSaved        int                      `json:"time_saved"`
		}{r.Name, cmp.Optimal.Makespan, cmp.Normal.Makespan, cmp.Optimal.Steps, cmp.Normal.Steps, cmp.TimeSaved})
	}

	if err := chart.Terminal(w, r.Name, chart.Rows(cmp, modes...), o.width); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\noptimal %d min, normal %d min, saved %d min\n",
		cmp.Optimal.Makespan, cmp.Normal.Makespan, cmp.TimeSaved)
	return err
}
