package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chefplan/internal/schedule"
)

func newRecipesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List recipes with their optimal and normal totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := loadRecipes(file)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRECIPE\tSTEPS\tOPTIMAL\tNORMAL\tSAVED")
			for i, r := range rs {
				cmp, err := schedule.Compare(r.Steps)
				if err != nil {
					fmt.Fprintf(tw, "%d\t%s\t%d\t-\t-\t%v\n", i, r.Name, len(r.Steps), err)
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\n", i, r.Name, len(r.Steps),
					cmp.Optimal.Makespan, cmp.Normal.Makespan, cmp.TimeSaved)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "recipe file (.json, .yaml, .yml, .toml); built-in recipes when empty")
	return cmd
}
