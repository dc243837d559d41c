package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/pkg/format"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List sector templates and their presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(assumptions.Sectors())
			}

			for _, t := range assumptions.Sectors() {
				fmt.Fprintf(out, "%s (%s)\n", t.Key, t.Name)
				if t.Description != "" {
					fmt.Fprintf(out, "  %s\n", t.Description)
				}
				for _, preset := range assumptions.Presets() {
					p, err := t.Preset(preset)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %-12s cogs %-7s opex %-7s growth %s\n",
						preset, format.Percent(p.CogsPercent), format.Percent(p.OpexPercent), growthPath(p.RevenueGrowthPath))
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the templates as JSON")
	return cmd
}

func growthPath(path []float64) string {
	parts := make([]string, len(path))
	for i, g := range path {
		parts[i] = format.Percent(g)
	}
	return strings.Join(parts, " ")
}
