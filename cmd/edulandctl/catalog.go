package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduland/eduland-server/internal/game/effects"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and list catalog data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the catalog and report every problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				errorColor.Fprintln(cmd.ErrOrStderr(), "✗ catalog is invalid")
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✓ catalog is valid: %d buildings, %d sciences, %d missions\n",
				len(cat.Buildings), len(cat.Sciences), len(cat.Missions))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "buildings",
		Short: "List buildings per level",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			titleColor.Fprintln(out, "Buildings")
			table := newTable(out, "Building", "Level", "Cost", "Production/h", "Slots", "Build")
			for _, b := range cat.Buildings {
				for _, l := range b.Levels {
					_ = table.Append([]string{
						b.ID,
						fmt.Sprintf("%d", l.Level),
						formatResources(l.Cost),
						formatResources(l.Production),
						fmt.Sprintf("%d", l.WorkerSlots),
						fmt.Sprintf("%dm", l.BuildMinutes),
					})
				}
			}
			return table.Render()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sciences",
		Short: "List the tech tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			titleColor.Fprintln(out, "Sciences")
			table := newTable(out, "Science", "Discipline", "Requires", "Cost", "RP", "Time", "Effects")
			for _, s := range cat.Sciences {
				requires := "-"
				if len(s.Prerequisites) > 0 {
					requires = strings.Join(s.Prerequisites, ", ")
				}
				_ = table.Append([]string{
					s.ID,
					string(s.Discipline),
					requires,
					formatResources(s.Cost),
					fmt.Sprintf("%d", s.ResearchPoints),
					fmt.Sprintf("%dm", s.BaseMinutes),
					formatSpec(s.Effects),
				})
			}
			return table.Render()
		},
	})

	return cmd
}

func formatSpec(s effects.Spec) string {
	if len(s) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(s))
	for _, k := range effects.Keys() {
		if v, ok := s[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return strings.Join(parts, ", ")
}
