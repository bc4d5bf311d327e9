// Command edulandctl inspects a game catalog and simulates production
// offline, without a running server.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
)

var catalogFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "edulandctl",
		Short:         "Eduland catalog and economy tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&catalogFile, "file", "f", "", "catalog YAML (default: embedded catalog)")

	root.AddCommand(newCatalogCmd(), newAccrualCmd(), newMineCmd())
	return root
}

func loadCatalog() (*catalog.Catalog, error) {
	return catalog.FromPath(catalogFile)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithHeader(header))
}

// formatResources renders a bundle in catalog display order
func formatResources(r core.Resources) string {
	if r.IsEmpty() {
		return "-"
	}
	parts := make([]string, 0, len(r))
	for _, kind := range core.AllResourceKinds {
		if v := r[kind]; v != 0 {
			parts = append(parts, fmt.Sprintf("%s %d", kind, v))
		}
	}
	return strings.Join(parts, ", ")
}

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)
