package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"loadstar/internal/catalog"
)

var (
	listCategory string
	listPresets  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List installable entries and how they install on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(dryRun)
		if err != nil {
			return err
		}
		if listPresets {
			return writePresets(cmd.OutOrStdout(), a.catalog)
		}
		return writeCatalog(cmd.OutOrStdout(), a.catalog, a.host.Platform, listCategory)
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Only list this category")
	catalogCmd.Flags().BoolVar(&listPresets, "presets", false, "List presets instead of entries")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)
var dimStyle = cellStyle.Foreground(lipgloss.Color("244"))

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeCatalog(w io.Writer, cat *catalog.Catalog, p catalog.Platform, category string) error {
	if category != "" {
		if _, ok := cat.Category(category); !ok {
			return fmt.Errorf("unknown category %q", category)
		}
	}
	t := newTable("ID", "Name", "Category", "Install")
	unsupported := map[int]bool{}
	row := 0
	for _, e := range cat.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		install := "unsupported here"
		if m, err := e.MethodFor(p); err == nil {
			install = m.String()
		} else {
			unsupported[row] = true
		}
		name := e.Name
		if e.HasTag("essential") {
			name += " *"
		}
		t.Row(e.ID, name, e.Category, install)
		row++
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case unsupported[row]:
			return dimStyle
		}
		return cellStyle
	})
	_, err := fmt.Fprintln(w, t.Render())
	if err == nil {
		_, err = fmt.Fprintln(w, "* pre-selected")
	}
	return err
}

func writePresets(w io.Writer, cat *catalog.Catalog) error {
	t := newTable("Preset", "Items", "Includes")
	for _, p := range cat.Presets() {
		ids, err := cat.PresetIDs(p.Name)
		if err != nil {
			return err
		}
		includes := strings.Join(ids, ", ")
		if p.All {
			includes = "everything"
		}
		t.Row(p.Name, fmt.Sprint(len(ids)), includes)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
