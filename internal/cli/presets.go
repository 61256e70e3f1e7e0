package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/preset"
)

// presetsCommand lists the preset catalog.
func (c *CLI) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List page presets, outfits and studio colors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render("Page presets"))
			fmt.Println(pagesTable(cat.Pages))
			printNewline()
			fmt.Println(StyleTitle.Render("Outfits"))
			fmt.Println(outfitsTable(cat.Outfits))
			printNewline()
			fmt.Println(StyleTitle.Render("Studio colors"))
			fmt.Println(colorsTable(cat.Colors))
			return nil
		},
	}
}

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		})
}

func pagesTable(pages []preset.Page) string {
	t := newTable("Name", "Size", "Description")
	for _, p := range pages {
		t.Row(p.Name, fmt.Sprintf("%dx%d", p.Width, p.Height), p.Description)
	}
	return t.Render()
}

func outfitsTable(outfits []preset.Outfit) string {
	t := newTable("ID", "Label", "Prompt")
	for _, o := range outfits {
		t.Row(o.ID, o.Label, o.Prompt)
	}
	return t.Render()
}

func colorsTable(colors []preset.Color) string {
	t := newTable("Name", "Value", "")
	for _, c := range colors {
		swatch := StyleDim.Render("none")
		if c.Value != errors.Transparent {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(c.Value)).Render("    ")
		}
		t.Row(c.Name, c.Value, swatch)
	}
	return t.Render()
}
