package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nixlim/good-console/internal/console"
)

var (
	colorsHeaderStyle = lipgloss.NewStyle().Bold(true)
	colorsNameStyle   = lipgloss.NewStyle().Width(14)
	colorsCodeStyle   = lipgloss.NewStyle().Width(8)
)

func newColorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colors",
		Short: "Print the color names accepted in [theme]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := renderColors()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}

func renderColors() (string, error) {
	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			colorsNameStyle.Inherit(colorsHeaderStyle).Render("NAME"),
			colorsCodeStyle.Inherit(colorsHeaderStyle).Render("SGR"),
			colorsHeaderStyle.Render("SAMPLE"),
		),
	}
	for _, c := range console.Colors() {
		code, err := console.Code(c)
		if err != nil {
			return "", err
		}
		sample, err := console.Colorize(c, "good-console")
		if err != nil {
			return "", err
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			colorsNameStyle.Render(string(c)),
			colorsCodeStyle.Render(code),
			sample,
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...), nil
}
