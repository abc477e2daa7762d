package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), versionCard())
			return nil
		},
	}
	return cmd
}

// versionCard renders a small bordered summary, trimmed down from the
// teacher's internal/components card primitive (not carried over in full,
// since the interactive TUI dashboard it served is out of scope here).
func versionCard() string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 2)

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Render("dagflow")
	rows := []string{
		title,
		fmt.Sprintf("version: %s", version),
		fmt.Sprintf("commit:  %s", commit),
		fmt.Sprintf("built:   %s", date),
		fmt.Sprintf("go:      %s", runtime.Version()),
	}
	return border.Render(strings.Join(rows, "\n"))
}
