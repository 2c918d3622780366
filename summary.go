package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"utrinv/pkg/tally"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

// renderSummary formats the accumulated results for the terminal.
func renderSummary(acc *tally.Accumulator) string {
	lines := []string{
		titleStyle.Render("Inventory summary"),
		fmt.Sprintf("Iterations:  %d", acc.Iterations),
		fmt.Sprintf("Read time:   %.2f s", acc.ReadTime.Seconds()),
		fmt.Sprintf("Total reads: %d (%d unique)", acc.TotalReads, acc.Unique()),
		fmt.Sprintf("Average:     %.2f tags/round", acc.Average()),
	}
	if acc.Mismatches > 0 || acc.Nacks > 0 || acc.Timeouts > 0 || acc.Failures > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf(
			"Anomalies:   %d mismatches, %d NACKs, %d timeouts, %d undecodable",
			acc.Mismatches, acc.Nacks, acc.Timeouts, acc.Failures)))
	}
	lines = append(lines, "")
	tags := acc.Tags()
	if len(tags) == 0 {
		lines = append(lines, metaStyle.Render("(no tags read)"))
	}
	for _, t := range tags {
		lines = append(lines, fmt.Sprintf("%s  x%-4d %s", t.ID, t.Count, metaStyle.Render(t.LastRSSI.String())))
	}
	return frameStyle.Render(strings.Join(lines, "\n"))
}
