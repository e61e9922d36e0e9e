// Package viz renders run results for the terminal.
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	Good = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Bad = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))
)

// KV renders one aligned label/value line.
func KV(label string, value any) string {
	return MetricLabel.Render(fmt.Sprintf("%-16s", label)) + MetricValue.Render(fmt.Sprint(value))
}

// Metrics renders a metric table sorted by name inside a panel.
func Metrics(title string, m map[string]float64) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	lines := []string{Title.Render(title)}
	for _, name := range names {
		lines = append(lines, KV(name, fmt.Sprintf("%.6g", m[name])))
	}
	return Panel.Render(strings.Join(lines, "\n"))
}
