// Package cli renders pipeline traces, verdicts and the metrics dashboard for terminals.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// SpamColor marks spam verdicts and failures.
	SpamColor = lipgloss.Color("#f43f5e")
	// SafeColor marks safe verdicts and completed steps.
	SafeColor = lipgloss.Color("#10b981")
	// ActiveColor marks the running step.
	ActiveColor = lipgloss.Color("#6366f1")
	// SubtleColor is used for pending steps and labels.
	SubtleColor = lipgloss.Color("#64748b")
)

// styles are bound to one lipgloss renderer so colour detection follows the output writer
type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	label    lipgloss.Style
	spam     lipgloss.Style
	safe     lipgloss.Style
	active   lipgloss.Style
	subtle   lipgloss.Style
	box      lipgloss.Style
	tag      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(ActiveColor),
		subtitle: r.NewStyle().
			Foreground(SubtleColor),
		label: r.NewStyle().
			Bold(true).
			Foreground(SubtleColor),
		spam: r.NewStyle().
			Bold(true).
			Foreground(SpamColor),
		safe: r.NewStyle().
			Bold(true).
			Foreground(SafeColor),
		active: r.NewStyle().
			Foreground(ActiveColor),
		subtle: r.NewStyle().
			Foreground(SubtleColor),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 1),
		tag: r.NewStyle().
			Border(lipgloss.NormalBorder(), false, true).
			BorderForeground(SubtleColor).
			Padding(0, 1),
	}
}
