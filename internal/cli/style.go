package cli

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary = lipgloss.Color("#7C3AED")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Cyan    = lipgloss.Color("#06B6D4")
	Dim     = lipgloss.Color("#6B7280")

	Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
		Foreground(Dim).
		Italic(true)

	Bold      = lipgloss.NewStyle().Bold(true)
	Healthy   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Unhealthy = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warning   = lipgloss.NewStyle().Foreground(Yellow)
	DimText   = lipgloss.NewStyle().Foreground(Dim)
	Kind      = lipgloss.NewStyle().Foreground(Cyan)

	Key = lipgloss.NewStyle().Foreground(Dim).Width(16)
)

// StatusText renders a status label in its health color.
func StatusText(status string) string {
	switch status {
	case "Healthy", "healthy":
		return Healthy.Render(status)
	case "Unhealthy", "unhealthy":
		return Unhealthy.Render(status)
	case "Checking", "checking":
		return Warning.Render(status)
	}
	return DimText.Render(status)
}
