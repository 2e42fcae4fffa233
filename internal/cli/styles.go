package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Colors defines the color palette for CLI output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color

	// Status colors
	Assigned   lipgloss.Color
	InProgress lipgloss.Color
	Review     lipgloss.Color
	Approved   lipgloss.Color
	Rejected   lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Warning: lipgloss.Color("#FDCB6E"), // Yellow

	Assigned:   lipgloss.Color("#74B9FF"), // Light blue
	InProgress: lipgloss.Color("#FDCB6E"), // Yellow
	Review:     lipgloss.Color("#A29BFE"), // Lavender
	Approved:   lipgloss.Color("#00B894"), // Green
	Rejected:   lipgloss.Color("#D63031"), // Red
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary)
	mutedStyle   = lipgloss.NewStyle().Foreground(Colors.Muted)
	warningStyle = lipgloss.NewStyle().Foreground(Colors.Warning)
)

// StatusStyle returns the badge style for a task status.
func StatusStyle(s domain.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch s {
	case domain.StatusAssigned:
		return base.Foreground(Colors.Assigned)
	case domain.StatusInProgressTech:
		return base.Foreground(Colors.InProgress)
	case domain.StatusReadyForReview:
		return base.Foreground(Colors.Review)
	case domain.StatusApproved:
		return base.Foreground(Colors.Approved)
	case domain.StatusRejectedNeedsFix:
		return base.Foreground(Colors.Rejected)
	default:
		return base.Foreground(Colors.Muted)
	}
}

// renderStatus renders a status badge such as "Ready for Review (READY_FOR_REVIEW)".
func renderStatus(s domain.Status) string {
	return StatusStyle(s).Render(s.Display()) + " " + mutedStyle.Render("("+string(s)+")")
}
