package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/finchly/parley/internal/discussion"
	"github.com/finchly/parley/internal/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	roundStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	agreeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disagreeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	abstainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RenderTerminal renders a finished discussion for display, with stances
// color-coded and message content truncated to the terminal width.
func RenderTerminal(disc *discussion.Discussion, width int) string {
	if width <= 0 {
		width = 100
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(disc.Topic.Subject))
	sb.WriteString("\n")

	verdict := failureStyle.Render(fmt.Sprintf("✗ no consensus (%.0f%%)", disc.FinalScore*100))
	if disc.Success {
		verdict = successStyle.Render(fmt.Sprintf("✓ consensus reached (%.0f%%)", disc.FinalScore*100))
	}
	sb.WriteString(verdict)
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s in %s",
		util.Pluralize(len(disc.Rounds), "round", "rounds"),
		disc.Duration.Round(time.Millisecond))))
	sb.WriteString("\n\n")

	for _, round := range disc.Rounds {
		sb.WriteString(roundStyle.Render(fmt.Sprintf("Round %d - %.0f%%", round.Number, round.Score*100)))
		sb.WriteString("\n")
		for _, msg := range round.Messages {
			line := fmt.Sprintf("  %s %s  %s",
				stanceBadge(msg.Stance),
				msg.Participant,
				strings.ReplaceAll(msg.Content, "\n", " "))
			sb.WriteString(util.TruncateANSI(line, width))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render("progression: " + strings.TrimSpace(progression(disc.Rounds))))
	sb.WriteString("\n")
	return sb.String()
}

// stanceBadge returns the color-coded stance marker.
func stanceBadge(s discussion.Stance) string {
	switch s {
	case discussion.StanceAgree:
		return agreeStyle.Render("[agree]   ")
	case discussion.StanceDisagree:
		return disagreeStyle.Render("[disagree]")
	default:
		return abstainStyle.Render("[abstain] ")
	}
}
