package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	welcomeTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	welcomeGoldStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	welcomeMutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	welcomeGreenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

const welcomeLogo = `
   ████████╗██████╗ ██╗ █████╗ ██████╗ ██████╗
   ╚══██╔══╝██╔══██╗██║██╔══██╗██╔══██╗██╔══██╗
      ██║   ██████╔╝██║███████║██████╔╝██████╔╝
      ██║   ██╔══██╗██║██╔══██║██╔══██╗██╔══██╗
      ██║   ██║  ██║██║██║  ██║██║  ██║██████╔╝
      ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═════╝
`

// spinnerFrame picks the animation frame for the current wall clock.
func spinnerFrame() string {
	frames := []string{"⟳", "◐", "◓", "◑", "◒"}
	return frames[int(time.Now().UnixMilli()/100)%len(frames)]
}

func (m Model) renderWelcomeScreen() string {
	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var b strings.Builder
	b.WriteString("\n\n\n\n")
	b.WriteString(welcomeTitleStyle.Render(welcomeLogo))
	b.WriteString("\n")
	b.WriteString(welcomeMutedStyle.Render("        T R I A N G U L A R   A R B I T R A G E"))
	b.WriteString("\n\n\n")
	b.WriteString(welcomeGoldStyle.Render("              💰  Three legs, one profit  💰"))
	b.WriteString("\n\n\n")
	b.WriteString(welcomeGreenStyle.Render("                  Initializing" + dots))
	b.WriteString("\n\n")
	b.WriteString(welcomeMutedStyle.Render("            Press any key to skip, or wait..."))
	b.WriteString("\n")
	return b.String()
}

// stepBadge maps a startup step status to its icon, label and style.
func (m Model) stepBadge(status string) (string, string, lipgloss.Style) {
	switch status {
	case "connected", "done":
		return "✓", "Ready", welcomeGreenStyle
	case "connecting":
		frames := []string{"◐", "◓", "◑", "◒"}
		frame := frames[int(time.Since(m.startupTime).Milliseconds()/200)%len(frames)]
		return frame, "Connecting...", welcomeGoldStyle
	case "failed":
		return "✗", "Failed", lipgloss.NewStyle().Foreground(ColorDanger)
	default:
		return "○", "Pending", welcomeMutedStyle
	}
}

func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent).MarginBottom(1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("  △ Triangular Arbitrage Engine"))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("  Starting up..."))
	b.WriteString("\n\n")

	for _, name := range startupOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}
		icon, label, style := m.stepBadge(step.Status)
		fmt.Fprintf(&b, "  %s %s %s\n",
			style.Render(icon),
			welcomeMutedStyle.Render(step.Name),
			style.Render(label))
	}

	b.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	b.WriteString(welcomeMutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	b.WriteString("\n\n")
	b.WriteString(welcomeMutedStyle.Render("  Waiting for first snapshot batch..."))
	b.WriteString("\n")
	return b.String()
}
