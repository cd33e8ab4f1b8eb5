package home

import (
	"charm.land/lipgloss/v2"

	"github.com/solvrlabs/solvr/internal/ui/theme"
)

const bannerFull = ` ███████╗ ██████╗ ██╗    ██╗   ██╗██████╗
 ██╔════╝██╔═══██╗██║    ██║   ██║██╔══██╗
 ███████╗██║   ██║██║    ██║   ██║██████╔╝
 ╚════██║██║   ██║██║    ╚██╗ ██╔╝██╔══██╗
 ███████║╚██████╔╝███████╗╚████╔╝ ██║  ██║
 ╚══════╝ ╚═════╝ ╚══════╝ ╚═══╝  ╚═╝  ╚═╝`

const bannerCompact = "S · O · L · V · R"

const tagline = "Snap a question, get the full solution."

// renderBanner returns the styled title block or compact fallback.
func renderBanner(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := bannerFull
	if compact {
		art = bannerCompact
	}

	banner := lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))

	sub := lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Italic(true).
		Render(tagline)

	return banner + "\n" + sub
}
