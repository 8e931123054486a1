// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"duet/internal/config"
	"duet/internal/connector"
)

var (
	// Text hierarchy
	TextPrimaryColor = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"}
	TextMutedColor   = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}

	// Borders
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"}

	// Status
	StatusErrorColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
)

// Theme bundles every style the viewer renders with, derived from the
// user-facing theme colors.
type Theme struct {
	Addition  lipgloss.Style
	Deletion  lipgloss.Style
	Change    lipgloss.Style
	Context   lipgloss.Style
	LineNum   lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style

	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	FileSelected lipgloss.Style
	FileNormal   lipgloss.Style
	PaneBorder   lipgloss.Style
	FocusBorder  lipgloss.Style
	HelpKey      lipgloss.Style
	HelpDesc     lipgloss.Style
	Muted        lipgloss.Style
}

// NewTheme builds the style set from config colors.
func NewTheme(cfg config.ThemeConfig) Theme {
	addition := lipgloss.Color(cfg.Addition)
	deletion := lipgloss.Color(cfg.Deletion)
	change := lipgloss.Color(cfg.Change)
	highlight := lipgloss.Color(cfg.Highlight)
	subtle := lipgloss.Color(cfg.Subtle)
	errColor := lipgloss.Color(cfg.Error)

	return Theme{
		Addition:  lipgloss.NewStyle().Foreground(addition),
		Deletion:  lipgloss.NewStyle().Foreground(deletion),
		Change:    lipgloss.NewStyle().Foreground(change),
		Context:   lipgloss.NewStyle().Foreground(TextPrimaryColor),
		LineNum:   lipgloss.NewStyle().Foreground(subtle),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(highlight),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(change).Bold(true),

		StatusBar:    lipgloss.NewStyle().Foreground(TextPrimaryColor).Background(lipgloss.Color("#2D3436")),
		StatusError:  lipgloss.NewStyle().Foreground(errColor),
		FileSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true),
		FileNormal:   lipgloss.NewStyle().Foreground(TextPrimaryColor),
		PaneBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderDefaultColor),
		FocusBorder:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderFocusColor),
		HelpKey:      lipgloss.NewStyle().Foreground(change).Bold(true),
		HelpDesc:     lipgloss.NewStyle().Foreground(TextMutedColor),
		Muted:        lipgloss.NewStyle().Foreground(TextMutedColor),
	}
}

// ConnectorStyles maps theme colors onto the gutter renderer's shape kinds.
func (t Theme) ConnectorStyles() connector.Styles {
	return connector.Styles{
		Modification: t.Change,
		Insertion:    t.Addition,
		Deletion:     t.Deletion,
	}
}
