// Package output provides styled terminal rendering helpers for nutriwatch.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for goals met and favorable changes.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for goals exceeded and unfavorable changes.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for values close to a goal.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")

	// ColorWater tints hydration values.
	ColorWater = lipgloss.Color("#4fc3f7")
)

// Styles provides reusable lipgloss styles.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style
	StyleWater   lipgloss.Style

	// StyleLabel is used for metric labels.
	StyleLabel lipgloss.Style

	// StyleValue is used for metric values.
	StyleValue lipgloss.Style
)

var noColor bool

func init() {
	applyStyles(false)
}

func applyStyles(plain bool) {
	base := lipgloss.NewStyle()
	fg := func(c lipgloss.Color) lipgloss.Style {
		if plain {
			return base
		}
		return base.Foreground(c)
	}

	StyleHeader = fg(ColorPrimary)
	StyleSuccess = fg(ColorSuccess)
	StyleError = fg(ColorError)
	StyleWarning = fg(ColorWarning)
	StyleMuted = fg(ColorMuted)
	StyleWater = fg(ColorWater)
	StyleBold = base
	StyleValue = base.Width(12)
	if !plain {
		StyleHeader = StyleHeader.Bold(true)
		StyleBold = StyleBold.Bold(true)
		StyleValue = StyleValue.Bold(true)
	}
	StyleLabel = base.Width(24)
}

// SetNoColor disables or enables color output globally.
func SetNoColor(disabled bool) {
	noColor = disabled
	applyStyles(disabled)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// ShouldColor resolves an output.color setting ("auto", "always" or
// "never") against the given file. Auto colors only terminals and honors
// NO_COLOR.
func ShouldColor(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
