package output

import (
	"fmt"
	"strings"
)

// GoalBar renders progress toward a daily goal, for example
// "████████░░ 1600/2000". When over is true, exceeding the goal is bad
// (calories); otherwise reaching it is good (water).
func GoalBar(value, goal float64, width int, over bool) string {
	if width <= 0 {
		width = 20
	}
	if goal <= 0 {
		return StyleMuted.Render(fmt.Sprintf("%.0f (no goal)", value))
	}

	filled := int((value / goal) * float64(width))
	filled = max(0, min(filled, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	ratio := value / goal
	style := StyleWarning
	switch {
	case over && ratio > 1:
		style = StyleError
	case over && ratio >= 0.8:
		style = StyleSuccess
	case !over && ratio >= 1:
		style = StyleSuccess
	}

	return fmt.Sprintf("%s %s", style.Render(bar), StyleMuted.Render(fmt.Sprintf("%.0f/%.0f", value, goal)))
}

// Bar renders value as a bar scaled against maxValue, used for daily
// charts.
func Bar(value, maxValue float64, width int) string {
	if width <= 0 || maxValue <= 0 || value <= 0 {
		return ""
	}
	n := int(value / maxValue * float64(width))
	n = max(1, min(n, width))
	return strings.Repeat("▇", n)
}

// TrendArrowPercent returns a styled trend indicator for a percentage
// delta. higherIsBetter selects which direction is colored as favorable.
func TrendArrowPercent(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	up := delta > 0
	var arrow string
	if up {
		arrow = fmt.Sprintf("▲ +%.1f%%", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f%%", delta)
	}

	if up == higherIsBetter {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section returns a styled section header with a horizontal rule.
func Section(title string, width int) string {
	if width <= 0 {
		width = 66
	}
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", width))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
