package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/treewalk/internal/models"
)

// colorScheme defines consistent colors for summary metrics.
// Green: success, red: failure, yellow: warnings, cyan: labels.
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme. With enabled false every
// color prints plain text regardless of the terminal.
func newColorScheme(enabled bool) *colorScheme {
	s := &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
	for _, c := range []*color.Color{s.success, s.fail, s.warn, s.label, s.value} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// metric formats "label: value" with a colored label.
func (s *colorScheme) metric(label string, value any) string {
	return fmt.Sprintf("%s: %s", s.label.Sprint(label), s.value.Sprintf("%v", value))
}

// formatCounts renders the visit counters of a summary.
// Format: "Visited: N, Succeeded: N, Failed: N, Dispatched: N"
func formatCounts(summary models.WalkSummary, s *colorScheme) string {
	parts := []string{
		s.metric("Visited", summary.Visited),
		fmt.Sprintf("%s: %s", s.success.Sprint("Succeeded"), s.value.Sprintf("%d", summary.Succeeded())),
	}

	failed := s.value.Sprintf("%d", summary.Failed)
	if summary.Failed > 0 {
		failed = s.fail.Sprintf("%d", summary.Failed)
	}
	parts = append(parts, fmt.Sprintf("%s: %s", s.fail.Sprint("Failed"), failed))
	parts = append(parts, s.metric("Dispatched", summary.Dispatched))

	return strings.Join(parts, ", ")
}
