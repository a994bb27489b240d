package display

import (
	"github.com/gookit/color"

	"github.com/vk/grana/internal/model"
)

// statusColors maps each status to its banner color.
var statusColors = map[model.Status]color.Color{
	model.StatusPending:   color.FgGray,
	model.StatusReady:     color.FgGray,
	model.StatusSkipped:   color.FgGray,
	model.StatusOmitted:   color.FgGray,
	model.StatusCancelled: color.FgGray,
	model.StatusFailure:   color.FgRed,
	model.StatusWarning:   color.FgYellow,
	model.StatusSuccess:   color.FgGreen,
}

func colorize(status model.Status, text string) string {
	c, ok := statusColors[status]
	if !ok {
		return text
	}
	return c.Render(text)
}

func gray(text string) string   { return color.FgGray.Render(text) }
func red(text string) string    { return color.FgRed.Render(text) }
func yellow(text string) string { return color.FgYellow.Render(text) }

// ForceColor enables ANSI sequences even when stdout is not a terminal.
func ForceColor() {
	color.ForceOpenColor()
}
