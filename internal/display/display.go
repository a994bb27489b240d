package display

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/vk/grana/internal/engine"
	"github.com/vk/grana/internal/model"
)

// Display consumes engine events and renders them for an interactive user.
// Banner is called once after the run with the final statuses; order fixes
// the banner line order.
type Display interface {
	engine.Sink
	Banner(states map[string]model.Status)
}

// Factory builds a display writing to out, for the given banner order.
type Factory func(out io.Writer, order []string) Display

var knownDisplays = map[string]Factory{}

// MustRegister adds a display layout. Duplicate names are a programmer
// error.
func MustRegister(name string, factory Factory) {
	if _, exists := knownDisplays[name]; exists {
		panic(fmt.Sprintf("display %q already registered", name))
	}
	knownDisplays[name] = factory
}

// New builds a registered display by name.
func New(name string, out io.Writer, order []string) (Display, error) {
	factory, ok := knownDisplays[name]
	if !ok {
		return nil, fmt.Errorf("unknown display %q (known: %v)", name, Names())
	}
	return factory(out, order), nil
}

// Names returns all registered display names, sorted.
func Names() []string {
	names := make([]string, 0, len(knownDisplays))
	for name := range knownDisplays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	MustRegister("prefixes", func(out io.Writer, order []string) Display {
		return &prefixDisplay{console: console{out: out, order: order}}
	})
	MustRegister("headers", func(out io.Writer, order []string) Display {
		return &headerDisplay{console: console{out: out, order: order}}
	})
}

// console is the shared state of the bundled display layouts. The mutex
// serializes output lines arriving from concurrently running actions.
type console struct {
	mu    sync.Mutex
	out   io.Writer
	order []string

	lastDisplayed string
}

func (c *console) println(line string) {
	fmt.Fprintln(c.out, line)
}

// errorLines extracts displayable failure causes from a transition.
func errorLines(event engine.Event) []string {
	if event.Cause == "" {
		return nil
	}
	switch event.To {
	case model.StatusFailure, model.StatusWarning:
		return []string{event.Cause}
	}
	return nil
}

// prefixDisplay tags every line with a left-justified action name column.
type prefixDisplay struct {
	console
}

func (d *prefixDisplay) nameColumnWidth() int {
	width := 0
	for _, name := range d.order {
		if len(name) > width {
			width = len(name)
		}
	}
	// Account for the square brackets around the name.
	return width + 2
}

func (d *prefixDisplay) prologue(action, mark string) string {
	width := d.nameColumnWidth()
	formatted := ""
	if d.lastDisplayed != action {
		formatted = "[" + action + "]"
	}
	for len(formatted) < width {
		formatted += " "
	}
	d.lastDisplayed = action
	return gray(fmt.Sprintf("%s %s| ", formatted, mark))
}

func (d *prefixDisplay) OnActionMessage(action, line string, stderr bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mark := " "
	if stderr {
		line = yellow(line)
		mark = "*"
	}
	d.println(d.prologue(action, mark) + line)
}

func (d *prefixDisplay) OnTransition(event engine.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, line := range errorLines(event) {
		d.println(d.prologue(event.Action, "!") + red(line))
	}
}

func (d *prefixDisplay) Banner(states map[string]model.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.println(gray(ruler(d.nameColumnWidth() + 9)))
	for _, name := range d.order {
		status := states[name]
		d.println(fmt.Sprintf("%s: %s", colorize(status, string(status)), name))
	}
}

func ruler(width int) string {
	line := make([]byte, width)
	for i := range line {
		line[i] = '='
	}
	return string(line)
}

// headerDisplay groups consecutive lines of one action under a header rule.
type headerDisplay struct {
	console
}

var statusMarks = map[model.Status]string{
	model.StatusFailure: "✗",
	model.StatusWarning: "✓",
	model.StatusSuccess: "✓",
}

func (d *headerDisplay) closeBlockIfNecessary() {
	if d.lastDisplayed != "" {
		d.println(gray(" ╵"))
	}
}

func (d *headerDisplay) prologue(action, mark string) string {
	if d.lastDisplayed != action {
		d.closeBlockIfNecessary()
		d.println(gray(fmt.Sprintf(" ┌─[%s]", action)))
		d.lastDisplayed = action
	}
	return gray(mark + "│ ")
}

func (d *headerDisplay) OnActionMessage(action, line string, stderr bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mark := " "
	if stderr {
		line = yellow(line)
		mark = "*"
	}
	d.println(d.prologue(action, mark) + line)
}

func (d *headerDisplay) OnTransition(event engine.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, line := range errorLines(event) {
		d.println(d.prologue(event.Action, "!") + red(line))
	}
}

func (d *headerDisplay) Banner(states map[string]model.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeBlockIfNecessary()
	for _, name := range d.order {
		status := states[name]
		mark, ok := statusMarks[status]
		if !ok {
			mark = "◯"
		}
		d.println(colorize(status, fmt.Sprintf(" %s %s: %s", mark, status, name)))
	}
}
