package display

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ErrNoInteraction is returned when plan selection is requested without a
// terminal to ask on.
var ErrNoInteraction = errors.New("a terminal is required for interactive plan selection")

// ErrSelectionAborted is returned when the user cancels the selection
// dialog.
var ErrSelectionAborted = errors.New("plan selection aborted")

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectionHint = "SPACE to toggle, RETURN to proceed, q to abort"
)

// SelectActions shows a checkbox dialog over the given action names, all
// checked initially, and returns the names the user left checked.
func SelectActions(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, errors.New("no selectable actions found")
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, ErrNoInteraction
	}
	initial := selectModel{names: names, checked: make([]bool, len(names))}
	for i := range initial.checked {
		initial.checked[i] = true
	}
	final, err := tea.NewProgram(initial).Run()
	if err != nil {
		return nil, fmt.Errorf("plan selection: %w", err)
	}
	result := final.(selectModel)
	if result.aborted {
		return nil, ErrSelectionAborted
	}
	var selected []string
	for i, name := range result.names {
		if result.checked[i] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

// selectModel is the bubbletea model behind the selection dialog.
type selectModel struct {
	names   []string
	checked []bool
	cursor  int
	aborted bool
	done    bool
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.cursor = (m.cursor + len(m.names) - 1) % len(m.names)
	case "down", "j":
		m.cursor = (m.cursor + 1) % len(m.names)
	case " ":
		m.checked[m.cursor] = !m.checked[m.cursor]
	case "enter":
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	view := "Select actions (" + selectionHint + ")\n\n"
	for i, name := range m.names {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := dimStyle.Render("[ ]")
		if m.checked[i] {
			box = checkedStyle.Render("[x]")
		}
		view += fmt.Sprintf("%s%s %s\n", cursor, box, name)
	}
	return view
}
