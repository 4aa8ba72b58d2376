// Package dialog is a small modal with a row of buttons, used to confirm
// destructive actions.
package dialog

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

// Button represents a dialog button. Key, when set, triggers the button
// directly.
type Button struct {
	Label  string
	Key    string
	Action func() tea.Msg
}

// Model is a reusable modal dialog component.
type Model struct {
	title    string
	body     string
	buttons  []Button
	active   int
	initial  int
	visible  bool
	danger   bool
	maxWidth int
}

// New creates a new dialog.
func New(title, body string, buttons ...Button) Model {
	return Model{
		title:    title,
		body:     body,
		buttons:  buttons,
		maxWidth: 60,
	}
}

// Confirm builds a yes/no dialog whose confirm button emits onConfirm. The
// cancel button is preselected.
func Confirm(title, body, confirmLabel string, onConfirm tea.Msg) Model {
	d := New(title, body,
		Button{Label: confirmLabel, Key: "y", Action: func() tea.Msg { return onConfirm }},
		Button{Label: "Cancel", Key: "n"},
	)
	d.initial = 1
	d.danger = true
	return d
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles dialog messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "left", "shift+tab", "h":
		if m.active > 0 {
			m.active--
		}
	case "right", "tab", "l":
		if m.active < len(m.buttons)-1 {
			m.active++
		}
	case "enter":
		return m.press(m.active)
	case "esc", "q":
		m.visible = false
	default:
		for i, b := range m.buttons {
			if b.Key != "" && strings.EqualFold(key.String(), b.Key) {
				return m.press(i)
			}
		}
	}
	return m, nil
}

func (m Model) press(i int) (Model, tea.Cmd) {
	m.visible = false
	if i < 0 || i >= len(m.buttons) || m.buttons[i].Action == nil {
		return m, nil
	}
	return m, m.buttons[i].Action
}

// View renders the dialog box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	th := theme.Current

	title := th.DialogTitle.Render(m.title)
	if m.danger {
		title = th.ErrorText.Bold(true).Render(m.title)
	}

	body := lipgloss.NewStyle().
		Width(m.maxWidth - 4).
		Render(m.body)

	var btns []string
	for i, btn := range m.buttons {
		style := th.DialogButton
		if i == m.active {
			style = th.DialogButtonActive
		}
		label := btn.Label
		if btn.Key != "" {
			label += " (" + btn.Key + ")"
		}
		btns = append(btns, style.Render(label), " ")
	}
	buttonRow := lipgloss.JoinHorizontal(lipgloss.Center, btns...)
	buttonRow = lipgloss.NewStyle().Width(m.maxWidth - 4).Align(lipgloss.Center).Render(buttonRow)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		body,
		"",
		buttonRow,
	)

	return th.DialogBorder.Render(content)
}

// Show makes the dialog visible with the default button selected.
func (m *Model) Show() {
	m.visible = true
	m.active = m.initial
}

// Hide makes the dialog invisible.
func (m *Model) Hide() {
	m.visible = false
}

// Visible returns whether the dialog is shown.
func (m Model) Visible() bool {
	return m.visible
}

// SetSize caps the dialog width to the screen.
func (m *Model) SetSize(width, height int) {
	m.maxWidth = 60
	if m.maxWidth > width-4 {
		m.maxWidth = width - 4
	}
	if m.maxWidth < 20 {
		m.maxWidth = 20
	}
}

// Overlay renders the dialog centered on a width x height screen. The
// background is replaced while the dialog is visible.
func (m Model) Overlay(background string, width, height int) string {
	if !m.visible {
		return background
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.View())
}
