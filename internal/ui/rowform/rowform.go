// Package rowform renders a create or edit form for one row: one input per
// form.Field, with boolean toggles, foreign-key selects that can be fuzzy
// filtered, and an optional highlighted preview of the payload that would be
// sent.
package rowform

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/form"
	appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

const (
	noneLabel     = "(none)"
	linesPerField = 2
)

// Model is the row form component.
type Model struct {
	table   string
	mode    form.Mode
	rowID   string
	fields  []form.Field
	values  form.State
	inputs  map[string]*textinput.Model
	focus   int
	top     int
	visible bool
	focused bool
	saving  bool
	err     string

	// select filtering
	filtering bool
	filter    textinput.Model
	matches   []int

	preview     bool
	previewText string
	previewView string

	width  int
	height int
}

// New creates a hidden form.
func New() Model {
	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter options"
	fi.CharLimit = 64
	return Model{filter: fi}
}

// Open shows a form for fields with the given initial values.
func (m *Model) Open(table string, mode form.Mode, rowID string, fields []form.Field, initial form.State) {
	m.table = table
	m.mode = mode
	m.rowID = rowID
	m.fields = fields
	m.values = initial.Clone()
	m.inputs = make(map[string]*textinput.Model)
	m.top = 0
	m.visible = true
	m.saving = false
	m.err = ""
	m.preview = false
	m.previewText, m.previewView = "", ""
	m.stopFilter()

	for _, f := range fields {
		if f.Widget == form.WidgetBoolean || f.Widget == form.WidgetSelect {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.SetValue(schema.FormatValue(m.values[f.Name()]))
		switch f.Widget {
		case form.WidgetDate:
			ti.Placeholder = "YYYY-MM-DD"
		case form.WidgetNumber:
			ti.Placeholder = "0"
		}
		if f.Column.MaxLength != nil && *f.Column.MaxLength > 0 {
			ti.CharLimit = *f.Column.MaxLength
		}
		ti.Width = m.inputWidth()
		m.inputs[f.Name()] = &ti
	}

	m.focus = -1
	m.move(1)
}

// Close hides the form.
func (m *Model) Close() {
	m.visible = false
	m.fields = nil
	m.inputs = nil
	m.values = nil
	m.stopFilter()
}

// Visible reports whether a form is open.
func (m Model) Visible() bool { return m.visible }

// Values returns the current widget values.
func (m Model) Values() form.State {
	out := m.values.Clone()
	for name, ti := range m.inputs {
		out[name] = ti.Value()
	}
	return out
}

// SetError shows err under the form and re-enables submitting.
func (m *Model) SetError(err error) {
	m.saving = false
	if err == nil {
		m.err = ""
		return
	}
	m.err = apperr.Message(err)
}

// SetSaving marks the form as waiting for the backend.
func (m *Model) SetSaving(saving bool) { m.saving = saving }

// Saving reports whether a submit is in flight.
func (m Model) Saving() bool { return m.saving }

// SetPreview stores the payload shown by the preview pane.
func (m *Model) SetPreview(payload map[string]any, issues []*apperr.CoercionIssue) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		m.previewText, m.previewView = err.Error(), err.Error()
		return
	}
	m.previewText = string(data)
	m.previewView = NewHighlighter(theme.Current.ChromaStyle).Highlight(m.previewText)
	for _, is := range issues {
		line := "unvalidated: " + is.Error()
		m.previewText += "\n" + line
		m.previewView += "\n" + theme.Current.WarningText.Render(line)
	}
}

// PreviewText returns the unstyled preview.
func (m Model) PreviewText() string { return m.previewText }

// PreviewShown reports whether the preview pane is open.
func (m Model) PreviewShown() bool { return m.preview }

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	for _, ti := range m.inputs {
		ti.Width = m.inputWidth()
	}
	m.scrollToFocus()
}

// Focus gives the form keyboard focus.
func (m *Model) Focus() {
	m.focused = true
	m.syncInputFocus()
}

// Blur removes keyboard focus.
func (m *Model) Blur() {
	m.focused = false
	m.syncInputFocus()
}

// Focused reports whether the form has focus.
func (m Model) Focused() bool { return m.focused }

// FocusedField returns the field under the cursor.
func (m Model) FocusedField() (form.Field, bool) {
	if m.focus < 0 || m.focus >= len(m.fields) {
		return form.Field{}, false
	}
	return m.fields[m.focus], true
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd { return nil }

// Update handles form key presses.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible || !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInput(msg)
	}

	if m.filtering {
		return m.updateFilter(key)
	}

	switch key.String() {
	case "ctrl+s":
		if m.saving {
			return m, nil
		}
		m.saving = true
		m.err = ""
		values := m.Values()
		return m, func() tea.Msg { return appmsg.SubmitFormMsg{Values: values} }
	case "ctrl+p":
		m.preview = !m.preview
		if !m.preview {
			return m, nil
		}
		values := m.Values()
		return m, func() tea.Msg { return appmsg.PreviewFormMsg{Values: values} }
	case "esc":
		if m.saving {
			return m, nil
		}
		return m, func() tea.Msg { return appmsg.CancelFormMsg{} }
	case "tab", "down":
		m.move(1)
		return m, nil
	case "shift+tab", "up":
		m.move(-1)
		return m, nil
	}

	f, ok := m.FocusedField()
	if !ok {
		return m, nil
	}
	switch f.Widget {
	case form.WidgetBoolean:
		switch key.String() {
		case " ", "enter", "right", "l":
			m.values[f.Name()] = nextBool(m.values[f.Name()], f.Nullable, 1)
		case "left", "h":
			m.values[f.Name()] = nextBool(m.values[f.Name()], f.Nullable, -1)
		case "backspace", "delete":
			m.values[f.Name()] = nil
		}
		return m, nil
	case form.WidgetSelect:
		switch key.String() {
		case "right", "l", " ":
			m.cycleOption(f, 1)
		case "left", "h":
			m.cycleOption(f, -1)
		case "backspace", "delete":
			m.values[f.Name()] = nil
		case "/", "enter":
			m.startFilter()
			cmd := m.filter.Focus()
			return m, cmd
		}
		return m, nil
	}
	if key.String() == "enter" {
		m.move(1)
		return m, nil
	}
	return m.updateInput(msg)
}

func (m Model) updateInput(msg tea.Msg) (Model, tea.Cmd) {
	f, ok := m.FocusedField()
	if !ok {
		return m, nil
	}
	ti, ok := m.inputs[f.Name()]
	if !ok || f.ReadOnly {
		return m, nil
	}
	updated, cmd := ti.Update(msg)
	*ti = updated
	return m, cmd
}

// move focuses the next editable field in direction dir, wrapping around.
func (m *Model) move(dir int) {
	n := len(m.fields)
	if n == 0 {
		m.focus = -1
		return
	}
	start := m.focus
	for i := 0; i < n; i++ {
		next := (start + dir*(i+1)) % n
		if next < 0 {
			next += n
		}
		if !m.fields[next].ReadOnly {
			m.focus = next
			break
		}
	}
	m.syncInputFocus()
	m.scrollToFocus()
}

func (m *Model) syncInputFocus() {
	f, hasFocus := m.FocusedField()
	for name, ti := range m.inputs {
		if m.focused && hasFocus && name == f.Name() {
			ti.Focus()
		} else {
			ti.Blur()
		}
	}
}

func (m *Model) scrollToFocus() {
	visible := m.visibleFields()
	if m.focus < m.top {
		m.top = m.focus
	}
	if m.focus >= m.top+visible {
		m.top = m.focus - visible + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

// nextBool cycles true, false and, for nullable columns, unset.
func nextBool(v any, nullable bool, dir int) any {
	states := []any{true, false}
	if nullable {
		states = append(states, nil)
	}
	cur := -1
	for i, s := range states {
		if s == v {
			cur = i
		}
	}
	if cur < 0 {
		if dir > 0 {
			return true
		}
		return states[len(states)-1]
	}
	return states[(cur+dir+len(states))%len(states)]
}

// cycleOption steps through the options of f. The unset state sits before
// the first option.
func (m *Model) cycleOption(f form.Field, dir int) {
	n := len(f.Options)
	if n == 0 {
		return
	}
	idx := f.OptionIndex(m.values[f.Name()])
	if m.values[f.Name()] == nil {
		idx = -1
	}
	idx += dir
	switch {
	case idx >= n:
		idx = -1
	case idx < -1:
		idx = n - 1
	}
	if idx < 0 {
		m.values[f.Name()] = nil
		return
	}
	m.values[f.Name()] = f.Options[idx].Value
}

// ---------------------------------------------------------------------------
// Option filter
// ---------------------------------------------------------------------------

// optionLabels implements fuzzy.Source over option labels.
type optionLabels []fk.Option

func (o optionLabels) String(i int) string { return strings.ToLower(o[i].Label) }
func (o optionLabels) Len() int            { return len(o) }

// filterOptions returns the indexes of options matching q, best first.
func filterOptions(q string, opts []fk.Option) []int {
	if strings.TrimSpace(q) == "" {
		out := make([]int, len(opts))
		for i := range opts {
			out[i] = i
		}
		return out
	}
	matches := fuzzy.FindFrom(strings.ToLower(q), optionLabels(opts))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	out := make([]int, len(matches))
	for i, mt := range matches {
		out[i] = mt.Index
	}
	return out
}

func (m *Model) startFilter() {
	m.filtering = true
	m.filter.SetValue("")
	if f, ok := m.FocusedField(); ok {
		m.matches = filterOptions("", f.Options)
	}
}

func (m *Model) stopFilter() {
	m.filtering = false
	m.filter.Blur()
	m.filter.SetValue("")
	m.matches = nil
}

func (m Model) updateFilter(key tea.KeyMsg) (Model, tea.Cmd) {
	f, _ := m.FocusedField()
	switch key.String() {
	case "esc":
		m.stopFilter()
		return m, nil
	case "enter":
		if len(m.matches) > 0 {
			m.values[f.Name()] = f.Options[m.matches[0]].Value
		}
		m.stopFilter()
		return m, nil
	case "down", "tab":
		if len(m.matches) > 1 {
			m.matches = append(m.matches[1:], m.matches[0])
		}
		return m, nil
	case "up", "shift+tab":
		if len(m.matches) > 1 {
			last := len(m.matches) - 1
			m.matches = append([]int{m.matches[last]}, m.matches[:last]...)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(key)
	m.matches = filterOptions(m.filter.Value(), f.Options)
	return m, cmd
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the form.
func (m Model) View() string {
	if !m.visible || m.width == 0 || m.height == 0 {
		return ""
	}
	th := theme.Current
	innerW := m.innerWidth()

	var sb strings.Builder
	sb.WriteString(th.FormTitle.Render(m.title()))
	sb.WriteString("\n\n")

	if len(m.fields) == 0 {
		sb.WriteString(th.MutedText.Render("No editable columns."))
		sb.WriteString("\n")
	}

	end := m.top + m.visibleFields()
	if end > len(m.fields) {
		end = len(m.fields)
	}
	for i := m.top; i < end; i++ {
		sb.WriteString(m.renderField(th, i, innerW))
		sb.WriteString("\n")
	}
	if m.top > 0 || end < len(m.fields) {
		sb.WriteString(th.MutedText.Render(fmt.Sprintf("fields %d-%d of %d", m.top+1, end, len(m.fields))))
		sb.WriteString("\n")
	}

	if m.filtering {
		sb.WriteString(m.renderFilter(th, innerW))
		sb.WriteString("\n")
	}

	if m.preview {
		sb.WriteString(th.MutedText.Render(strings.Repeat("─", innerW)))
		sb.WriteString("\n")
		sb.WriteString(m.renderPreview(th))
		sb.WriteString("\n")
	}

	switch {
	case m.saving:
		sb.WriteString(th.WarningText.Render("Saving..."))
	case m.err != "":
		sb.WriteString(th.ErrorText.Render(runewidth.Truncate("Error: "+m.err, innerW*2, "…")))
	default:
		sb.WriteString(th.MutedText.Render("ctrl+s save · ctrl+p preview · esc cancel"))
	}

	style := th.FormBorder
	if m.focused {
		style = style.BorderForeground(th.FocusedBorder.GetBorderTopForeground())
	}
	return style.Width(m.width - 2).Height(m.height - 2).Render(sb.String())
}

func (m Model) title() string {
	if m.mode == form.ModeEdit {
		return fmt.Sprintf("Edit %s #%s", m.table, m.rowID)
	}
	return "New row in " + m.table
}

func (m Model) renderField(th *theme.Theme, i, width int) string {
	f := m.fields[i]
	focused := i == m.focus && m.focused

	labelStyle := th.FormLabel
	if focused {
		labelStyle = th.FormLabelFocused
	}
	label := f.Label
	labelW := width / 3
	if labelW > 28 {
		labelW = 28
	}
	text := runewidth.FillRight(runewidth.Truncate(label, labelW-2, "…"), labelW-2)
	line := labelStyle.Render(text)
	if !f.Nullable && !f.ReadOnly {
		line += th.FormRequired.Render("*")
	} else {
		line += " "
	}
	line += " " + m.renderWidget(th, f, focused)

	helper := f.Info()
	if f.Description != "" && f.Description != f.Label {
		helper += " · " + f.Description
	}
	helper = runewidth.Truncate(helper, width-labelW, "…")
	return line + "\n" + strings.Repeat(" ", labelW) + th.FormHelper.Render(helper)
}

func (m Model) renderWidget(th *theme.Theme, f form.Field, focused bool) string {
	v := m.values[f.Name()]
	switch f.Widget {
	case form.WidgetBoolean:
		switch v {
		case true:
			return th.FormToggleOn.Render("[x] yes")
		case false:
			return th.FormToggleOff.Render("[ ] no")
		default:
			return th.MutedText.Render("[-] unset")
		}
	case form.WidgetSelect:
		label := noneLabel
		if v != nil {
			if idx := f.OptionIndex(v); idx >= 0 {
				label = f.Options[idx].Label
			} else {
				label = schema.FormatValue(v)
			}
		}
		style := th.FormOption
		if focused {
			style = th.FormOptionActive
		}
		return style.Render("‹ " + runewidth.Truncate(label, m.inputWidth()-4, "…") + " ›")
	}
	ti, ok := m.inputs[f.Name()]
	if !ok {
		return ""
	}
	if f.ReadOnly {
		return th.MutedText.Render(ti.Value())
	}
	return ti.View()
}

func (m Model) renderFilter(th *theme.Theme, width int) string {
	f, _ := m.FocusedField()
	var sb strings.Builder
	sb.WriteString(th.SidebarFilter.Render(m.filter.View()))
	if len(m.matches) == 0 {
		sb.WriteString("\n" + th.MutedText.Render("  No match."))
		return sb.String()
	}
	for i, idx := range m.matches {
		if i >= 5 {
			sb.WriteString("\n" + th.MutedText.Render(fmt.Sprintf("  +%d more", len(m.matches)-5)))
			break
		}
		style := th.FormOption
		if i == 0 {
			style = th.FormOptionActive
		}
		sb.WriteString("\n  " + style.Render(runewidth.Truncate(f.Options[idx].Label, width-4, "…")))
	}
	return sb.String()
}

func (m Model) renderPreview(th *theme.Theme) string {
	if m.previewView == "" {
		return th.MutedText.Render("Computing payload...")
	}
	return m.previewView
}

func (m Model) innerWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) inputWidth() int {
	w := m.innerWidth() - m.innerWidth()/3 - 4
	if w < 8 {
		w = 8
	}
	return w
}

// visibleFields is how many fields fit above the footer lines.
func (m Model) visibleFields() int {
	reserved := 2 + 4 // border, title + blank, range line + status
	if m.preview {
		reserved += strings.Count(m.previewText, "\n") + 2
	}
	if m.filtering {
		reserved += 7
	}
	n := (m.height - reserved) / linesPerField
	if n < 1 {
		n = 1
	}
	return n
}
