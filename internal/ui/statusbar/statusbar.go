package statusbar

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

// ClearStatusMsg is sent after a timeout to revert the status bar to key hints.
type ClearStatusMsg struct{}

// clearAfter is how long a status message stays up.
const clearAfter = 5 * time.Second

// Model is the status bar component.
type Model struct {
	width   int
	backend string
	table   string
	state   string
	pane    appmsg.Pane

	offset   int
	shown    int
	total    int
	pageSize int

	message string
	isError bool

	loading bool
	spinner spinner.Model
}

// New creates a new status bar.
func New() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{spinner: s, state: "browsing"}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appmsg.StatusMsg:
		m.message = msg.Text
		m.isError = msg.IsError
		d := msg.Duration
		if d <= 0 {
			d = clearAfter
		}
		return m, tea.Tick(d, func(time.Time) tea.Msg { return ClearStatusMsg{} })

	case ClearStatusMsg:
		m.message = ""
		m.isError = false

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	th := theme.Current

	// Left: backend and open table
	leftText := " " + m.backend + " "
	if m.table != "" {
		leftText = fmt.Sprintf(" %s › %s ", m.backend, m.table)
	}
	left := th.StatusBarKey.Render(leftText)

	// Center: message, else page position, else key hints
	var center string
	switch {
	case m.message != "" && m.isError:
		center = th.StatusBarError.Render(" " + runewidth.Truncate(m.message, m.width/2, "...") + " ")
	case m.message != "":
		center = th.StatusBarSuccess.Render(" " + runewidth.Truncate(m.message, m.width/2, "...") + " ")
	case m.table != "" && m.pageSize > 0:
		center = th.StatusBarValue.Render(" " + Position(m.offset, m.shown, m.total, m.pageSize) + " ")
	default:
		hintKey := th.StatusBarValue
		hintSep := th.StatusBar
		center = hintKey.Render("Enter") +
			hintSep.Render(" Open ") +
			hintKey.Render("/") +
			hintSep.Render(" Filter ") +
			hintKey.Render("Tab") +
			hintSep.Render(" Switch pane ") +
			hintKey.Render("F1") +
			hintSep.Render(" Help ")
	}
	if m.loading {
		center = th.StatusBarValue.Render(" "+m.spinner.View()+"loading ") + center
	}

	// Right: editing state and focused pane
	right := th.StatusBarKey.Render(fmt.Sprintf(" %s · %s ", m.state, m.pane))

	leftW := lipgloss.Width(left)
	centerW := lipgloss.Width(center)
	rightW := lipgloss.Width(right)
	gap := m.width - leftW - centerW - rightW
	if gap < 0 {
		gap = 0
	}

	leftGap := gap / 2
	rightGap := gap - leftGap

	bar := left +
		th.StatusBar.Render(spaces(leftGap)) +
		center +
		th.StatusBar.Render(spaces(rightGap)) +
		right

	return th.StatusBar.Width(m.width).Render(bar)
}

// SetSize sets the status bar width.
func (m *Model) SetSize(width int) {
	m.width = width
}

// SetBackend sets the backend shown on the left.
func (m *Model) SetBackend(name string) {
	m.backend = name
}

// SetTable sets the open table and resets the page position.
func (m *Model) SetTable(table string) {
	m.table = table
	m.offset, m.shown, m.total = 0, 0, 0
}

// SetPage records the position of the displayed page.
func (m *Model) SetPage(offset, shown, total, pageSize int) {
	m.offset, m.shown, m.total, m.pageSize = offset, shown, total, pageSize
}

// SetState sets the editing state label.
func (m *Model) SetState(state string) {
	m.state = state
}

// SetPane sets the focused pane.
func (m *Model) SetPane(p appmsg.Pane) {
	m.pane = p
}

// SetLoading starts or stops the spinner. The returned command must be run
// to animate it.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	wasLoading := m.loading
	m.loading = loading
	if loading && !wasLoading {
		return m.spinner.Tick
	}
	return nil
}

// Loading reports whether the spinner is running.
func (m Model) Loading() bool {
	return m.loading
}

// Message returns the current status message.
func (m Model) Message() (string, bool) {
	return m.message, m.isError
}

// Position describes a page as "rows 51-100 of 342 · page 2/7".
func Position(offset, shown, total, pageSize int) string {
	if total == 0 || shown == 0 {
		return fmt.Sprintf("0 rows of %s", formatCount(total))
	}
	pages := (total + pageSize - 1) / pageSize
	page := offset/pageSize + 1
	return fmt.Sprintf("rows %d-%d of %s · page %d/%d",
		offset+1, offset+shown, formatCount(total), page, pages)
}

func formatCount(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
