package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all application keybindings.
type KeyMap struct {
	// Navigation
	FocusNext    key.Binding
	FocusPrev    key.Binding
	FocusSidebar key.Binding
	FocusGrid    key.Binding
	FocusForm    key.Binding

	// Grid
	NextPage  key.Binding
	PrevPage  key.Binding
	NewRow    key.Binding
	EditRow   key.Binding
	DeleteRow key.Binding
	Refresh   key.Binding

	// Form
	Submit  key.Binding
	Preview key.Binding
	Cancel  key.Binding

	// App
	Quit          key.Binding
	Help          key.Binding
	ToggleSidebar key.Binding
	RefreshTables key.Binding
	Filter        key.Binding
	Export        key.Binding

	// Pane resizing
	ResizeLeft  key.Binding
	ResizeRight key.Binding
}

// DefaultKeyMap returns the keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pane"),
		),
		FocusSidebar: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("alt+1", "sidebar"),
		),
		FocusGrid: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("alt+2", "rows"),
		),
		FocusForm: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("alt+3", "form"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("pgdown", "]"),
			key.WithHelp("pgdn", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("pgup", "["),
			key.WithHelp("pgup", "prev page"),
		),
		NewRow: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new row"),
		),
		EditRow: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit row"),
		),
		DeleteRow: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete row"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload page"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Preview: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "payload preview"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("f1/?", "help"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "toggle sidebar"),
		),
		RefreshTables: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload tables"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export csv"),
		),
		ResizeLeft: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("ctrl+←", "shrink sidebar"),
		),
		ResizeRight: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("ctrl+→", "grow sidebar"),
		),
	}
}

// ShortHelp returns a subset of keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.FocusNext, k.NewRow, k.EditRow, k.Submit, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusNext, k.FocusPrev, k.FocusSidebar, k.FocusGrid, k.FocusForm, k.Filter},
		{k.NextPage, k.PrevPage, k.NewRow, k.EditRow, k.DeleteRow, k.Refresh},
		{k.Submit, k.Preview, k.Cancel},
		{k.ToggleSidebar, k.RefreshTables, k.Export, k.ResizeLeft, k.ResizeRight},
		{k.Quit, k.Help},
	}
}
