// Package theme provides the styling of the schemadesk terminal UI. Every
// visual element references a lipgloss.Style held in a Theme so the whole
// look can be swapped at runtime.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Theme holds lipgloss.Style values for every UI element in the application.
type Theme struct {
	Name string

	// ChromaStyle names the chroma style used for the JSON payload preview.
	ChromaStyle string

	// Sidebar
	SidebarBorder   lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarGroup    lipgloss.Style
	SidebarTable    lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarFilter   lipgloss.Style

	// Table classifications, used for sidebar markers and group headers.
	ClassMaster        lipgloss.Style
	ClassReference     lipgloss.Style
	ClassTransactional lipgloss.Style
	ClassOther         lipgloss.Style

	// Row grid
	GridBorder      lipgloss.Style
	GridHeader      lipgloss.Style
	GridCell        lipgloss.Style
	GridSelectedRow lipgloss.Style
	GridNull        lipgloss.Style
	GridKey         lipgloss.Style
	GridLabel       lipgloss.Style

	// Row form
	FormBorder       lipgloss.Style
	FormTitle        lipgloss.Style
	FormLabel        lipgloss.Style
	FormLabelFocused lipgloss.Style
	FormRequired     lipgloss.Style
	FormHelper       lipgloss.Style
	FormToggleOn     lipgloss.Style
	FormToggleOff    lipgloss.Style
	FormOption       lipgloss.Style
	FormOptionActive lipgloss.Style

	// Status bar
	StatusBar        lipgloss.Style
	StatusBarKey     lipgloss.Style
	StatusBarValue   lipgloss.Style
	StatusBarError   lipgloss.Style
	StatusBarSuccess lipgloss.Style

	// Dialog
	DialogBorder       lipgloss.Style
	DialogTitle        lipgloss.Style
	DialogButton       lipgloss.Style
	DialogButtonActive lipgloss.Style

	// General
	FocusedBorder   lipgloss.Style
	UnfocusedBorder lipgloss.Style
	ErrorText       lipgloss.Style
	SuccessText     lipgloss.Style
	WarningText     lipgloss.Style
	MutedText       lipgloss.Style
}

// Class returns the style for a table classification.
func (t *Theme) Class(c schema.Classification) lipgloss.Style {
	switch c {
	case schema.ClassMaster:
		return t.ClassMaster
	case schema.ClassReference:
		return t.ClassReference
	case schema.ClassTransactional:
		return t.ClassTransactional
	default:
		return t.ClassOther
	}
}

// palette is the handful of colours a theme is derived from.
type palette struct {
	name   string
	chroma string

	bg, bgAlt, border    string
	fg, muted, selection string
	selectionFg          string
	accent, accentAlt    string
	str, num             string

	master, reference, transactional, other string

	status, statusFg string
	errc, ok, warn   string
}

func build(p palette) *Theme {
	color := func(c string) lipgloss.Color { return lipgloss.Color(c) }
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(color(c)) }
	border := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color(c))
	}
	selected := lipgloss.NewStyle().Bold(true).Foreground(color(p.selectionFg)).Background(color(p.selection))

	return &Theme{
		Name:        p.name,
		ChromaStyle: p.chroma,

		SidebarBorder:   border(p.border),
		SidebarTitle:    fg(p.accent).Bold(true).PaddingLeft(1),
		SidebarGroup:    fg(p.muted).Bold(true),
		SidebarTable:    fg(p.fg),
		SidebarSelected: selected,
		SidebarFilter:   fg(p.accentAlt),

		ClassMaster:        fg(p.master).Bold(true),
		ClassReference:     fg(p.reference),
		ClassTransactional: fg(p.transactional),
		ClassOther:         fg(p.other),

		GridBorder:      border(p.border),
		GridHeader:      fg(p.accent).Bold(true).Background(color(p.bgAlt)),
		GridCell:        fg(p.fg),
		GridSelectedRow: lipgloss.NewStyle().Foreground(color(p.selectionFg)).Background(color(p.selection)),
		GridNull:        fg(p.muted).Italic(true),
		GridKey:         fg(p.num),
		GridLabel:       fg(p.str),

		FormBorder:       border(p.accent).Padding(0, 1),
		FormTitle:        fg(p.accent).Bold(true),
		FormLabel:        fg(p.fg),
		FormLabelFocused: fg(p.accentAlt).Bold(true),
		FormRequired:     fg(p.errc).Bold(true),
		FormHelper:       fg(p.muted).Italic(true),
		FormToggleOn:     fg(p.ok).Bold(true),
		FormToggleOff:    fg(p.muted),
		FormOption:       fg(p.fg),
		FormOptionActive: selected,

		StatusBar:        lipgloss.NewStyle().Foreground(color(p.statusFg)).Background(color(p.status)),
		StatusBarKey:     lipgloss.NewStyle().Bold(true).Foreground(color(p.statusFg)).Background(color(p.status)).Padding(0, 1),
		StatusBarValue:   fg(p.fg).Background(color(p.bg)).Padding(0, 1),
		StatusBarError:   lipgloss.NewStyle().Bold(true).Foreground(color("#FFFFFF")).Background(color(p.errc)).Padding(0, 1),
		StatusBarSuccess: lipgloss.NewStyle().Foreground(color(p.bg)).Background(color(p.ok)).Padding(0, 1),

		DialogBorder:       lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(color(p.accent)).Padding(1, 2),
		DialogTitle:        fg(p.accent).Bold(true),
		DialogButton:       fg(p.fg).Background(color(p.bgAlt)).Padding(0, 2),
		DialogButtonActive: selected.Padding(0, 2),

		FocusedBorder:   border(p.accent),
		UnfocusedBorder: border(p.border),
		ErrorText:       fg(p.errc),
		SuccessText:     fg(p.ok),
		WarningText:     fg(p.warn),
		MutedText:       fg(p.muted),
	}
}

// ---------------------------------------------------------------------------
// Theme definitions
// ---------------------------------------------------------------------------

var palettes = []palette{
	{
		name: "default", chroma: "monokai",
		bg: "#1E1E1E", bgAlt: "#252526", border: "#3C3C3C",
		fg: "#D4D4D4", muted: "#808080", selection: "#264F78", selectionFg: "#FFFFFF",
		accent: "#569CD6", accentAlt: "#DCDCAA", str: "#CE9178", num: "#B5CEA8",
		master: "#4EC9B0", reference: "#C586C0", transactional: "#D7BA7D", other: "#9CDCFE",
		status: "#007ACC", statusFg: "#FFFFFF",
		errc: "#F44747", ok: "#6A9955", warn: "#CCA700",
	},
	{
		name: "light", chroma: "github",
		bg: "#FFFFFF", bgAlt: "#F3F3F3", border: "#D4D4D4",
		fg: "#1E1E1E", muted: "#A0A0A0", selection: "#0060C0", selectionFg: "#FFFFFF",
		accent: "#0451A5", accentAlt: "#795E26", str: "#A31515", num: "#098658",
		master: "#267F99", reference: "#AF00DB", transactional: "#B5651D", other: "#001080",
		status: "#0060C0", statusFg: "#FFFFFF",
		errc: "#CD3131", ok: "#008000", warn: "#BF8803",
	},
	{
		name: "monokai", chroma: "monokai",
		bg: "#272822", bgAlt: "#3E3D32", border: "#49483E",
		fg: "#F8F8F2", muted: "#75715E", selection: "#49483E", selectionFg: "#F8F8F2",
		accent: "#F92672", accentAlt: "#E6DB74", str: "#E6DB74", num: "#AE81FF",
		master: "#A6E22E", reference: "#AE81FF", transactional: "#FD971F", other: "#66D9EF",
		status: "#75715E", statusFg: "#F8F8F2",
		errc: "#F92672", ok: "#A6E22E", warn: "#E6DB74",
	},
}

// ---------------------------------------------------------------------------
// Registry and accessors
// ---------------------------------------------------------------------------

// Themes maps theme names to their Theme definitions.
var Themes = func() map[string]*Theme {
	m := make(map[string]*Theme, len(palettes))
	for _, p := range palettes {
		m[p.name] = build(p)
	}
	return m
}()

// Current is the currently active theme. It is initialized to Default.
var Current = Themes["default"]

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}

// Names returns the registered theme names in definition order.
func Names() []string {
	names := make([]string, len(palettes))
	for i, p := range palettes {
		names[i] = p.name
	}
	return names
}
