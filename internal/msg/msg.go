// Package msg holds the bubbletea messages exchanged between the root model
// and the UI components. Messages produced by a table load carry the
// selection generation they were fetched for; the root model drops any
// whose generation is no longer current.
package msg

import (
	"time"

	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/form"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Pane focus targets.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneGrid
	PaneForm
)

func (p Pane) String() string {
	switch p {
	case PaneGrid:
		return "grid"
	case PaneForm:
		return "form"
	default:
		return "sidebar"
	}
}

// FocusMsg requests a pane focus change.
type FocusMsg struct {
	Pane Pane
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// TablesLoadedMsg carries the table catalog and the recently opened tables.
type TablesLoadedMsg struct {
	Tables []schema.Table
	Recent []string
}

// TablesErrMsg is sent when the catalog could not be fetched.
type TablesErrMsg struct {
	Err error
}

// RefreshTablesMsg requests a catalog reload.
type RefreshTablesMsg struct{}

// SelectTableMsg requests opening a table.
type SelectTableMsg struct {
	Table string
}

// ---------------------------------------------------------------------------
// Table load, tagged with the selection generation
// ---------------------------------------------------------------------------

// StructureLoadedMsg carries a table's structure.
type StructureLoadedMsg struct {
	Gen       uint64
	Structure schema.Structure
}

// StructureErrMsg is sent when a structure could not be fetched.
type StructureErrMsg struct {
	Gen uint64
	Err error
}

// MetadataLoadedMsg carries raw display labels and descriptions.
type MetadataLoadedMsg struct {
	Gen          uint64
	Labels       map[string]string
	Descriptions map[string]string
}

// ResolutionsLoadedMsg carries FK samples. Err is set when some columns
// could not be sampled; the others are still usable.
type ResolutionsLoadedMsg struct {
	Gen         uint64
	Resolutions map[string]fk.Resolution
	Err         error
}

// PageLoadedMsg carries one page of rows.
type PageLoadedMsg struct {
	Gen  uint64
	Page schema.Page
}

// PageErrMsg is sent when a page could not be fetched.
type PageErrMsg struct {
	Gen uint64
	Err error
}

// GoToPageMsg requests the page at Offset of the selected table.
type GoToPageMsg struct {
	Offset int
}

// RefreshPageMsg reloads the current page.
type RefreshPageMsg struct{}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// CreateRowMsg opens a blank create form.
type CreateRowMsg struct{}

// EditRowMsg opens an edit form for Row.
type EditRowMsg struct {
	Row schema.Row
}

// DeleteRowMsg asks for confirmation before deleting Row.
type DeleteRowMsg struct {
	Row schema.Row
}

// SubmitFormMsg submits the open form with Values.
type SubmitFormMsg struct {
	Values form.State
}

// PreviewFormMsg asks for the coerced payload of Values.
type PreviewFormMsg struct {
	Values form.State
}

// CancelFormMsg closes the open form without saving.
type CancelFormMsg struct{}

// SavedMsg is sent when a create or update was accepted.
type SavedMsg struct {
	Gen  uint64
	Mode form.Mode
	Row  schema.Row
}

// SaveErrMsg is sent when a create or update was rejected. The form stays
// open.
type SaveErrMsg struct {
	Gen uint64
	Err error
}

// DeletedMsg is sent when a row was deleted.
type DeletedMsg struct {
	Gen uint64
	ID  string
}

// DeleteErrMsg is sent when a delete was rejected.
type DeleteErrMsg struct {
	Gen uint64
	Err error
}

// ---------------------------------------------------------------------------
// Status and export
// ---------------------------------------------------------------------------

// StatusMsg updates the status bar text.
type StatusMsg struct {
	Text     string
	IsError  bool
	Duration time.Duration
}

// ExportRequestMsg requests exporting the selected table.
type ExportRequestMsg struct {
	Path string
}

// ExportCompleteMsg is sent when export finishes.
type ExportCompleteMsg struct {
	Path     string
	RowCount int64
}

// ExportErrMsg is sent when export fails.
type ExportErrMsg struct {
	Err error
}
