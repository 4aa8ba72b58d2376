package app

// Message types live in internal/msg so UI components can emit them without
// importing this package. This file re-exports them for convenience.

import appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"

// Re-export types used within app package.
type (
	Pane                 = appmsg.Pane
	FocusMsg             = appmsg.FocusMsg
	TablesLoadedMsg      = appmsg.TablesLoadedMsg
	TablesErrMsg         = appmsg.TablesErrMsg
	RefreshTablesMsg     = appmsg.RefreshTablesMsg
	SelectTableMsg       = appmsg.SelectTableMsg
	StructureLoadedMsg   = appmsg.StructureLoadedMsg
	StructureErrMsg      = appmsg.StructureErrMsg
	MetadataLoadedMsg    = appmsg.MetadataLoadedMsg
	ResolutionsLoadedMsg = appmsg.ResolutionsLoadedMsg
	PageLoadedMsg        = appmsg.PageLoadedMsg
	PageErrMsg           = appmsg.PageErrMsg
	GoToPageMsg          = appmsg.GoToPageMsg
	RefreshPageMsg       = appmsg.RefreshPageMsg
	CreateRowMsg         = appmsg.CreateRowMsg
	EditRowMsg           = appmsg.EditRowMsg
	DeleteRowMsg         = appmsg.DeleteRowMsg
	SubmitFormMsg        = appmsg.SubmitFormMsg
	PreviewFormMsg       = appmsg.PreviewFormMsg
	CancelFormMsg        = appmsg.CancelFormMsg
	SavedMsg             = appmsg.SavedMsg
	SaveErrMsg           = appmsg.SaveErrMsg
	DeletedMsg           = appmsg.DeletedMsg
	DeleteErrMsg         = appmsg.DeleteErrMsg
	StatusMsg            = appmsg.StatusMsg
	ExportRequestMsg     = appmsg.ExportRequestMsg
	ExportCompleteMsg    = appmsg.ExportCompleteMsg
	ExportErrMsg         = appmsg.ExportErrMsg
)

// Re-export constants.
const (
	PaneSidebar = appmsg.PaneSidebar
	PaneGrid    = appmsg.PaneGrid
	PaneForm    = appmsg.PaneForm
)
