package editor

import (
	"strings"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// Tool is the active editing tool. Only ToolMove has behavior in the
// controller; the others gate surface affordances.
type Tool string

// Tools.
const (
	ToolMove       Tool = "MOVE"
	ToolSelectRect Tool = "SELECT_RECT"
	ToolCrop       Tool = "CROP"
	ToolMagicWand  Tool = "MAGIC_WAND"
	ToolText       Tool = "TEXT"
	ToolEraser     Tool = "ERASER"
	ToolAdjust     Tool = "ADJUST"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolMove, ToolSelectRect, ToolCrop, ToolMagicWand, ToolText, ToolEraser, ToolAdjust}

// ParseTool accepts tool names in any case, with '-' or '_'.
func ParseTool(s string) (Tool, error) {
	norm := Tool(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	for _, t := range Tools {
		if t == norm {
			return t, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown tool %q", s)
}

// Label returns a display name.
func (t Tool) Label() string {
	switch t {
	case ToolMove:
		return "Move"
	case ToolSelectRect:
		return "Rectangle Select"
	case ToolCrop:
		return "Crop"
	case ToolMagicWand:
		return "Magic Wand"
	case ToolText:
		return "Text"
	case ToolEraser:
		return "Eraser"
	case ToolAdjust:
		return "Adjust"
	}
	return string(t)
}

// State is the selection state of the active document.
type State int

// Selection states.
const (
	StateIdle State = iota
	StateSelected
	StateDragging
	StateTransforming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	case StateTransforming:
		return "transforming"
	}
	return "unknown"
}

// UIState is the shared application state besides the documents.
type UIState struct {
	Tool Tool `json:"tool"`

	// Loading is set while an AI request is outstanding.
	Loading        bool   `json:"loading"`
	LoadingMessage string `json:"loading_message,omitempty"`

	// Exporting is set between hiding the overlay and restoring it.
	Exporting bool `json:"exporting"`

	MergeModalOpen bool    `json:"merge_modal_open"`
	MergeSlots     [2]bool `json:"merge_slots"`

	// TextFocus is set while a text field has keyboard focus.
	TextFocus bool `json:"text_focus"`
}
