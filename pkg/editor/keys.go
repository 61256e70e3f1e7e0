package editor

import (
	"context"
	"strings"

	"github.com/matzehuels/photostudio/pkg/render"
)

// Key is a key press from the surface.
type Key struct {
	Name string // "delete", "backspace", "s", ...
	Ctrl bool
	Meta bool
}

// ParseKey parses bubbletea-style key strings such as "ctrl+s" or "delete".
func ParseKey(s string) Key {
	var k Key
	parts := strings.Split(strings.ToLower(s), "+")
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl":
			k.Ctrl = true
		case "cmd", "meta", "super":
			k.Meta = true
		}
	}
	k.Name = parts[len(parts)-1]
	return k
}

// KeyResult is what HandleKey did.
type KeyResult struct {
	Handled bool
	Deleted bool
	Export  *ExportResult
}

// HandleKey applies the editor shortcuts:
//
//	Delete, Backspace  delete the selected layer, unless a text field has focus
//	Ctrl+S, Cmd+S      export as JPEG
//
// Other keys are not handled.
func (e *Editor) HandleKey(ctx context.Context, k Key) (KeyResult, error) {
	name := strings.ToLower(k.Name)
	switch {
	case name == "delete" || name == "backspace":
		if e.UI().TextFocus {
			return KeyResult{}, nil
		}
		return KeyResult{Handled: true, Deleted: e.DeleteSelected()}, nil
	case name == "s" && (k.Ctrl || k.Meta):
		res, err := e.Export(ctx, render.FormatJPEG)
		if err != nil {
			return KeyResult{Handled: true}, err
		}
		return KeyResult{Handled: true, Export: res}, nil
	}
	return KeyResult{}, nil
}
