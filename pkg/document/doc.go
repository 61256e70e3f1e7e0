// Package document implements the layer and document model of the editor.
//
// A [Document] is a fixed-size canvas holding an ordered stack of [Layer]
// values and a single selection pointer. Slice order is compositing order:
// later layers are drawn on top.
//
// All mutations go through Document methods so the invariants hold at one
// place:
//   - layer width and height are positive
//   - the selected layer id, when set, names a layer in the stack
//   - adding a layer puts it on top and selects it
//   - deleting any layer clears the selection
//
// Operations that target a layer id which no longer exists are no-ops that
// report false. Callers applying results of asynchronous work (an AI edit
// that finished after its layer was deleted) rely on this.
//
// Document is not safe for concurrent use. The editor serializes access.
package document
