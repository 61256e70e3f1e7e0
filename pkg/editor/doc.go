// Package editor is the controller that owns all editing state.
//
// An [Editor] wraps a workspace of documents together with the UI state the
// surfaces share: the current tool, the loading indicator, the merge dialog
// and its two photo slots, and any pointer gesture in progress. Every
// mutation goes through Editor methods, which serialize on one mutex, so the
// document invariants are enforced at a single place no matter whether the
// caller is the terminal editor, the HTTP API or a test.
//
// # Selection and gestures
//
// The selection state machine is:
//
//	Idle --click layer--> Selected --pointer down (MOVE tool)--> Dragging | Transforming
//	  ^                      |                                       |
//	  +--click empty/delete--+<------------- release (commit) -------+
//
// A drag commits only x and y. A corner transform commits x, y, scale and
// rotation in one patch. Gestures always commit on release; there is no
// cancel.
//
// # Asynchronous work
//
// AI requests and exports release the lock while they wait on the network or
// on a rendered frame. At most one AI request is outstanding ([errors.ErrCodeBusy]
// otherwise) and the loading indicator is cleared on every exit path. When a
// response arrives the target document and layer are looked up again; if
// either is gone the result is dropped.
//
// # Export
//
// Export hides the selection overlay by clearing the selection, waits for one
// frame from the [FrameSync], flattens at [render.PixelRatio], hands the
// artifact to the [render.Sink] and then restores the selection.
package editor
