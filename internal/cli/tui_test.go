package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/genai/genaitest"
	"github.com/matzehuels/photostudio/pkg/render"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestModel(t *testing.T, opts ...editor.Option) (EditModel, *editor.Editor) {
	t.Helper()
	frames := editor.NewFrameSignal()
	opts = append([]editor.Option{editor.WithFrameSync(frames), editor.WithSink(&render.MemorySink{})}, opts...)
	ed, err := editor.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ed.NewDocument(defaultPreset); err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Upload(context.Background(), "me.png", testPNG(t, 300, 300)); err != nil {
		t.Fatal(err)
	}
	return NewEditModel(context.Background(), ed, frames), ed
}

func press(m EditModel, msg tea.KeyMsg) (EditModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(EditModel), cmd
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEditModelNudge(t *testing.T) {
	m, ed := newTestModel(t)
	d, _ := ed.Active()
	before, _ := d.Selected()

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})

	d, _ = ed.Active()
	after, _ := d.Selected()
	if after.X != before.X+nudgeStep || after.Y != before.Y+nudgeStep {
		t.Errorf("position = (%v, %v), want (%v, %v)", after.X, after.Y, before.X+nudgeStep, before.Y+nudgeStep)
	}
	if m.failed {
		t.Errorf("unexpected failure: %s", m.status)
	}
}

func TestEditModelToggleAndClear(t *testing.T) {
	m, ed := newTestModel(t)

	m, _ = press(m, runeKey("v"))
	d, _ := ed.Active()
	if l, _ := d.Selected(); l.Visible {
		t.Error("v should hide the selected layer")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	d, _ = ed.Active()
	if d.SelectedLayerID != "" {
		t.Error("esc should clear the selection")
	}

	// Nudging without a selection reports the precondition.
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if !m.failed || m.status == "" {
		t.Error("expected a status message for a move without selection")
	}
}

func TestEditModelDelete(t *testing.T) {
	m, ed := newTestModel(t)
	_, _ = press(m, tea.KeyMsg{Type: tea.KeyDelete})
	d, _ := ed.Active()
	if len(d.Layers) != 0 {
		t.Errorf("got %d layers after delete, want 0", len(d.Layers))
	}
}

func TestEditModelExportIsExclusive(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(m, runeKey("p"))
	if cmd == nil || !m.busy {
		t.Fatal("p should start an export")
	}
	if _, cmd := press(m, runeKey("p")); cmd != nil {
		t.Error("second export while busy should be ignored")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	next, _ := m.Update(opDoneMsg{status: "done"})
	m = next.(EditModel)
	if m.busy || m.status != "done" {
		t.Errorf("busy = %v, status = %q after completion", m.busy, m.status)
	}
}

// finishOp runs the background operation started by cmd and feeds its
// result back into m.
func finishOp(t *testing.T, m EditModel, cmd tea.Cmd) EditModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("no operation started")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatal("operation command is not a batch")
	}
	next, _ := m.Update(batch[0]())
	return next.(EditModel)
}

func TestEditModelOutfitCycles(t *testing.T) {
	img := genai.NewImage(testPNG(t, 300, 300))
	fake := genaitest.Returning(&img)
	m, ed := newTestModel(t, editor.WithAI(fake))
	outfits := ed.Catalog().Outfits
	if len(outfits) < 2 {
		t.Fatalf("catalog has %d outfits, want at least 2", len(outfits))
	}

	for i := 0; i <= len(outfits); i++ {
		var cmd tea.Cmd
		m, cmd = press(m, runeKey("o"))
		if _, again := press(m, runeKey("o")); again != nil {
			t.Fatal("outfit change while busy should be ignored")
		}
		m = finishOp(t, m, cmd)

		want := outfits[i%len(outfits)]
		if !strings.HasSuffix(m.status, ": "+want.Label) {
			t.Errorf("press %d: status = %q, want outfit %q", i, m.status, want.Label)
		}
	}

	edits := fake.Edits()
	if len(edits) != len(outfits)+1 {
		t.Fatalf("got %d AI calls, want %d", len(edits), len(outfits)+1)
	}
	for i, req := range edits {
		if want := outfits[i%len(outfits)].Prompt; req.Instruction != want {
			t.Errorf("call %d instruction = %q, want %q", i, req.Instruction, want)
		}
		if req.Mode != genai.ModeDressChange {
			t.Errorf("call %d mode = %v", i, req.Mode)
		}
	}
}

func TestEditModelView(t *testing.T) {
	m, ed := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, "me.png") {
		t.Error("view should list the layer")
	}
	if !strings.Contains(view, "Untitled-1") {
		t.Error("view should show the document tab")
	}

	d, _ := ed.Active()
	ed.CloseDocument(d.ID)
	if view := m.View(); !strings.Contains(view, "No document") {
		t.Error("view should show the empty state")
	}
}

func TestEditModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	if _, cmd := press(m, runeKey("q")); cmd == nil {
		t.Error("q should quit")
	}
}
