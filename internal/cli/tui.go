package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/editor"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/render"
)

// Editor view styles
var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabStyle         = lipgloss.NewStyle().Foreground(colorGray)
	listSelectedRow  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listHiddenRow    = lipgloss.NewStyle().Foreground(colorDim)
	statusErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	helpStyle        = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	nudgeStep  = 10.0
	scaleStep  = 1.1
	rotateStep = 15.0
	frameTick  = 80 * time.Millisecond
)

// =============================================================================
// Messages
// =============================================================================

// opDoneMsg reports the end of an AI action or export.
type opDoneMsg struct {
	status string
	err    error
}

// tickMsg redraws while an operation is running. Each redraw is a frame for
// the editor's FrameSync.
type tickMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(frameTick, func(time.Time) tea.Msg { return tickMsg{} })
}

// =============================================================================
// EditModel - Interactive editor
// =============================================================================

// EditModel is the bubbletea model of the terminal editor. Every key maps
// to an editor operation; the view is derived from editor state only.
type EditModel struct {
	ctx    context.Context
	ed     *editor.Editor
	frames *editor.FrameSignal

	busy      bool
	spin      int
	status    string
	failed    bool
	colorIdx  int
	outfitIdx int
}

// NewEditModel creates the editor model. frames must be the FrameSync the
// editor was built with.
func NewEditModel(ctx context.Context, ed *editor.Editor, frames *editor.FrameSignal) EditModel {
	return EditModel{ctx: ctx, ed: ed, frames: frames}
}

func (m EditModel) Init() tea.Cmd {
	return nil
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case opDoneMsg:
		m.busy = false
		m.setResult(msg.status, msg.err)
	case tickMsg:
		if m.busy {
			m.spin++
			return m, tick()
		}
	}
	return m, nil
}

func (m *EditModel) setResult(status string, err error) {
	if err != nil {
		m.status, m.failed = errors.UserMessage(err), true
		return
	}
	m.status, m.failed = status, false
}

func (m EditModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.setResult("", m.cycleSelection(1))
	case "shift+tab":
		m.setResult("", m.cycleSelection(-1))
	case "esc":
		m.ed.ClearSelection()
	case "up":
		m.setResult("", m.ed.Nudge(0, -nudgeStep))
	case "down":
		m.setResult("", m.ed.Nudge(0, nudgeStep))
	case "left":
		m.setResult("", m.ed.Nudge(-nudgeStep, 0))
	case "right":
		m.setResult("", m.ed.Nudge(nudgeStep, 0))
	case "+", "=":
		m.setResult("", m.ed.ScaleBy(scaleStep))
	case "-":
		m.setResult("", m.ed.ScaleBy(1/scaleStep))
	case "[":
		m.setResult("", m.ed.RotateBy(-rotateStep))
	case "]":
		m.setResult("", m.ed.RotateBy(rotateStep))
	case "v":
		m.withSelected(func(l document.Layer) { m.ed.ToggleVisibility(l.ID) })
	case "l":
		m.withSelected(func(l document.Layer) { m.ed.ToggleLock(l.ID) })
	case "pgup":
		m.withSelected(func(l document.Layer) { m.ed.MoveLayer(l.ID, 1) })
	case "pgdown":
		m.withSelected(func(l document.Layer) { m.ed.MoveLayer(l.ID, -1) })
	case "b":
		m.cycleBackground()
	case "d":
		m.cycleDocument()
	case "n":
		_, err := m.ed.NewDocument(m.ed.Catalog().DefaultPage().Name)
		m.setResult("New document", err)
	case "w":
		if id := m.ed.ActiveID(); id != "" {
			m.ed.CloseDocument(id)
		}
	case "delete", "backspace":
		_, err := m.ed.HandleKey(m.ctx, editor.ParseKey(key))
		m.setResult("", err)
	case "r":
		return m.startAI(genai.ModeBackgroundRemoval, "", "")
	case "u":
		return m.startAI(genai.ModeUpscale, "", "")
	case "f":
		return m.startAI(genai.ModeFaceRetouch, "", "")
	case "o":
		return m.changeOutfit()
	case "p":
		return m.startExport(render.FormatPNG)
	case "ctrl+s":
		return m.startExport(render.FormatJPEG)
	}
	return m, nil
}

func (m *EditModel) withSelected(fn func(document.Layer)) {
	d, ok := m.ed.Active()
	if !ok {
		return
	}
	if l, ok := d.Selected(); ok {
		fn(l)
	}
}

// cycleSelection selects the next layer in stack order.
func (m *EditModel) cycleSelection(step int) error {
	d, ok := m.ed.Active()
	if !ok || len(d.Layers) == 0 {
		return nil
	}
	next := 0
	for i, l := range d.Layers {
		if l.ID == d.SelectedLayerID {
			next = (i + step + len(d.Layers)) % len(d.Layers)
		}
	}
	return m.ed.SelectLayer(d.Layers[next].ID)
}

func (m *EditModel) cycleBackground() {
	colors := m.ed.Catalog().Colors
	if len(colors) == 0 {
		return
	}
	m.withSelected(func(l document.Layer) {
		c := colors[m.colorIdx%len(colors)]
		m.colorIdx++
		_, err := m.ed.UpdateLayer(l.ID, document.BgColorPatch(c.Value))
		m.setResult("Background: "+c.Name, err)
	})
}

// changeOutfit runs a dress change with the next outfit preset, so
// repeated presses step through the catalog.
func (m EditModel) changeOutfit() (tea.Model, tea.Cmd) {
	outfits := m.ed.Catalog().Outfits
	if len(outfits) == 0 || m.busy {
		return m, nil
	}
	o := outfits[m.outfitIdx%len(outfits)]
	m.outfitIdx++
	return m.startAI(genai.ModeDressChange, o.Prompt, o.Label)
}

func (m *EditModel) cycleDocument() {
	docs := m.ed.Documents()
	if len(docs) == 0 {
		return
	}
	active := m.ed.ActiveID()
	next := 0
	for i, d := range docs {
		if d.ID == active {
			next = (i + 1) % len(docs)
		}
	}
	_ = m.ed.SetActive(docs[next].ID)
}

// startAI runs an AI edit in the background. detail, if set, is appended to
// the completion status.
func (m EditModel) startAI(mode genai.Mode, instruction, detail string) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = ""
	ctx, ed := m.ctx, m.ed
	run := func() tea.Msg {
		res, err := ed.RunAI(ctx, mode, instruction)
		switch {
		case err != nil:
			return opDoneMsg{err: err}
		case !res.Applied:
			return opDoneMsg{status: "Nothing applied: " + res.Reason}
		}
		status := "AI " + mode.Label() + " applied"
		if detail != "" {
			status += ": " + detail
		}
		return opDoneMsg{status: status}
	}
	return m, tea.Batch(run, tick())
}

// startExport runs the export in the background. The ticks keep the view
// redrawing so the editor sees a frame without the selection overlay.
func (m EditModel) startExport(f render.Format) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = ""
	ctx, ed := m.ctx, m.ed
	run := func() tea.Msg {
		res, err := ed.Export(ctx, f)
		if err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: fmt.Sprintf("Exported %s (%dx%d)", res.Path, res.Artifact.Width, res.Artifact.Height)}
	}
	return m, tea.Batch(run, tick())
}

func (m EditModel) View() string {
	defer m.frames.Rendered()

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Photostudio"))
	b.WriteString("  ")
	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	d, ok := m.ed.Active()
	if !ok {
		b.WriteString(StyleDim.Render("No document. Press n to create one."))
		b.WriteString("\n")
	} else {
		b.WriteString(StyleDim.Render(fmt.Sprintf("%s · %dx%d · %s", d.Name, d.Width, d.Height, m.ed.State())))
		b.WriteString("\n")
		b.WriteString(m.layerTable(d))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab select  ←↑↓→ move  +/- scale  [/] rotate  v hide  l lock  b background  pgup/pgdn order"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r remove bg  u upscale  f retouch  o outfit  p " + m.ed.ExportLabel(render.FormatPNG) +
		"  ctrl+s " + m.ed.ExportLabel(render.FormatJPEG) + "  del delete  n new  d next doc  w close  q quit"))
	return b.String()
}

func (m EditModel) tabs() string {
	active := m.ed.ActiveID()
	var parts []string
	for _, d := range m.ed.Documents() {
		if d.ID == active {
			parts = append(parts, tabActiveStyle.Render(d.Name))
		} else {
			parts = append(parts, tabStyle.Render(d.Name))
		}
	}
	return strings.Join(parts, "  ")
}

// layerTable lists layers top of stack first, like a layers panel.
func (m EditModel) layerTable(d *document.Document) string {
	rows := make([][]string, 0, len(d.Layers))
	ids := make([]string, 0, len(d.Layers))
	hidden := make([]bool, 0, len(d.Layers))
	for i := len(d.Layers) - 1; i >= 0; i-- {
		l := d.Layers[i]
		flags := ""
		if !l.Visible {
			flags += iconHidden + " "
		}
		if l.Locked {
			flags += iconLocked
		}
		rows = append(rows, []string{
			l.Name,
			fmt.Sprintf("%.0f,%.0f", l.X, l.Y),
			fmt.Sprintf("%.0fx%.0f", l.Width*l.ScaleX, l.Height*l.ScaleY),
			fmt.Sprintf("%.0f°", l.Rotation),
			l.BgColor,
			fmt.Sprintf("%.0f%%", l.Opacity*100),
			strings.TrimSpace(flags),
		})
		ids = append(ids, l.ID)
		hidden = append(hidden, !l.Visible)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layer", "Position", "Size", "Rotation", "Background", "Opacity", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return tableHeaderStyle.Padding(0, 1)
			case row >= len(ids):
				return base
			case ids[row] == d.SelectedLayerID:
				return listSelectedRow.Padding(0, 1)
			case hidden[row]:
				return listHiddenRow.Padding(0, 1)
			}
			return base
		})
	return t.Render()
}

func (m EditModel) statusLine() string {
	ui := m.ed.UI()
	switch {
	case m.busy && ui.Loading:
		return styleIconSpinner.Render(spinnerFrames[m.spin%len(spinnerFrames)]) + " " + StyleDim.Render(ui.LoadingMessage)
	case m.busy:
		return styleIconSpinner.Render(spinnerFrames[m.spin%len(spinnerFrames)]) + " " + StyleDim.Render("Exporting...")
	case m.failed:
		return styleIconError.Render(iconError) + " " + statusErrorStyle.Render(m.status)
	case m.status != "":
		return styleIconSuccess.Render(iconSuccess) + " " + m.status
	}
	return ""
}
