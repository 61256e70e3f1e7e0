package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/preset"
	"github.com/matzehuels/photostudio/pkg/render"
)

// scene describes a photo to compose non-interactively.
//
//	preset = "Passport Size"
//	name   = "jane"
//	format = "jpeg"
//
//	[[layer]]
//	image      = "jane.jpg"
//	background = "Blue"
//	ai         = "bg_remove"
type scene struct {
	Preset string `toml:"preset"`
	Name   string `toml:"name"`
	Format string `toml:"format"`
	// Select names the layer to export on its own. Empty exports the
	// whole canvas.
	Select string       `toml:"select"`
	Layers []sceneLayer `toml:"layer"`

	dir string
}

// sceneLayer is one uploaded image and the edits applied to it, in order:
// AI action first, then placement and adjustments.
type sceneLayer struct {
	Image string `toml:"image"`
	Name  string `toml:"name"`

	X        *float64 `toml:"x"`
	Y        *float64 `toml:"y"`
	Scale    *float64 `toml:"scale"`
	Rotation float64  `toml:"rotation"`

	Background string   `toml:"background"`
	Opacity    *float64 `toml:"opacity"`
	Brightness float64  `toml:"brightness"`
	Contrast   float64  `toml:"contrast"`
	Saturation float64  `toml:"saturation"`
	Hidden     bool     `toml:"hidden"`

	AI          string `toml:"ai"`
	Outfit      string `toml:"outfit"`
	Instruction string `toml:"instruction"`
}

// loadScene parses a scene file. Image paths are relative to the file.
func loadScene(path string) (*scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	if len(s.Layers) == 0 {
		return nil, fmt.Errorf("scene %s has no layers", path)
	}
	if s.Preset == "" {
		s.Preset = defaultPreset
	}
	if s.Format == "" {
		s.Format = string(render.FormatPNG)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

// imagePath resolves the image path of l.
func (s *scene) imagePath(l sceneLayer) string {
	if filepath.IsAbs(l.Image) {
		return l.Image
	}
	return filepath.Join(s.dir, l.Image)
}

// layerName is the layer name shown in the editor.
func (l sceneLayer) layerName() string {
	if l.Name != "" {
		return l.Name
	}
	return filepath.Base(l.Image)
}

// aiAction returns the AI mode and outfit description, or "" for none.
func (l sceneLayer) aiAction(cat *preset.Catalog) (genai.Mode, string, error) {
	if l.AI == "" {
		return "", "", nil
	}
	mode, err := genai.ParseMode(l.AI)
	if err != nil {
		return "", "", err
	}
	if mode != genai.ModeDressChange || l.Instruction != "" {
		return mode, l.Instruction, nil
	}
	o, err := cat.Outfit(l.Outfit)
	if err != nil {
		return "", "", err
	}
	return mode, o.Prompt, nil
}

// patch builds the layer update for placement and adjustments.
func (l sceneLayer) patch(cat *preset.Catalog) (document.Patch, error) {
	p := document.Patch{
		X:          l.X,
		Y:          l.Y,
		Brightness: &l.Brightness,
		Contrast:   &l.Contrast,
		Saturation: &l.Saturation,
		Opacity:    l.Opacity,
	}
	if l.Scale != nil {
		p.ScaleX, p.ScaleY = l.Scale, l.Scale
	}
	if l.Rotation != 0 {
		p.Rotation = &l.Rotation
	}
	if l.Background != "" {
		c, err := cat.ResolveColor(l.Background)
		if err != nil {
			return document.Patch{}, err
		}
		p.BgColor = &c
	}
	if l.Hidden {
		visible := false
		p.Visible = &visible
	}
	return p, p.Validate()
}
