package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/genai"
	"github.com/matzehuels/photostudio/pkg/preset"
)

func writeScene(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScene(t *testing.T) {
	path := writeScene(t, `
name = "jane"

[[layer]]
image = "jane.jpg"
background = "Blue"
scale = 1.5

[[layer]]
image = "/abs/logo.png"
name = "logo"
hidden = true
`)
	s, err := loadScene(path)
	if err != nil {
		t.Fatalf("loadScene: %v", err)
	}
	if s.Preset != defaultPreset {
		t.Errorf("Preset = %q, want %q", s.Preset, defaultPreset)
	}
	if s.Format != "png" {
		t.Errorf("Format = %q, want png", s.Format)
	}
	if len(s.Layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(s.Layers))
	}
	if got, want := s.imagePath(s.Layers[0]), filepath.Join(filepath.Dir(path), "jane.jpg"); got != want {
		t.Errorf("imagePath = %q, want %q", got, want)
	}
	if got := s.imagePath(s.Layers[1]); got != "/abs/logo.png" {
		t.Errorf("imagePath = %q, want absolute path kept", got)
	}
	if got := s.Layers[0].layerName(); got != "jane.jpg" {
		t.Errorf("layerName = %q, want file name", got)
	}
	if got := s.Layers[1].layerName(); got != "logo" {
		t.Errorf("layerName = %q, want logo", got)
	}
}

func TestLoadSceneErrors(t *testing.T) {
	if _, err := loadScene(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := loadScene(writeScene(t, `preset = "Passport Size"`)); err == nil {
		t.Error("expected error for scene without layers")
	}
	if _, err := loadScene(writeScene(t, `[[layer]`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestScenePatch(t *testing.T) {
	cat := preset.Default()
	scale, opacity := 1.5, 0.8
	l := sceneLayer{Background: "blue", Scale: &scale, Opacity: &opacity, Hidden: true, Contrast: 20}

	p, err := l.patch(cat)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if p.BgColor == nil || *p.BgColor != "#0033aa" {
		t.Errorf("BgColor = %v, want #0033aa", p.BgColor)
	}
	if p.ScaleX == nil || *p.ScaleX != 1.5 || *p.ScaleY != 1.5 {
		t.Errorf("scale not applied uniformly")
	}
	if p.Visible == nil || *p.Visible {
		t.Errorf("hidden layer should patch Visible=false")
	}
	if p.Rotation != nil {
		t.Errorf("zero rotation should be left alone")
	}
	if p.X != nil {
		t.Errorf("unset position should be left alone")
	}

	lit := sceneLayer{Background: "#abc"}
	if p, err := lit.patch(cat); err != nil || *p.BgColor != "#abc" {
		t.Errorf("literal color: got %v, %v", p.BgColor, err)
	}

	bad := sceneLayer{Background: "mauve"}
	if _, err := bad.patch(cat); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("bad color: err = %v, want INVALID_COLOR", err)
	}
}

func TestSceneAIAction(t *testing.T) {
	cat := preset.Default()
	tests := []struct {
		name     string
		layer    sceneLayer
		wantMode genai.Mode
		wantText string
		wantErr  bool
	}{
		{name: "none", layer: sceneLayer{}},
		{name: "alias", layer: sceneLayer{AI: "bg-remove"}, wantMode: genai.ModeBackgroundRemoval},
		{name: "outfit preset", layer: sceneLayer{AI: "outfit", Outfit: "casual"}, wantMode: genai.ModeDressChange, wantText: "stylish casual denim shirt"},
		{name: "custom outfit", layer: sceneLayer{AI: "dress_change", Instruction: "green hoodie"}, wantMode: genai.ModeDressChange, wantText: "green hoodie"},
		{name: "unknown outfit", layer: sceneLayer{AI: "dress_change", Outfit: "toga"}, wantErr: true},
		{name: "unknown mode", layer: sceneLayer{AI: "sharpen"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, text, err := tt.layer.aiAction(cat)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if mode != tt.wantMode || text != tt.wantText {
				t.Errorf("aiAction = (%q, %q), want (%q, %q)", mode, text, tt.wantMode, tt.wantText)
			}
		})
	}
}
