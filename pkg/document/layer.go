package document

import (
	"github.com/google/uuid"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/geom"
)

// Fit fractions of the canvas used when placing new layers.
const (
	UploadFit = 0.8
	MergeFit  = 0.9
)

// Layer is one placed bitmap within a document.
//
// X and Y locate the unscaled top-left corner of the layer box on the canvas.
// The box is scaled by ScaleX/ScaleY, then rotated by Rotation degrees around
// that corner, then translated.
type Layer struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Bitmap  bitmap.Ref `json:"bitmap"`
	Visible bool       `json:"visible"`
	// Locked is stored and shown but no operation enforces it.
	Locked bool `json:"locked"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
	Rotation float64 `json:"rotation"`

	// BgColor is painted behind the bitmap inside the layer box.
	BgColor string  `json:"bg_color"`
	Opacity float64 `json:"opacity"`

	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// NewLayer creates a layer for a bitmap of the given intrinsic size, fit into
// fit*canvas bounds and centered on the canvas. The bitmap is never scaled
// above its native size.
func NewLayer(name string, ref bitmap.Ref, srcW, srcH, canvasW, canvasH int, fit float64) (Layer, error) {
	if srcW <= 0 || srcH <= 0 {
		return Layer{}, errors.New(errors.ErrCodeInvalidImage, "image has zero size (%dx%d)", srcW, srcH)
	}
	if canvasW <= 0 || canvasH <= 0 {
		return Layer{}, errors.New(errors.ErrCodeInvalidInput, "canvas has zero size (%dx%d)", canvasW, canvasH)
	}
	if fit <= 0 || fit > 1 {
		return Layer{}, errors.New(errors.ErrCodeInvalidInput, "fit fraction %v out of range (0,1]", fit)
	}

	cw, ch := float64(canvasW), float64(canvasH)
	w, h := geom.FitDimensions(float64(srcW), float64(srcH), cw*fit, ch*fit)
	x, y := geom.Centered(w, h, cw, ch)

	return Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Bitmap:  ref,
		Visible: true,
		X:       x,
		Y:       y,
		Width:   w,
		Height:  h,
		ScaleX:  1,
		ScaleY:  1,
		BgColor: errors.Transparent,
		Opacity: 1,
	}, nil
}

// Transform returns the placement of the layer.
func (l Layer) Transform() geom.Transform {
	return geom.Transform{X: l.X, Y: l.Y, ScaleX: l.ScaleX, ScaleY: l.ScaleY, Rotation: l.Rotation}
}

// Bounds returns the canvas-space bounding box of the transformed layer.
func (l Layer) Bounds() geom.Rect {
	return l.Transform().Bounds(l.Width, l.Height)
}

// Contains reports whether the canvas point (x, y) falls inside the layer box.
func (l Layer) Contains(x, y float64) bool {
	return l.Transform().HitTest(l.Width, l.Height, x, y)
}

// HasAdjustments reports whether any tonal adjustment is non-zero.
func (l Layer) HasAdjustments() bool {
	return l.Brightness != 0 || l.Contrast != 0 || l.Saturation != 0
}
