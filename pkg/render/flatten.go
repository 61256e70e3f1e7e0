package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/document"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/geom"
)

// PixelRatio is the pixel-density multiplier used for exports.
const PixelRatio = 4

// Raster limits for Flatten. An A4 page at PixelRatio is about 139M pixels.
const (
	MaxExportSide   = 1 << 15
	MaxExportPixels = 200_000_000
)

// Root selects what Flatten renders. The zero value is the whole canvas.
type Root struct {
	LayerID string
}

// CanvasRoot renders the whole canvas.
func CanvasRoot() Root { return Root{} }

// LayerRoot renders a single layer cropped to its transformed bounds.
func LayerRoot(id string) Root { return Root{LayerID: id} }

// IsCanvas reports whether r is the whole canvas.
func (r Root) IsCanvas() bool { return r.LayerID == "" }

func (r Root) String() string {
	if r.IsCanvas() {
		return "canvas"
	}
	return "layer " + r.LayerID
}

// Loader resolves a bitmap reference to pixels.
type Loader func(ctx context.Context, ref bitmap.Ref) (image.Image, error)

// StoreLoader returns a Loader reading from s.
func StoreLoader(s bitmap.Store) Loader {
	return func(ctx context.Context, ref bitmap.Ref) (image.Image, error) {
		data, err := s.Get(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load bitmap %s: %w", ref, err)
		}
		return bitmap.DecodeImage(data)
	}
}

// Result is a flattened raster.
type Result struct {
	Image image.Image
	// Root is the root actually rendered, after falling back to the canvas.
	Root Root
	// Bounds is the rendered region in canvas coordinates.
	Bounds geom.Rect
	Ratio  float64
}

// Width returns the raster width in pixels.
func (r *Result) Width() int { return r.Image.Bounds().Dx() }

// Height returns the raster height in pixels.
func (r *Result) Height() int { return r.Image.Bounds().Dy() }

// Flatten composites doc (or one of its layers) at ratio pixels per canvas
// unit. The document is only read.
func Flatten(ctx context.Context, doc *document.Document, root Root, ratio float64, load Loader) (*Result, error) {
	if ratio <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "pixel ratio must be positive, got %v", ratio)
	}

	region := geom.Rect{W: float64(doc.Width), H: float64(doc.Height)}
	layers := doc.Layers
	if !root.IsCanvas() {
		l, ok := doc.Layer(root.LayerID)
		if ok && l.Visible {
			region = l.Bounds()
			layers = []document.Layer{l}
		} else {
			root = CanvasRoot()
		}
	}

	if err := checkRaster(region, ratio); err != nil {
		return nil, err
	}
	w, h := region.ScaledSize(ratio)
	dc := gg.NewContext(w, h)
	dc.Scale(ratio, ratio)
	dc.Translate(-region.X, -region.Y)

	for _, l := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Visible {
			continue
		}
		if err := drawLayer(ctx, dc, l, load); err != nil {
			return nil, fmt.Errorf("draw layer %q: %w", l.Name, err)
		}
	}

	return &Result{Image: dc.Image(), Root: root, Bounds: region, Ratio: ratio}, nil
}

// checkRaster rejects regions whose raster would exceed the export limits.
func checkRaster(region geom.Rect, ratio float64) error {
	w, h := region.W*ratio, region.H*ratio
	if w <= MaxExportSide && h <= MaxExportSide && w*h <= MaxExportPixels {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput,
		"export of %.0fx%.0f pixels is too large (limit %d per side, %d total); scale the layer down",
		w, h, MaxExportSide, MaxExportPixels)
}

func drawLayer(ctx context.Context, dc *gg.Context, l document.Layer, load Loader) error {
	dc.Push()
	defer dc.Pop()

	dc.Translate(l.X, l.Y)
	dc.Rotate(geom.Radians(l.Rotation))
	dc.Scale(l.ScaleX, l.ScaleY)

	if l.BgColor != "" && l.BgColor != errors.Transparent {
		if err := errors.ValidateColor(l.BgColor); err != nil {
			return err
		}
		dc.SetHexColor(expandHex(l.BgColor))
		dc.DrawRectangle(0, 0, l.Width, l.Height)
		dc.Fill()
	}

	if l.Bitmap == "" || l.Opacity <= 0 {
		return nil
	}
	img, err := load(ctx, l.Bitmap)
	if err != nil {
		return err
	}
	img = adjust(img, l)

	b := img.Bounds()
	dc.Scale(l.Width/float64(b.Dx()), l.Height/float64(b.Dy()))
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	return nil
}

// adjust applies the tonal adjustments and opacity of l to img.
// Brightness is stored in [-1, 1]; contrast and saturation are percentages.
func adjust(img image.Image, l document.Layer) image.Image {
	if !l.HasAdjustments() && l.Opacity >= 1 {
		return img
	}
	out := imaging.Clone(img)
	if l.Brightness != 0 {
		out = imaging.AdjustBrightness(out, l.Brightness*100)
	}
	if l.Contrast != 0 {
		out = imaging.AdjustContrast(out, l.Contrast)
	}
	if l.Saturation != 0 {
		out = imaging.AdjustSaturation(out, l.Saturation)
	}
	if l.Opacity < 1 {
		b := out.Bounds()
		out = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.NRGBA{}), out, image.Point{}, l.Opacity)
	}
	return out
}

// expandHex rewrites #RGBA as #RRGGBBAA, which gg parses.
func expandHex(c string) string {
	if len(c) != 5 {
		return c
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, r := range c[1:] {
		b.WriteRune(r)
		b.WriteRune(r)
	}
	return b.String()
}
