package document

import (
	"math"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/errors"
	"github.com/matzehuels/photostudio/pkg/geom"
)

// Adjustment ranges. Values outside are clamped on write.
const (
	MinBrightness = -1.0
	MaxBrightness = 1.0
	MinContrast   = -100.0
	MaxContrast   = 100.0
	MinSaturation = -100.0
	MaxSaturation = 100.0
)

// Patch is a partial update to a layer. Nil fields are left unchanged.
type Patch struct {
	Name    *string     `json:"name,omitempty"`
	Bitmap  *bitmap.Ref `json:"bitmap,omitempty"`
	Visible *bool       `json:"visible,omitempty"`
	Locked  *bool       `json:"locked,omitempty"`

	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	ScaleX   *float64 `json:"scale_x,omitempty"`
	ScaleY   *float64 `json:"scale_y,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`

	BgColor *string  `json:"bg_color,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`

	Brightness *float64 `json:"brightness,omitempty"`
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// MovePatch sets only the position.
func MovePatch(x, y float64) Patch {
	return Patch{X: ptr(x), Y: ptr(y)}
}

// TransformPatch sets position, scale and rotation together.
func TransformPatch(t geom.Transform) Patch {
	return Patch{
		X:        ptr(t.X),
		Y:        ptr(t.Y),
		ScaleX:   ptr(t.ScaleX),
		ScaleY:   ptr(t.ScaleY),
		Rotation: ptr(t.Rotation),
	}
}

// BitmapPatch swaps the bitmap and keeps geometry.
func BitmapPatch(ref bitmap.Ref) Patch {
	return Patch{Bitmap: &ref}
}

// VisiblePatch sets visibility.
func VisiblePatch(v bool) Patch { return Patch{Visible: &v} }

// LockedPatch sets the lock flag.
func LockedPatch(v bool) Patch { return Patch{Locked: &v} }

// NamePatch renames the layer.
func NamePatch(name string) Patch { return Patch{Name: &name} }

// BgColorPatch sets the background fill.
func BgColorPatch(c string) Patch { return Patch{BgColor: &c} }

// OpacityPatch sets opacity.
func OpacityPatch(v float64) Patch { return Patch{Opacity: &v} }

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Validate checks the patch without applying it.
func (p Patch) Validate() error {
	if p.Name != nil {
		if err := errors.ValidateDocumentName(*p.Name); err != nil {
			return err
		}
	}
	if p.Bitmap != nil && *p.Bitmap == "" {
		return errors.New(errors.ErrCodeInvalidImage, "empty bitmap reference")
	}
	if p.BgColor != nil {
		if err := errors.ValidateColor(*p.BgColor); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"x", p.X}, {"y", p.Y}, {"width", p.Width}, {"height", p.Height},
		{"scale_x", p.ScaleX}, {"scale_y", p.ScaleY}, {"rotation", p.Rotation},
		{"opacity", p.Opacity}, {"brightness", p.Brightness},
		{"contrast", p.Contrast}, {"saturation", p.Saturation},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be a finite number", f.name)
		}
	}
	if p.Width != nil && *p.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width must be positive")
	}
	if p.Height != nil && *p.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "height must be positive")
	}
	if p.ScaleX != nil && *p.ScaleX == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale_x must not be zero")
	}
	if p.ScaleY != nil && *p.ScaleY == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale_y must not be zero")
	}
	return nil
}

// apply writes the patch onto l. The patch must have been validated.
func (p Patch) apply(l *Layer) {
	setString(&l.Name, p.Name)
	if p.Bitmap != nil {
		l.Bitmap = *p.Bitmap
	}
	setBool(&l.Visible, p.Visible)
	setBool(&l.Locked, p.Locked)

	setFloat(&l.X, p.X)
	setFloat(&l.Y, p.Y)
	setFloat(&l.Width, p.Width)
	setFloat(&l.Height, p.Height)
	setFloat(&l.ScaleX, p.ScaleX)
	setFloat(&l.ScaleY, p.ScaleY)
	setFloat(&l.Rotation, p.Rotation)

	setString(&l.BgColor, p.BgColor)
	if p.Opacity != nil {
		l.Opacity = clamp(*p.Opacity, 0, 1)
	}
	if p.Brightness != nil {
		l.Brightness = clamp(*p.Brightness, MinBrightness, MaxBrightness)
	}
	if p.Contrast != nil {
		l.Contrast = clamp(*p.Contrast, MinContrast, MaxContrast)
	}
	if p.Saturation != nil {
		l.Saturation = clamp(*p.Saturation, MinSaturation, MaxSaturation)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
