package geom

import "math"

// Transform is the placement of a layer on its canvas.
type Transform struct {
	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64 // degrees, clockwise in screen space (y down)
}

// Identity returns a Transform at the origin with unit scale.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Matrix returns the canvas-space matrix Translate · Rotate · Scale.
func (t Transform) Matrix() Affine {
	return Translate(t.X, t.Y).
		Multiply(Rotate(Radians(t.Rotation))).
		Multiply(Scale(t.ScaleX, t.ScaleY))
}

// Bounds returns the axis-aligned canvas bounding box of a (w, h) box placed
// with t.
func (t Transform) Bounds(w, h float64) Rect {
	return t.Matrix().TransformRect(Rect{W: w, H: h})
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Affine is a 2D affine matrix:
//
//	| A  B  C |
//	| D  E  F |
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// IdentityMatrix returns the identity matrix.
func IdentityMatrix() Affine {
	return Affine{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Affine {
	return Affine{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Affine {
	return Affine{A: x, E: y}
}

// Rotate creates a rotation matrix (angle in radians). With y pointing down a
// positive angle turns clockwise on screen.
func Rotate(angle float64) Affine {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Affine{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns m · o, i.e. o is applied first.
func (m Affine) Multiply(o Affine) Affine {
	return Affine{
		A: m.A*o.A + m.B*o.D,
		B: m.A*o.B + m.B*o.E,
		C: m.A*o.C + m.B*o.F + m.C,
		D: m.D*o.A + m.E*o.D,
		E: m.D*o.B + m.E*o.E,
		F: m.D*o.C + m.E*o.F + m.F,
	}
}

// Apply transforms the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// TransformRect returns the bounding box of r's four transformed corners.
func (m Affine) TransformRect(r Rect) Rect {
	xs := [4]float64{r.X, r.X + r.W, r.X, r.X + r.W}
	ys := [4]float64{r.Y, r.Y, r.Y + r.H, r.Y + r.H}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		x, y := m.Apply(xs[i], ys[i])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// ScaledSize returns the pixel size of r rasterized at ratio, rounding up so
// that partially covered pixels are kept. Sizes saturate at math.MaxInt32.
func (r Rect) ScaledSize(ratio float64) (w, h int) {
	return pixels(r.W * ratio), pixels(r.H * ratio)
}

func pixels(v float64) int {
	const eps = 1e-9
	v = math.Ceil(v - eps)
	switch {
	case math.IsNaN(v) || v < 1:
		return 1
	case v > math.MaxInt32:
		return math.MaxInt32
	}
	return int(v)
}
