package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestTransformMatrixOrder(t *testing.T) {
	tr := Transform{X: 100, Y: 50, ScaleX: 2, ScaleY: 2, Rotation: 90}
	m := tr.Matrix()

	// The local origin is the pivot: it lands exactly on (X, Y).
	if x, y := m.Apply(0, 0); !near(x, 100) || !near(y, 50) {
		t.Errorf("origin -> (%v, %v), want (100, 50)", x, y)
	}
	// Local (10, 0) is scaled to 20 then rotated 90° clockwise onto +y.
	if x, y := m.Apply(10, 0); !near(x, 100) || !near(y, 70) {
		t.Errorf("(10,0) -> (%v, %v), want (100, 70)", x, y)
	}
}

func TestTransformBounds(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		w, h float64
		want Rect
	}{
		{"identity", Identity(), 480, 320, Rect{0, 0, 480, 320}},
		{"translated", Transform{X: 60, Y: 60, ScaleX: 1, ScaleY: 1}, 480, 480, Rect{60, 60, 480, 480}},
		{"scaled", Transform{X: 10, Y: 20, ScaleX: 0.5, ScaleY: 0.5}, 100, 40, Rect{10, 20, 50, 20}},
		{"rotated 90", Transform{X: 100, Y: 0, ScaleX: 1, ScaleY: 1, Rotation: 90}, 100, 40, Rect{60, 0, 40, 100}},
		{"rotated 180", Transform{X: 100, Y: 100, ScaleX: 1, ScaleY: 1, Rotation: 180}, 100, 40, Rect{0, 60, 100, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tr.Bounds(tt.w, tt.h)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) || !near(got.W, tt.want.W) || !near(got.H, tt.want.H) {
				t.Errorf("Bounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRotated45BoundsGrow(t *testing.T) {
	tr := Transform{ScaleX: 1, ScaleY: 1, Rotation: 45}
	got := tr.Bounds(100, 100)
	want := 100 * math.Sqrt2
	if !near(got.W, want) || !near(got.H, want) {
		t.Errorf("Bounds() size = (%v, %v), want (%v, %v)", got.W, got.H, want, want)
	}
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		r     Rect
		ratio float64
		w, h  int
	}{
		{Rect{W: 600, H: 600}, 4, 2400, 2400},
		{Rect{W: 851, H: 315}, 4, 3404, 1260},
		{Rect{W: 10.1, H: 0.1}, 4, 41, 1},
		{Rect{W: 0, H: 0}, 4, 1, 1},
		{Rect{W: 1e300, H: math.NaN()}, 4, math.MaxInt32, 1},
		{Rect{W: math.Inf(1), H: -5}, 4, math.MaxInt32, 1},
	}
	for _, tt := range tests {
		w, h := tt.r.ScaledSize(tt.ratio)
		if w != tt.w || h != tt.h {
			t.Errorf("ScaledSize(%+v, %v) = (%d, %d), want (%d, %d)", tt.r, tt.ratio, w, h, tt.w, tt.h)
		}
	}
}

func TestHitTest(t *testing.T) {
	tr := Transform{X: 100, Y: 100, ScaleX: 2, ScaleY: 2, Rotation: 90}
	// Box 50x20 scaled to 100x40, rotated clockwise: covers x in [60,100], y in [100,200].
	if !tr.HitTest(50, 20, 80, 150) {
		t.Error("expected hit inside rotated box")
	}
	if tr.HitTest(50, 20, 120, 150) {
		t.Error("unexpected hit right of the pivot")
	}
	if (Transform{}).HitTest(50, 20, 0, 0) {
		t.Error("zero-scale transform must never hit")
	}
}
