package geom

// HitTest reports whether the canvas point (x, y) falls inside a (w, h) box
// placed with t. The point is mapped back into the box's local space, so
// rotated and scaled layers are hit exactly rather than by their bounding box.
func (t Transform) HitTest(w, h, x, y float64) bool {
	if t.ScaleX == 0 || t.ScaleY == 0 {
		return false
	}
	// Inverse of Translate · Rotate · Scale.
	inv := Scale(1/t.ScaleX, 1/t.ScaleY).
		Multiply(Rotate(-Radians(t.Rotation))).
		Multiply(Translate(-t.X, -t.Y))
	lx, ly := inv.Apply(x, y)
	return Rect{W: w, H: h}.Contains(lx, ly)
}
