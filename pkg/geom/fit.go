package geom

import "math"

// FitDimensions scales (srcW, srcH) to fit inside (maxW, maxH) while keeping
// the aspect ratio. The ratio is clamped to 1, so a source that already fits is
// returned unchanged. Zero-sized sources are invalid input and must be
// rejected by the caller.
func FitDimensions(srcW, srcH, maxW, maxH float64) (w, h float64) {
	ratio := math.Min(math.Min(maxW/srcW, maxH/srcH), 1)
	return srcW * ratio, srcH * ratio
}

// Centered returns the top-left position that centers a (w, h) box inside a
// (boundsW, boundsH) area.
func Centered(w, h, boundsW, boundsH float64) (x, y float64) {
	return (boundsW - w) / 2, (boundsH - h) / 2
}
