// Package geom provides the geometry shared by the layer model, the transform
// controller and the export pipeline.
//
// # Fit-to-bounds
//
// [FitDimensions] computes aspect-ratio-preserving, downscale-only sizes used
// when a new layer is placed on a canvas:
//
//	w, h := geom.FitDimensions(1200, 1200, 480, 480) // 480, 480
//	w, h  = geom.FitDimensions(100, 50, 480, 480)    // 100, 50 (never upscaled)
//
// # Transforms
//
// A [Transform] places a layer's un-scaled box (0,0)-(w,h) on the canvas. The
// composition order matches the on-screen toolkit: scale, then rotate about the
// layer's local origin (its top-left corner), then translate to (X, Y):
//
//	canvas = Translate(X, Y) · Rotate(Rotation) · Scale(ScaleX, ScaleY) · local
//
// [Affine] is a plain 2x3 matrix used for bounding-box math; rendering code
// uses the same composition through fogleman/gg's context transforms.
package geom
