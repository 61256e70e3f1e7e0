// Package render flattens documents into raster images and encodes the
// result for export.
//
// # Overview
//
// [Flatten] composites either a whole document or one of its layers (the
// render [Root]) into a single image at a pixel-density multiplier. Exports
// always use [PixelRatio], so a 600x600 canvas produces a 2400x2400 image.
//
// Each visible layer is drawn in stacking order with its transform applied
// in the order scale, rotate, translate:
//
//  1. the background fill covers the layer box at full opacity
//  2. the bitmap is stretched to the layer box, with brightness, contrast,
//     saturation and opacity applied to the bitmap only
//
// Hidden layers are skipped. A layer root that is hidden or missing falls
// back to the whole canvas.
//
// # Encoding
//
// [Encode] writes PNG (lossless) or JPEG at quality [JPEGQuality]. JPEG has no
// alpha channel, so transparent canvas areas come out black.
//
//	res, err := render.Flatten(ctx, doc, render.LayerRoot(id), render.PixelRatio, loader)
//	art, err := render.NewArtifact(doc.Name, render.FormatPNG, res)
//	path, err := render.NewDirSink(".").Deliver(ctx, art)
package render
