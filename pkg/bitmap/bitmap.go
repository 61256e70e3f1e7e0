// Package bitmap holds the pixel content behind image layers.
//
// Layers never embed pixels. They carry a [Ref], an opaque handle to encoded
// image bytes kept in a [Store]. Replacing a layer's content (for example with
// the result of an AI edit) swaps the Ref and leaves the layer geometry alone.
//
// Refs are content hashes, so storing the same bytes twice yields the same Ref
// and stores can be shared between documents and sessions.
//
// # Decoding
//
// [Decode] reads only the image header to find the format and intrinsic size,
// which is all the layer model needs for fit-to-bounds placement. PNG, JPEG
// and WebP are registered.
package bitmap

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/matzehuels/photostudio/pkg/errors"
)

// Ref is an opaque handle to stored image bytes.
type Ref string

// String returns a shortened form for logs.
func (r Ref) String() string {
	if len(r) > 12 {
		return string(r[:12])
	}
	return string(r)
}

// Info describes an encoded image.
type Info struct {
	Format string // "png", "jpeg" or "webp"
	Width  int
	Height int
}

// MimeType returns the MIME type of the encoded image.
func (i Info) MimeType() string {
	return "image/" + i.Format
}

// Hash computes the content hash used as a Ref.
// Returns the full 64-character hex string.
func Hash(data []byte) Ref {
	sum := sha256.Sum256(data)
	return Ref(hex.EncodeToString(sum[:]))
}

// Decode reads the header of data and returns its format and intrinsic size.
// Images with a zero dimension are rejected.
func Decode(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, errors.New(errors.ErrCodeInvalidImage, "image data is empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, errors.Wrap(errors.ErrCodeInvalidImage, err, "unrecognized image data")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, errors.New(errors.ErrCodeInvalidImage, "image has zero size (%dx%d)", cfg.Width, cfg.Height)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// DecodeImage fully decodes data into pixels.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode image")
	}
	return img, nil
}
