package render

import (
	"bytes"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// Format is an export encoding.
type Format string

// Supported formats.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// JPEGQuality is the encoder quality for JPEG exports.
const JPEGQuality = 100

// ParseFormat accepts "png", "jpeg" and "jpg" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q (use png or jpeg)", s)
}

// Ext returns the file extension without a dot.
func (f Format) Ext() string {
	return string(f)
}

// MimeType returns the MIME type of the encoding.
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported export format %q", f)
}

// EncodeBytes is like Encode but returns the encoded bytes.
func EncodeBytes(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DefaultName is used when a document has no name.
const DefaultName = "studio_photo"

// Filename returns the artifact name "{name}_export.{ext}". The name is
// sanitized for use as a file name.
func Filename(docName string, f Format) string {
	name := errors.SanitizeFilename(docName)
	if name == "" {
		name = DefaultName
	}
	return name + "_export." + f.Ext()
}
