package genai

import (
	"context"

	"github.com/matzehuels/photostudio/pkg/bitmap"
	"github.com/matzehuels/photostudio/pkg/errors"
)

// Image is an encoded bitmap exchanged with the service.
type Image struct {
	MimeType string
	Data     []byte
}

// NewImage wraps encoded bytes, sniffing the MIME type. Unknown data is sent
// as PNG.
func NewImage(data []byte) Image {
	mime := "image/png"
	if info, err := bitmap.Decode(data); err == nil {
		mime = info.MimeType()
	}
	return Image{MimeType: mime, Data: data}
}

// EditRequest asks for a single-image edit.
type EditRequest struct {
	Mode        Mode
	Image       Image
	Instruction string
}

// MergeRequest asks for two portraits merged into one.
type MergeRequest struct {
	First  Image
	Second Image
}

// Service is the generative-image collaborator.
type Service interface {
	// Edit returns the edited image, or nil if the service returned none.
	Edit(ctx context.Context, req EditRequest) (*Image, error)

	// Merge returns the merged image, or nil if the service returned none.
	Merge(ctx context.Context, req MergeRequest) (*Image, error)
}

// Unavailable is the Service used when no API key is configured. Every call
// fails with UNAUTHORIZED.
type Unavailable struct{}

// Edit always fails.
func (Unavailable) Edit(context.Context, EditRequest) (*Image, error) {
	return nil, errUnavailable()
}

// Merge always fails.
func (Unavailable) Merge(context.Context, MergeRequest) (*Image, error) {
	return nil, errUnavailable()
}

func errUnavailable() error {
	return errors.New(errors.ErrCodeUnauthorized, "AI features need GEMINI_API_KEY")
}
