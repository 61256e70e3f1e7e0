package bitmap

import (
	"encoding/base64"
	"strings"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// DataURL encodes data as a base64 data URL with the given MIME type.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL decodes a base64 data URL and returns its MIME type and bytes.
func ParseDataURL(s string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidImage, "not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New(errors.ErrCodeInvalidImage, "data URL has no payload")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New(errors.ErrCodeInvalidImage, "data URL is not base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode data URL")
	}
	return mimeType, data, nil
}
