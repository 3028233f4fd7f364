// Package imaging validates uploaded photos and converts them to and from data URLs.
package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hyperjump/photostory/internal/apperrors"
)

// Image is one photo held in memory.
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data: URL.
func (img Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + img.Base64()
}

// Detect sniffs the content type of data.
func Detect(data []byte) string {
	return mimetype.Detect(data).String()
}

// Validate checks that data is a non-empty image of at most maxBytes and returns
// it with its sniffed MIME type. All failures are validation errors.
func Validate(data []byte, maxBytes int64) (Image, error) {
	if len(data) == 0 {
		return Image{}, apperrors.Validation("No image file provided")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Image{}, apperrors.Validationf("Image exceeds the %d byte limit", maxBytes)
	}
	mt := mimetype.Detect(data)
	if !isImage(mt) {
		return Image{}, apperrors.Validation("Only image files are allowed").WithDetails("detected " + mt.String())
	}
	return Image{Data: data, MIMEType: mt.String()}, nil
}

func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

// IsDataURL reports whether s is a data: URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "data:")
}

// DecodeDataURL returns the payload of a base64 data: URL.
func DecodeDataURL(s string) ([]byte, error) {
	if !IsDataURL(s) {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}
	return DecodeBase64(payload)
}

// DecodeBase64 decodes a base64 payload, tolerating a data: URL prefix and missing padding.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if IsDataURL(s) {
		return DecodeDataURL(s)
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, nil
}
