// Package capture holds photographs submitted with spotting reports and the
// encodings the AI providers expect.
package capture

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// MaxSize is the largest image accepted, in bytes.
const MaxSize = 20 << 20

// DefaultMIMEType is assumed when a data URL omits its media type.
const DefaultMIMEType = "image/jpeg"

// Image is a captured photograph.
type Image struct {
	MIMEType string
	Data     []byte
}

// New validates data and sniffs its media type.
func New(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, common.ErrEmptyCapture
	}
	if len(data) > MaxSize {
		return Image{}, fmt.Errorf("%w: image is %d bytes, limit is %d", common.ErrInvalidCapture, len(data), MaxSize)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: unsupported file type %s, only images can be analyzed", common.ErrInvalidCapture, mt.String())
	}

	return Image{MIMEType: baseType(mt.String()), Data: data}, nil
}

// FromFile reads and validates an image on disk.
func FromFile(path string) (Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > MaxSize {
		return Image{}, fmt.Errorf("%w: image is %d bytes, limit is %d", common.ErrInvalidCapture, info.Size(), MaxSize)
	}

	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	return New(data)
}

// ParseDataURL decodes "data:<mime>;base64,<payload>". The media type defaults
// to image/jpeg when the header omits it.
func ParseDataURL(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, common.ErrEmptyCapture
	}

	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return Image{}, fmt.Errorf("%w: not a data URL", common.ErrInvalidCapture)
	}
	header = strings.TrimPrefix(header, "data:")

	params := strings.Split(header, ";")
	if params[len(params)-1] != "base64" {
		return Image{}, fmt.Errorf("%w: data URL payload must be base64", common.ErrInvalidCapture)
	}

	mime := DefaultMIMEType
	if params[0] != "" && params[0] != "base64" {
		mime = strings.ToLower(params[0])
	}

	if payload == "" {
		return Image{}, common.ErrEmptyCapture
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: failed to decode image payload: %w", common.ErrInvalidCapture, err)
	}
	if len(data) > MaxSize {
		return Image{}, fmt.Errorf("%w: image is %d bytes, limit is %d", common.ErrInvalidCapture, len(data), MaxSize)
	}

	return Image{MIMEType: mime, Data: data}, nil
}

// Empty reports whether the image has no payload.
func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// Base64 returns the standard base64 encoding of the payload.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data URL.
func (img Image) DataURL() string {
	mime := img.MIMEType
	if mime == "" {
		mime = DefaultMIMEType
	}
	return "data:" + mime + ";base64," + img.Base64()
}

// SizeKB returns the payload size in whole kilobytes, rounded up.
func (img Image) SizeKB() int {
	return (len(img.Data) + 1023) / 1024
}

// Digest returns the hex sha256 of the payload.
func (img Image) Digest() string {
	sum := sha256.Sum256(img.Data)
	return hex.EncodeToString(sum[:])
}

func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return mime[:i]
	}
	return mime
}
