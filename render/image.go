package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodedImage is the displayable form of an inline raster payload.
type DecodedImage struct {
	DataURI string
	Format  string // detected format: png, gif, jpeg, webp, bmp
	Width   int
	Height  int
}

// DecodeImage validates that payload is a decodable raster image and wraps
// it as a data URI. Only the header is decoded; the payload bytes are
// embedded as-is.
func DecodeImage(payload []byte) (*DecodedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	return &DecodedImage{
		DataURI: "data:" + mimeForFormat(format) + ";base64," + base64.StdEncoding.EncodeToString(payload),
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
	}, nil
}

func mimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	default:
		return "image/" + format
	}
}

// placeholderSVG is the built-in asset shown when a record has neither a
// decodable payload nor a remote URL.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" width="24" height="24"><rect width="24" height="24" fill="#e8e8e8"/><path d="M4 18l5-6 3 3 3-4 5 7z" fill="#b0b0b0"/><circle cx="8" cy="7" r="2" fill="#b0b0b0"/></svg>`

// PlaceholderDataURI is placeholderSVG as a data URI, usable anywhere an
// image source is expected.
var PlaceholderDataURI = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG))
