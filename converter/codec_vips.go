//go:build vips

package converter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/davidbyttow/govips/v2/vips"
)

func registerHEICCodec(reg map[string]DecodeFunc) {
	vips.LoggingSettings(nil, vips.LogLevelError)
	vips.Startup(nil)
	reg["heic"] = decodeWithVips
	reg["avif"] = decodeWithVips
}

// libvips hands back encoded bytes, so the raster goes back through the
// stdlib PNG decoder to reach the common image.Image pipeline.
func decodeWithVips(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image bytes: %w", err)
	}
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	encoded, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return png.Decode(bytes.NewReader(encoded))
}
