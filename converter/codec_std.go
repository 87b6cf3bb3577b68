package converter

import (
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// registerStdCodecs wires the formats every build decodes the same way:
// stdlib png/jpeg/gif plus the x/image codecs.
func registerStdCodecs(reg map[string]DecodeFunc) {
	reg["png"] = png.Decode
	reg["jpeg"] = jpeg.Decode
	reg["gif"] = gif.Decode
	reg["tiff"] = tiff.Decode
	reg["bmp"] = bmp.Decode
	reg["webp"] = webp.Decode
}
