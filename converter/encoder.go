//go:build !magick

package converter

import (
	"image"
	"image/png"
	"io"
)

func initEncoder() {}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
