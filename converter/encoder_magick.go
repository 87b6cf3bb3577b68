//go:build magick

package converter

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"gopkg.in/gographics/imagick.v2/imagick"
)

func initEncoder() {
	imagick.Initialize()
}

func encodePNG(w io.Writer, img image.Image) error {
	// imaging.Clone yields a compact NRGBA buffer, which is exactly the
	// RGBA byte layout ConstituteImage expects.
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()

	wand := imagick.NewMagickWand()
	defer wand.Destroy()

	err := wand.ConstituteImage(uint(bounds.Dx()), uint(bounds.Dy()), "RGBA", imagick.PIXEL_CHAR, nrgba.Pix)
	if err != nil {
		return fmt.Errorf("constitute image: %w", err)
	}
	if err := wand.SetImageFormat("PNG"); err != nil {
		return fmt.Errorf("set image format: %w", err)
	}
	if _, err := w.Write(wand.GetImageBlob()); err != nil {
		return fmt.Errorf("write png blob: %w", err)
	}
	return nil
}
