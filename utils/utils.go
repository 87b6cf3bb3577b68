package utils

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"go4.org/media/heif"
)

// ExtractExif pulls the raw EXIF blob out of an image. HEIF containers
// carry it as a metadata item, everything else is scanned for the EXIF
// marker.
func ExtractExif(data []byte, format string) ([]byte, error) {
	if format == "heic" || format == "avif" {
		file := heif.Open(bytes.NewReader(data))
		return file.EXIF()
	}
	return exif.SearchAndExtractExif(data)
}

// HEICDimensions reads the primary item's pixel dimensions from the HEIF
// container without decoding the image.
func HEICDimensions(data []byte) (int, int, bool) {
	file := heif.Open(bytes.NewReader(data))
	item, err := file.PrimaryItem()
	if err != nil {
		return 0, 0, false
	}
	w, h, ok := item.VisualDimensions()
	return int(w), int(h), ok
}

func exifIndex(rawExif []byte) (*exif.IfdIndex, error) {
	im := exifcommon.NewIfdMapping()
	ti := exif.NewTagIndex()
	if err := exifcommon.LoadStandardIfds(im); err != nil {
		return nil, err
	}
	_, index, err := exif.Collect(im, ti, rawExif)
	if err != nil {
		return nil, err
	}
	return &index, nil
}

// Orientation returns the EXIF orientation value (1..8), defaulting to 1
// when the tag is missing or unreadable.
func Orientation(rawExif []byte) int {
	index, err := exifIndex(rawExif)
	if err != nil {
		return 1
	}
	tags, err := index.RootIfd.FindTagWithName("Orientation")
	if err != nil || len(tags) == 0 {
		return 1
	}
	val, err := tags[0].Value()
	if err != nil {
		return 1
	}
	switch v := val.(type) {
	case uint16:
		return int(v)
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 1
}

// Resolution returns the EXIF X/Y resolution in DPI. The third return is
// false when the tags are absent.
func Resolution(rawExif []byte) (float64, float64, bool) {
	index, err := exifIndex(rawExif)
	if err != nil {
		return 0, 0, false
	}

	readRational := func(name string) (float64, bool) {
		tags, err := index.RootIfd.FindTagWithName(name)
		if err != nil || len(tags) == 0 {
			return 0, false
		}
		val, err := tags[0].Value()
		if err != nil {
			return 0, false
		}
		rats, ok := val.([]exifcommon.Rational)
		if !ok || len(rats) == 0 || rats[0].Denominator == 0 {
			return 0, false
		}
		return float64(rats[0].Numerator) / float64(rats[0].Denominator), true
	}

	dpiX, okX := readRational("XResolution")
	dpiY, okY := readRational("YResolution")
	if !okX && !okY {
		return 0, 0, false
	}
	if !okX {
		dpiX = dpiY
	}
	if !okY {
		dpiY = dpiX
	}

	// ResolutionUnit 3 means pixels per centimetre.
	if tags, err := index.RootIfd.FindTagWithName("ResolutionUnit"); err == nil && len(tags) > 0 {
		if val, err := tags[0].Value(); err == nil {
			unit := uint16(0)
			switch v := val.(type) {
			case uint16:
				unit = v
			case []uint16:
				if len(v) > 0 {
					unit = v[0]
				}
			}
			if unit == 3 {
				dpiX *= 2.54
				dpiY *= 2.54
			}
		}
	}
	return dpiX, dpiY, true
}

// ApplyOrientation rotates/flips the image so it displays upright without
// relying on the viewer honoring EXIF.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		// 90 degrees clockwise; imaging rotates counter-clockwise.
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// FlattenOnWhite composites the image over a white background, discarding
// the alpha channel.
func FlattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
