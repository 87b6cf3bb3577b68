package converter

import (
	"image"
	"io"
	"sync"
)

// DecodeFunc turns raw image bytes into an in-memory raster.
type DecodeFunc func(r io.Reader) (image.Image, error)

var (
	codecsOnce sync.Once
	codecs     map[string]DecodeFunc
)

// InitCodecs performs the process-wide codec registration. It runs once;
// later calls are no-ops. Conversion entry points call it themselves, so
// library callers do not have to.
func InitCodecs() {
	codecsOnce.Do(func() {
		codecs = make(map[string]DecodeFunc)
		registerStdCodecs(codecs)
		registerHEICCodec(codecs)
		initEncoder()
	})
}

func lookupCodec(format string) (DecodeFunc, bool) {
	dec, ok := codecs[format]
	return dec, ok
}

// heifBrands maps ISO BMFF ftyp major brands to the format the registry
// is keyed by. The heif family all decode through the HEIC codec.
var heifBrands = map[string]string{
	"heic": "heic",
	"heix": "heic",
	"heim": "heic",
	"heis": "heic",
	"hevc": "heic",
	"hevm": "heic",
	"hevs": "heic",
	"mif1": "heic",
	"msf1": "heic",
	"avif": "avif",
	"avis": "avif",
}

// DetectFormat identifies an image format from the leading bytes of the
// file. It returns "" when the signature is not recognized.
func DetectFormat(head []byte) string {
	if len(head) >= 12 && string(head[4:8]) == "ftyp" {
		if format, ok := heifBrands[string(head[8:12])]; ok {
			return format
		}
		return ""
	}
	if len(head) >= 8 && string(head[:8]) == "\x89PNG\r\n\x1a\n" {
		return "png"
	}
	if len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF {
		return "jpeg"
	}
	if len(head) >= 6 && (string(head[:6]) == "GIF87a" || string(head[:6]) == "GIF89a") {
		return "gif"
	}
	if len(head) >= 4 && (string(head[:4]) == "II*\x00" || string(head[:4]) == "MM\x00*") {
		return "tiff"
	}
	if len(head) >= 2 && string(head[:2]) == "BM" {
		return "bmp"
	}
	if len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WEBP" {
		return "webp"
	}
	return ""
}
