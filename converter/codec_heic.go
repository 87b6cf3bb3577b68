//go:build !vips && !noheif

package converter

import "github.com/jdeng/goheif"

func registerHEICCodec(reg map[string]DecodeFunc) {
	reg["heic"] = goheif.Decode
}
