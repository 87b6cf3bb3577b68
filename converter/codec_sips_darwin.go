//go:build noheif && !vips && darwin

package converter

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
)

// Without the bundled decoder, macOS still has sips. The image goes
// through a pair of temp files because sips only works on paths.
func registerHEICCodec(reg map[string]DecodeFunc) {
	reg["heic"] = decodeWithSips
}

func decodeWithSips(r io.Reader) (image.Image, error) {
	src, err := os.CreateTemp("", "heic2png-*.heic")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(src.Name())

	if _, err := io.Copy(src, r); err != nil {
		src.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	src.Close()

	dst, err := os.CreateTemp("", "heic2png-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	dstPath := dst.Name()
	dst.Close()
	defer os.Remove(dstPath)

	cmd := exec.Command("sips", "-s", "format", "png", src.Name(), "--out", dstPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("sips convert: %w (%s)", err, string(out))
	}

	converted, err := os.Open(dstPath)
	if err != nil {
		return nil, fmt.Errorf("open sips output: %w", err)
	}
	defer converted.Close()
	return png.Decode(converted)
}
