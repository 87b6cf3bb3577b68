package converter

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heic2png/contracts"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 20), G: uint8(y * 20), B: 30, A: 255})
		}
	}
	return img
}

func writePNGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeJPEGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func decodePNGFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestConvertOne(t *testing.T) {
	conv := New(Options{})

	t.Run("png input produces decodable png with same dimensions", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.png")
		out := filepath.Join(dir, "photo_out.png")
		writePNGFile(t, in, testImage(12, 8))

		require.NoError(t, conv.ConvertOne(in, out))

		img := decodePNGFile(t, out)
		assert.Equal(t, 12, img.Bounds().Dx())
		assert.Equal(t, 8, img.Bounds().Dy())

		r, g, b, a := img.At(2, 3).RGBA()
		assert.Equal(t, uint32(40), r>>8)
		assert.Equal(t, uint32(60), g>>8)
		assert.Equal(t, uint32(30), b>>8)
		assert.Equal(t, uint32(255), a>>8)
	})

	t.Run("jpeg input is accepted", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.jpg")
		out := filepath.Join(dir, "photo.png")
		writeJPEGFile(t, in, testImage(20, 10))

		require.NoError(t, conv.ConvertOne(in, out))

		img := decodePNGFile(t, out)
		assert.Equal(t, 20, img.Bounds().Dx())
		assert.Equal(t, 10, img.Bounds().Dy())
	})

	t.Run("alpha channel is preserved by default", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "alpha.png")
		out := filepath.Join(dir, "alpha_out.png")

		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		src.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 0, B: 0, A: 128})
		writePNGFile(t, in, src)

		require.NoError(t, conv.ConvertOne(in, out))

		_, _, _, a := decodePNGFile(t, out).At(1, 1).RGBA()
		assert.Less(t, a>>8, uint32(255))
	})

	t.Run("flatten composites onto white", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "alpha.png")
		out := filepath.Join(dir, "alpha_out.png")

		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		// fully transparent everywhere, should come out white
		writePNGFile(t, in, src)

		flattening := New(Options{Flatten: true})
		require.NoError(t, flattening.ConvertOne(in, out))

		r, g, b, a := decodePNGFile(t, out).At(1, 1).RGBA()
		assert.Equal(t, uint32(255), r>>8)
		assert.Equal(t, uint32(255), g>>8)
		assert.Equal(t, uint32(255), b>>8)
		assert.Equal(t, uint32(255), a>>8)
	})

	t.Run("byte identical on repeat conversion", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.png")
		writePNGFile(t, in, testImage(16, 16))

		out1 := filepath.Join(dir, "a.png")
		out2 := filepath.Join(dir, "b.png")
		require.NoError(t, conv.ConvertOne(in, out1))
		require.NoError(t, conv.ConvertOne(in, out2))

		data1, err := os.ReadFile(out1)
		require.NoError(t, err)
		data2, err := os.ReadFile(out2)
		require.NoError(t, err)
		assert.Equal(t, data1, data2)
	})

	t.Run("existing output is overwritten", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.png")
		out := filepath.Join(dir, "out.png")
		writePNGFile(t, in, testImage(6, 6))
		require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

		require.NoError(t, conv.ConvertOne(in, out))
		img := decodePNGFile(t, out)
		assert.Equal(t, 6, img.Bounds().Dx())
	})
}

func TestConvertOneErrors(t *testing.T) {
	conv := New(Options{})

	t.Run("missing input is an io error", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "out.png")

		err := conv.ConvertOne(filepath.Join(dir, "nope.heic"), out)
		var ioErr *contracts.IOError
		require.ErrorAs(t, err, &ioErr)

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "output must not be created")
	})

	t.Run("garbage bytes are a decode error", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "corrupt.heic")
		out := filepath.Join(dir, "out.png")
		require.NoError(t, os.WriteFile(in, []byte("definitely not an image at all"), 0o644))

		err := conv.ConvertOne(in, out)
		var decodeErr *contracts.DecodeError
		require.ErrorAs(t, err, &decodeErr)

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr), "output must not be created")
	})

	t.Run("truncated heic is a decode error", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "corrupt.heic")
		out := filepath.Join(dir, "out.png")
		require.NoError(t, os.WriteFile(in, ftypHeader("heic"), 0o644))

		err := conv.ConvertOne(in, out)
		var decodeErr *contracts.DecodeError
		require.ErrorAs(t, err, &decodeErr)

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("recognized brand without a codec is unsupported", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.avif")
		out := filepath.Join(dir, "out.png")
		require.NoError(t, os.WriteFile(in, ftypHeader("avif"), 0o644))

		err := conv.ConvertOne(in, out)
		var unsupportedErr *contracts.UnsupportedFormatError
		require.ErrorAs(t, err, &unsupportedErr)
		assert.Equal(t, "avif", unsupportedErr.Format)

		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unwritable destination is an io error", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "photo.png")
		writePNGFile(t, in, testImage(4, 4))

		err := conv.ConvertOne(in, filepath.Join(dir, "no", "such", "dir", "out.png"))
		var ioErr *contracts.IOError
		require.ErrorAs(t, err, &ioErr)
	})
}

func TestConvertMany(t *testing.T) {
	for _, workers := range []int{1, 3} {
		name := "sequential"
		if workers > 1 {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			outDir := filepath.Join(dir, "out")
			require.NoError(t, os.Mkdir(outDir, 0o755))

			first := filepath.Join(dir, "first.png")
			third := filepath.Join(dir, "third.png")
			writePNGFile(t, first, testImage(8, 8))
			writePNGFile(t, third, testImage(8, 8))

			items := []contracts.ConvertItem{
				{InputPath: first, OutputPath: filepath.Join(outDir, "first.png")},
				{InputPath: filepath.Join(dir, "missing.heic"), OutputPath: filepath.Join(outDir, "missing.png")},
				{InputPath: third, OutputPath: filepath.Join(outDir, "third.png")},
			}

			conv := New(Options{Workers: workers})
			results := conv.ConvertMany(items)

			require.Len(t, results, 3)
			for i, result := range results {
				assert.Equal(t, items[i].InputPath, result.InputPath, "results keep input order")
			}

			assert.NoError(t, results[0].Err)
			assert.NoError(t, results[2].Err)

			var ioErr *contracts.IOError
			require.ErrorAs(t, results[1].Err, &ioErr)

			assert.FileExists(t, results[0].OutputPath)
			assert.FileExists(t, results[2].OutputPath)
			_, statErr := os.Stat(results[1].OutputPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestConvertManyEmpty(t *testing.T) {
	conv := New(Options{Workers: 4})
	assert.Empty(t, conv.ConvertMany(nil))
}
