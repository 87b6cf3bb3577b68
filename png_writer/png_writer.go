package png_writer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// metersPerInch converts between DPI and the pHYs pixels-per-metre unit.
const metersPerInch = 0.0254

// WriteDPI returns a copy of the encoded PNG with a pHYs chunk carrying
// the given resolution, inserted ahead of the first IDAT chunk. Any
// existing pHYs chunk is replaced.
func WriteDPI(data []byte, dpiX float64, dpiY float64) ([]byte, error) {
	if dpiX <= 0 || dpiY <= 0 {
		return nil, fmt.Errorf("invalid resolution %gx%g", dpiX, dpiY)
	}
	if len(data) < len(pngSignature) || string(data[:len(pngSignature)]) != pngSignature {
		return nil, fmt.Errorf("not a PNG stream")
	}

	var out bytes.Buffer
	out.Grow(len(data) + 21)
	out.WriteString(pngSignature)

	rest := data[len(pngSignature):]
	inserted := false
	for len(rest) >= 8 {
		length := binary.BigEndian.Uint32(rest[:4])
		chunkType := string(rest[4:8])
		total := 12 + int(length) // length + type + data + CRC
		if len(rest) < total {
			return nil, fmt.Errorf("truncated %s chunk", chunkType)
		}
		if chunkType == "IDAT" && !inserted {
			writePhysChunk(&out, dpiX, dpiY)
			inserted = true
		}
		if chunkType != "pHYs" {
			out.Write(rest[:total])
		}
		rest = rest[total:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing garbage after last chunk")
	}
	if !inserted {
		return nil, fmt.Errorf("no IDAT chunk found")
	}
	return out.Bytes(), nil
}

func writePhysChunk(out *bytes.Buffer, dpiX float64, dpiY float64) {
	var chunk [21]byte
	binary.BigEndian.PutUint32(chunk[0:4], 9)
	copy(chunk[4:8], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:12], uint32(dpiX/metersPerInch+0.5))
	binary.BigEndian.PutUint32(chunk[12:16], uint32(dpiY/metersPerInch+0.5))
	chunk[16] = 1 // unit: metre
	binary.BigEndian.PutUint32(chunk[17:21], crc32.ChecksumIEEE(chunk[4:17]))
	out.Write(chunk[:])
}

// ReadDPI walks the chunk stream and returns the horizontal DPI from the
// pHYs chunk, or an error when no resolution is recorded.
func ReadDPI(data []byte) (float64, error) {
	if len(data) < len(pngSignature) || string(data[:len(pngSignature)]) != pngSignature {
		return 0, fmt.Errorf("not a PNG stream")
	}
	buf := bytes.NewReader(data[len(pngSignature):])

	for {
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			break
		}
		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(buf, chunkType); err != nil {
			break
		}

		if string(chunkType) == "pHYs" {
			var pxPerUnitX, pxPerUnitY uint32
			var unit byte
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitX); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &pxPerUnitY); err != nil {
				return 0, err
			}
			if err := binary.Read(buf, binary.BigEndian, &unit); err != nil {
				return 0, err
			}
			if unit != 1 {
				break // unit 0: aspect ratio only, no absolute resolution
			}
			return float64(pxPerUnitX) * metersPerInch, nil
		}

		// skip chunk data + CRC
		if _, err := buf.Seek(int64(length)+4, io.SeekCurrent); err != nil {
			break
		}
	}
	return 0, fmt.Errorf("no pHYs chunk found")
}
