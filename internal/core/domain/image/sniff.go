package image

import "encoding/binary"

// Recognized container formats, reported as MIME-style strings.
const (
	FormatPNG     = "image/png"
	FormatJPEG    = "image/jpeg"
	FormatWebP    = "image/webp"
	FormatUnknown = "unknown"
)

// Fallback dimensions reported when no container signature matches.
const (
	FallbackWidth  = 800
	FallbackHeight = 600
)

// Dimensions holds pixel dimensions and the container format of an image
// payload. It is derived from header fields only, without decoding.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Sniff extracts width, height and format from the header bytes of a PNG,
// JPEG or simple lossy WebP payload. It never fails: anything it cannot
// parse yields the documented fallback.
func Sniff(data []byte) Dimensions {
	if d, ok := sniffPNG(data); ok {
		return d
	}
	if d, ok := sniffJPEG(data); ok {
		return d
	}
	if d, ok := sniffWebP(data); ok {
		return d
	}
	return Dimensions{Width: FallbackWidth, Height: FallbackHeight, Format: FormatUnknown}
}

// sniffPNG reads the IHDR chunk, which the PNG spec requires to come first.
// Width and height are big-endian 32-bit fields at fixed offsets 16 and 20.
func sniffPNG(data []byte) (Dimensions, bool) {
	if len(data) < 24 {
		return Dimensions{}, false
	}
	for i, b := range pngSignature {
		if data[i] != b {
			return Dimensions{}, false
		}
	}
	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	return Dimensions{Width: int(w), Height: int(h), Format: FormatPNG}, true
}

// sniffJPEG walks the segment chain after the SOI marker until it reaches a
// baseline start-of-frame (0xFFC0). Each non-standalone segment carries a
// 16-bit big-endian length covering its own payload, so 0xFFC0 byte pairs
// inside APPn/EXIF payloads are skipped rather than misread as a frame
// header. Progressive-only streams without an SOF0 fall through.
func sniffJPEG(data []byte) (Dimensions, bool) {
	if len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 || data[2] != 0xFF {
		return Dimensions{}, false
	}
	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return Dimensions{}, false
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF:
			// Fill byte before the real marker.
			i++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			// Standalone markers carry no length field.
			i += 2
			continue
		case marker == 0xD9:
			// End of image before any frame header.
			return Dimensions{}, false
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if segLen < 2 {
			return Dimensions{}, false
		}
		if marker == 0xC0 {
			if i+9 > len(data) {
				return Dimensions{}, false
			}
			h := binary.BigEndian.Uint16(data[i+5 : i+7])
			w := binary.BigEndian.Uint16(data[i+7 : i+9])
			return Dimensions{Width: int(w), Height: int(h), Format: FormatJPEG}, true
		}
		i += 2 + segLen
	}
	return Dimensions{}, false
}

// sniffWebP handles the simple lossy (VP8) subtype only. Width and height
// are 14-bit little-endian fields, biased by +1 per the container encoding.
// Extended and animated WebP variants fall through to the fallback.
func sniffWebP(data []byte) (Dimensions, bool) {
	if len(data) < 30 {
		return Dimensions{}, false
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" || string(data[12:16]) != "VP8 " {
		return Dimensions{}, false
	}
	w := int(binary.LittleEndian.Uint16(data[26:28])&0x3FFF) + 1
	h := int(binary.LittleEndian.Uint16(data[28:30])&0x3FFF) + 1
	return Dimensions{Width: w, Height: h, Format: FormatWebP}, true
}
