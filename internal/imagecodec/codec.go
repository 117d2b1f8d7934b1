// Package imagecodec packs up to three downscaled photos into a single
// text cell of the maintenance table. Each image is re-encoded as JPEG,
// base64'd, and the blocks joined with a reserved separator. base64's
// alphabet excludes '|', so the separator can never occur inside a block;
// the image count is always recoverable by splitting.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// Separator joins encoded blocks inside one cell.
	Separator = "|||"

	// MaxImages caps how many photos one record may carry.
	MaxImages = 3

	// MaxDimension bounds both sides of a stored image, in pixels.
	MaxDimension = 400

	// jpegQuality is the fixed re-encode quality.
	jpegQuality = 75

	// minBlockLen rejects stray non-image artifacts (the literal "0" and
	// friends) during unpack; no plausible encoded image is shorter.
	minBlockLen = 32
)

// ErrTooManyImages is returned by Pack when the input exceeds MaxImages.
var ErrTooManyImages = errors.New("too many images")

// Pack downscales, re-encodes and base64s each raw upload, joining the
// results with Separator. Zero inputs yield the empty string.
func Pack(raw [][]byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if len(raw) > MaxImages {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyImages, len(raw), MaxImages)
	}
	var buf bytes.Buffer
	for i, data := range raw {
		block, err := encodeOne(data)
		if err != nil {
			return "", fmt.Errorf("image %d: %w", i+1, err)
		}
		if i > 0 {
			buf.WriteString(Separator)
		}
		buf.WriteString(block)
	}
	return buf.String(), nil
}

// encodeOne normalizes a single upload: decode whatever format arrived,
// shrink so neither dimension exceeds MaxDimension, flatten to RGB via
// JPEG, then base64.
func encodeOne(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out.Bytes()), nil
}

// Unpack splits a packed cell back into JPEG byte slices. Blocks that are
// implausibly short or fail base64 are skipped individually so one bad
// block never hides its siblings. An empty cell yields no images.
func Unpack(cell string) [][]byte {
	if len(cell) < minBlockLen {
		return nil
	}
	var out [][]byte
	for _, block := range strings.Split(cell, Separator) {
		if len(block) < minBlockLen {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(block)
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

// Count reports how many displayable images a packed cell holds.
func Count(cell string) int {
	return len(Unpack(cell))
}

// Valid reports whether every block of the cell decodes as a JPEG image.
// Used by the importer to reject corrupted image cells up front.
func Valid(cell string) bool {
	if cell == "" {
		return true
	}
	blocks := strings.Split(cell, Separator)
	decoded := 0
	for _, block := range blocks {
		data, err := base64.StdEncoding.DecodeString(block)
		if err != nil {
			continue
		}
		if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
			continue
		}
		decoded++
	}
	return decoded == len(blocks)
}
