package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// testImage renders a PNG of the given size for use as an upload.
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPackUnpackCounts(t *testing.T) {
	for n := 0; n <= MaxImages; n++ {
		raw := make([][]byte, 0, n)
		for i := 0; i < n; i++ {
			raw = append(raw, testImage(t, 100+i, 80))
		}
		cell, err := Pack(raw)
		if err != nil {
			t.Fatalf("Pack(%d images): %v", n, err)
		}
		if n == 0 && cell != "" {
			t.Fatalf("Pack(0 images) = %q, want empty string", cell)
		}
		if got := len(Unpack(cell)); got != n {
			t.Errorf("Unpack(Pack(%d images)) = %d images", n, got)
		}
	}
}

func TestPackRejectsTooMany(t *testing.T) {
	raw := [][]byte{
		testImage(t, 10, 10), testImage(t, 10, 10),
		testImage(t, 10, 10), testImage(t, 10, 10),
	}
	if _, err := Pack(raw); !errors.Is(err, ErrTooManyImages) {
		t.Fatalf("Pack(4 images) err = %v, want ErrTooManyImages", err)
	}
}

func TestPackDownscalesToBound(t *testing.T) {
	cell, err := Pack([][]byte{testImage(t, 1200, 900)})
	if err != nil {
		t.Fatal(err)
	}
	images := Unpack(cell)
	if len(images) != 1 {
		t.Fatalf("unpacked %d images", len(images))
	}
	img, err := jpeg.Decode(bytes.NewReader(images[0]))
	if err != nil {
		t.Fatalf("unpacked block is not a JPEG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		t.Errorf("dimensions %dx%d exceed bound %d", b.Dx(), b.Dy(), MaxDimension)
	}
	// Aspect ratio survives the fit (4:3 in, 4:3 out).
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("dimensions = %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestPackSmallImageNotUpscaled(t *testing.T) {
	cell, err := Pack([][]byte{testImage(t, 120, 90)})
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(Unpack(cell)[0]))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("dimensions = %dx%d, want 120x90 untouched", b.Dx(), b.Dy())
	}
}

func TestEncodingRoundTripIsExact(t *testing.T) {
	// The codec is lossy against the original upload but exact against
	// its own output: re-joining the base64 of the unpacked blocks must
	// reproduce the cell byte for byte.
	cell, err := Pack([][]byte{testImage(t, 640, 480), testImage(t, 50, 50)})
	if err != nil {
		t.Fatal(err)
	}
	blocks := Unpack(cell)
	encoded := make([]string, len(blocks))
	for i, b := range blocks {
		encoded[i] = base64.StdEncoding.EncodeToString(b)
	}
	if rejoined := strings.Join(encoded, Separator); rejoined != cell {
		t.Error("rejoined blocks differ from original cell")
	}
}

func TestUnpackIsolatesBadBlocks(t *testing.T) {
	good, err := Pack([][]byte{testImage(t, 60, 60)})
	if err != nil {
		t.Fatal(err)
	}
	corrupt := strings.Repeat("@", 64) // invalid base64, plausible length
	cell := good + Separator + corrupt + Separator + good

	images := Unpack(cell)
	if len(images) != 2 {
		t.Fatalf("Unpack kept %d images, want 2 across a corrupt sibling", len(images))
	}
}

func TestUnpackRejectsArtifacts(t *testing.T) {
	for _, cell := range []string{"", "0", "0.0", "nan", "short"} {
		if got := Unpack(cell); got != nil {
			t.Errorf("Unpack(%q) = %d images, want none", cell, len(got))
		}
	}
}

func TestSeparatorNeverInBase64(t *testing.T) {
	cell, err := Pack([][]byte{testImage(t, 300, 300), testImage(t, 300, 200), testImage(t, 200, 300)})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(cell, Separator) != 2 {
		t.Errorf("separator count = %d, want exactly 2", strings.Count(cell, Separator))
	}
}

func TestValid(t *testing.T) {
	good, err := Pack([][]byte{testImage(t, 40, 40)})
	if err != nil {
		t.Fatal(err)
	}
	if !Valid("") {
		t.Error("empty cell should be valid")
	}
	if !Valid(good) {
		t.Error("packed cell should be valid")
	}
	if Valid(good + Separator + strings.Repeat("A", 64)) {
		t.Error("cell with undecodable block should be invalid")
	}
}
