package preview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

// stripe is a w×h image whose left half is white and right half transparent.
func stripe(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func TestPrint_ASCII(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, stripe(4, 2), Options{Mode: ModeASCII}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	want := "####    \n####    \n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrint_TrueColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, stripe(2, 1), Options{Mode: ModeTrueColor}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	want := "\x1b[48;2;255;255;255m  \x1b[0m\x1b[0m  \n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestPrint_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, stripe(2, 3), Options{Mode: ModeColor}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("got %d rows, want 3", n)
	}
}

func TestPrint_Fit(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, stripe(40, 20), Options{Mode: ModeASCII, MaxWidth: 10, MaxHeight: 10}); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Errorf("got %d rows, want 5", len(lines))
	}
	if len(lines[0]) != 20 {
		t.Errorf("got row width %d, want 20", len(lines[0]))
	}
}

func TestFit_SmallImageUntouched(t *testing.T) {
	img := stripe(4, 4)
	if got := fit(img, 10, 0); got.Bounds() != img.Bounds() {
		t.Errorf("got %v, want %v", got.Bounds(), img.Bounds())
	}
}

func TestPrint_UnknownMode(t *testing.T) {
	if err := Print(&bytes.Buffer{}, stripe(2, 2), Options{Mode: "hologram"}); err == nil {
		t.Error("expected error")
	}
}
