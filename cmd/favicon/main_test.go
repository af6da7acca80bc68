package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func bounds(t *testing.T, path string) image.Rectangle {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img.Bounds()
}

func TestRunResizesIcons(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "small.png"), 100, 60)
	writePNG(t, filepath.Join(dir, "large.png"), 64, 64)

	err := run(dir, []icon{{"small.png", 32}, {"large.png", 128}})
	if err != nil {
		t.Fatal(err)
	}
	if b := bounds(t, filepath.Join(dir, "small.png")); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("small = %v", b)
	}
	if b := bounds(t, filepath.Join(dir, "large.png")); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("large = %v", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "small.png.tmp")); !os.IsNotExist(err) {
		t.Fatal("temporary file left behind")
	}
}

func TestRunSkipsMissingIcons(t *testing.T) {
	if err := run(t.TempDir(), icons); err != nil {
		t.Fatalf("missing icons: %v", err)
	}
}

func TestRunReportsUndecodableIcon(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(dir, []icon{{"broken.png", 32}}); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestResizeKeepsOpaqueColor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	dst := resize(src, 4)
	if c := dst.NRGBAAt(2, 2); c.R < 0xf0 || c.A < 0xf0 {
		t.Fatalf("pixel = %v", c)
	}
}
