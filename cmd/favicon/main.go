// Command favicon rescales the site icons in static/ to the sizes the
// pages link to.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// icon is one output file and its square edge in pixels.
type icon struct {
	name string
	size int
}

var icons = []icon{
	{"favicon-32x32.png", 32},
	{"android-chrome-512x512.png", 512},
}

func main() {
	dir := flag.String("dir", "static", "directory holding the icon files")
	flag.Parse()

	if err := run(*dir, icons); err != nil {
		log.Fatal(err)
	}
}

// run resizes every icon in dir in parallel. Missing files are skipped.
func run(dir string, icons []icon) error {
	var g errgroup.Group
	for _, ic := range icons {
		g.Go(func() error {
			path := filepath.Join(dir, ic.name)
			err := resizeFile(path, ic.size)
			if errors.Is(err, fs.ErrNotExist) {
				log.Printf("WARNING: %s not found, skipping", path)
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			log.Printf("Resized %s to %dx%d", path, ic.size, ic.size)
			return nil
		})
	}
	return g.Wait()
}

func resizeFile(path string, size int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	dst := resize(src, size)

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// resize scales src into a size×size square with Catmull-Rom filtering.
func resize(src image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
