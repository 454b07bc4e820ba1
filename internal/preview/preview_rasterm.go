//go:build !windows
// +build !windows

package preview

import (
	"image"
	"io"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
	"github.com/pkg/errors"
)

// printRaster draws img with the first image protocol the terminal speaks.
// It reports false when none is available.
func printRaster(w io.Writer, img image.Image) (bool, error) {
	var err error
	switch {
	case rasterm.IsTermKitty():
		err = rasterm.Settings{}.KittyWriteImage(w, img)
	case rasterm.IsTermItermWez():
		err = rasterm.Settings{}.ItermWriteImage(w, img)
	default:
		if capable, cerr := rasterm.IsSixelCapable(); !capable || cerr != nil {
			return false, nil
		}
		palettedImage := image.NewPaletted(img.Bounds(), nil)
		quantizer := gogif.MedianCutQuantizer{NumColor: 64}
		quantizer.Quantize(palettedImage, img.Bounds(), img, image.Point{})
		err = rasterm.Settings{}.SixelWriteImage(w, palettedImage)
	}
	if err != nil {
		return true, errors.Wrap(err, "writing terminal image")
	}
	_, err = io.WriteString(w, "\n")
	return true, err
}
