package volume

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder
	_ "golang.org/x/image/tiff" // TIFF decoder
)

// LoadSliceStack builds a density lattice from a stack of 2D images, one per z slice.
// Each pixel's linear luminance in [0,1] becomes the density sample. Image row 0 is
// the top of the slice, so it maps to the largest y.
func LoadSliceStack(filenames []string) (*SampledGrid, error) {
	readers := make([]io.Reader, 0, len(filenames))
	for _, filename := range filenames {
		file, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open slice image: %w", err)
		}
		defer file.Close()
		readers = append(readers, file)
	}
	return DecodeSliceStack(readers)
}

// DecodeSliceStack is LoadSliceStack over already opened images
func DecodeSliceStack(readers []io.Reader) (*SampledGrid, error) {
	if len(readers) == 0 {
		return nil, fmt.Errorf("%w: empty slice stack", ErrGridSize)
	}

	var nx, ny int
	var values []float64
	for z, r := range readers {
		img, _, err := image.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode slice %d: %w", z, err)
		}
		bounds := img.Bounds()
		if z == 0 {
			nx, ny = bounds.Dx(), bounds.Dy()
			values = make([]float64, 0, nx*ny*len(readers))
		} else if bounds.Dx() != nx || bounds.Dy() != ny {
			return nil, fmt.Errorf("%w: slice %d is %dx%d, expected %dx%d",
				ErrGridSize, z, bounds.Dx(), bounds.Dy(), nx, ny)
		}

		for y := 0; y < ny; y++ {
			row := bounds.Max.Y - 1 - y
			for x := 0; x < nx; x++ {
				cr, cg, cb, _ := img.At(x+bounds.Min.X, row).RGBA()
				// RGBA returns uint32 in [0, 65535]
				lum := 0.2126*float64(cr) + 0.7152*float64(cg) + 0.0722*float64(cb)
				values = append(values, lum/65535.0)
			}
		}
	}

	return NewSampledGrid(values, nx, ny, len(readers))
}
