package pipeline

import (
	"fmt"

	"github.com/disintegration/imaging"
	// Registers the webp decoder with image.Decode, which imaging.Open
	// delegates to for formats it does not handle itself.
	_ "golang.org/x/image/webp"

	"loupe/internal/services"
)

// dimensionTolerance absorbs the ±1 pixel wobble even-rounding introduces.
const dimensionTolerance = 2

// ValidateImageDimensions decodes the artifact and checks it actually has
// the expected size. Upscaler binaries have been seen exiting zero after
// writing truncated or unscaled output; a cheap decode catches that before
// the artifact replaces anything.
func ValidateImageDimensions(path string, wantW, wantH int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return services.Wrap(services.ErrPartialArtifact, "validate", "decode output", "", err)
	}
	bounds := img.Bounds()
	gotW, gotH := bounds.Dx(), bounds.Dy()
	if !withinTolerance(gotW, wantW) || !withinTolerance(gotH, wantH) {
		return services.Wrap(services.ErrValidation, "validate", "output dimensions",
			fmt.Sprintf("got %dx%d, expected %dx%d", gotW, gotH, wantW, wantH), nil)
	}
	return nil
}

func withinTolerance(got, want int) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= dimensionTolerance
}
