package transcode

import "fmt"

// ScaleFilter builds a lanczos rescale to the exact target size. Used when
// the upscaler overshot the requested factor.
func ScaleFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d:flags=lanczos", width, height)
}

// EvenScaleFilter is ScaleFilter with both dimensions rounded down to even
// values, which 4:2:0 pixel formats require.
func EvenScaleFilter(width, height int) string {
	return ScaleFilter(evenDim(width), evenDim(height))
}

func evenDim(v int) int {
	if v < 2 {
		return 2
	}
	return v - v%2
}

// PaletteFilter builds the two-stage gif filter chain: one branch computes an
// optimal palette, the other applies it.
func PaletteFilter(colors int, dither string) string {
	use := "paletteuse"
	if dither != "" {
		use = fmt.Sprintf("paletteuse=dither=%s", dither)
	}
	return fmt.Sprintf("split[a][b];[a]palettegen=max_colors=%d[p];[b][p]%s", colors, use)
}

// PrependFilter chains an extra filter stage in front of an existing chain.
func PrependFilter(stage, chain string) string {
	if stage == "" {
		return chain
	}
	if chain == "" {
		return stage
	}
	return stage + "," + chain
}
