// Package upscale drives the ncnn-vulkan upscaler binaries.
//
// A model name selects both the binary (waifu2x-ncnn-vulkan or
// realesrgan-ncnn-vulkan) and the scale factors the binary can actually
// produce, which rarely match the requested factor exactly. Callers get the
// achieved factor back and correct any overshoot downstream.
package upscale

import (
	"fmt"

	"loupe/internal/services"
)

// Binary identifies which upscaler executable a model belongs to.
type Binary int

const (
	BinaryWaifu2x Binary = iota
	BinaryRealESRGAN
)

// Model names accepted in configuration.
const (
	ModelRealesrAnimeVideoV3  = "realesr-animevideov3"
	ModelRealesrganX4Plus     = "realesrgan-x4plus"
	ModelRealesrganX4PlusAnim = "realesrgan-x4plus-anime"
	ModelCunet                = "models-cunet"
	ModelUpconv7Photo         = "models-upconv7-photo"
	ModelUpconv7Anime         = "models-upconv7-anime"
)

// ModelNames lists every supported model, in display order.
func ModelNames() []string {
	return []string{
		ModelRealesrAnimeVideoV3,
		ModelRealesrganX4Plus,
		ModelRealesrganX4PlusAnim,
		ModelCunet,
		ModelUpconv7Photo,
		ModelUpconv7Anime,
	}
}

// waifu2x chains 2x passes internally, so it can only land on powers of two.
var waifu2xSteps = []int{1, 2, 4, 8, 16, 32}

// Plan describes how a model will satisfy a requested scale factor.
type Plan struct {
	Model string
	// Binary that runs this model.
	Binary Binary
	// Requested is what the caller asked for.
	Requested int
	// Achieved is the factor the binary will actually produce; never less
	// than Requested.
	Achieved int
}

// NeedsDownscale reports whether the output must be shrunk afterwards to
// reach the requested factor.
func (p Plan) NeedsDownscale() bool { return p.Achieved != p.Requested }

// Resolve maps a model name and requested factor onto an executable plan.
// Unknown models and out-of-range factors are configuration errors.
func Resolve(model string, requested int) (Plan, error) {
	if requested < 1 || requested > 32 {
		return Plan{}, services.Wrap(services.ErrConfiguration, "upscale", "resolve",
			fmt.Sprintf("scale factor %d out of range 1-32", requested), nil)
	}
	plan := Plan{Model: model, Requested: requested}
	switch model {
	case ModelRealesrAnimeVideoV3:
		plan.Binary = BinaryRealESRGAN
		if requested == 2 {
			plan.Achieved = 2
		} else {
			plan.Achieved = 4
		}
	case ModelRealesrganX4Plus, ModelRealesrganX4PlusAnim:
		plan.Binary = BinaryRealESRGAN
		plan.Achieved = 4
	case ModelCunet, ModelUpconv7Photo, ModelUpconv7Anime:
		plan.Binary = BinaryWaifu2x
		for _, step := range waifu2xSteps {
			if step >= requested {
				plan.Achieved = step
				break
			}
		}
	default:
		return Plan{}, services.Wrap(services.ErrConfiguration, "upscale", "resolve",
			fmt.Sprintf("unknown model %q", model), nil)
	}
	if plan.Achieved < plan.Requested {
		return Plan{}, services.Wrap(services.ErrConfiguration, "upscale", "resolve",
			fmt.Sprintf("model %q cannot reach %dx", model, requested), nil)
	}
	return plan, nil
}
