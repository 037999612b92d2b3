package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"loupe/internal/cleanup"
	"loupe/internal/media"
	"loupe/internal/process"
	"loupe/internal/progress"
	"loupe/internal/services"
	"loupe/internal/transcode"
	"loupe/internal/upscale"
	"loupe/internal/workspace"
)

// upscalerInputFormats are the raster formats the ncnn binaries read
// directly. Anything else goes through a png conversion first.
var upscalerInputFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"webp": true,
}

func (e env) runImage(ctx context.Context, desc *media.Descriptor, plan upscale.Plan, job *workspace.Job, ledger *cleanup.Ledger) (string, string, error) {
	src := desc.Path
	if !upscalerInputFormats[desc.Container] {
		e.events.stage("preparing input")
		converted := job.Path("source.png")
		err := e.run(ctx, process.Command{
			Binary:   e.cfg.Binaries.FFmpeg,
			Args:     []string{"-y", "-i", src, converted},
			OnOutput: func(chunk string) { e.events.log(chunk) },
		})
		if err != nil {
			return "", "", services.Wrap(services.ErrExternalTool, "image", "convert input", "", err)
		}
		ledger.Task("converted input", func() error { return os.RemoveAll(converted) })
		src = converted
	}

	e.events.stage("upscaling image")
	ctx = services.WithStage(ctx, "upscaling image")
	upscaled := job.Path("upscaled.png")
	err := e.up.UpscaleFile(ctx, upscale.Request{
		Plan:     plan,
		Input:    src,
		Output:   upscaled,
		Denoise:  e.cfg.Upscale.Denoise,
		TileSize: e.cfg.Upscale.TileSize,
		GPU:      e.cfg.Upscale.GPU,
		Threads:  e.cfg.Upscale.Threads,
		TTA:      e.cfg.Upscale.TTA,
		Format:   "png",
		Reporter: progress.ReporterFunc(e.events.progress),
		Logger:   e.logger,
	})
	if err != nil {
		return "", "", err
	}
	ledger.Task("upscaled image", func() error { return os.RemoveAll(upscaled) })

	targetW := desc.Width * plan.Requested
	targetH := desc.Height * plan.Requested
	needRescale := plan.NeedsDownscale() && targetW > 0 && targetH > 0

	outFormat := e.cfg.Image.OutputFormat
	out, err := e.encodeImage(ctx, upscaled, job, outFormat, needRescale, targetW, targetH)
	if err != nil {
		return "", "", err
	}

	if targetW > 0 && targetH > 0 {
		wantW, wantH := targetW, targetH
		if !needRescale {
			wantW = desc.Width * plan.Achieved
			wantH = desc.Height * plan.Achieved
		}
		if err := ValidateImageDimensions(out, wantW, wantH); err != nil {
			return "", "", err
		}
	}
	return out, outFormat, nil
}

// encodeImage produces the final image artifact. png without a rescale is a
// pass-through; everything else re-encodes via ffmpeg.
func (e env) encodeImage(ctx context.Context, upscaled string, job *workspace.Job, format string, rescale bool, targetW, targetH int) (string, error) {
	if format == "png" && !rescale {
		return upscaled, nil
	}

	e.events.stage("encoding image")
	out := job.Path("output." + format)
	args := []string{"-y", "-i", upscaled}
	switch format {
	case "png":
		args = append(args, "-vf", transcode.ScaleFilter(targetW, targetH))
	case "jpg":
		chain := fmt.Sprintf("color=c=%s[bg];[bg][0:v]scale2ref[bg][fg];[bg][fg]overlay=shortest=1,format=yuvj420p",
			e.cfg.Image.Background)
		if rescale {
			chain += "," + transcode.ScaleFilter(targetW, targetH)
		}
		args = append(args, "-filter_complex", chain, "-q:v", strconv.Itoa(jpegQuantizer(e.cfg.Image.JPEGQuality)))
	case "webp":
		if rescale {
			args = append(args, "-vf", transcode.ScaleFilter(targetW, targetH))
		}
		args = append(args,
			"-c:v", "libwebp",
			"-quality", strconv.Itoa(e.cfg.Image.WebpQuality),
			"-preset", e.cfg.Image.WebpPreset,
		)
	default:
		return "", services.Wrap(services.ErrConfiguration, "image", "encode",
			fmt.Sprintf("unsupported output format %q", format), nil)
	}
	args = append(args, out)

	err := e.run(ctx, process.Command{
		Binary:   e.cfg.Binaries.FFmpeg,
		Args:     args,
		OnOutput: func(chunk string) { e.events.log(chunk) },
	})
	if err != nil {
		os.Remove(out)
		return "", services.Wrap(services.ErrExternalTool, "image", "encode", "", err)
	}
	return out, nil
}

// jpegQuantizer maps a 1-100 quality onto ffmpeg's 2-31 mjpeg quantizer
// scale, where lower means better.
func jpegQuantizer(quality int) int {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return 2 + ((100-quality)*29)/100
}
