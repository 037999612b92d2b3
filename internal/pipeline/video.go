package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"loupe/internal/cleanup"
	"loupe/internal/media"
	"loupe/internal/preflight"
	"loupe/internal/process"
	"loupe/internal/progress"
	"loupe/internal/services"
	"loupe/internal/transcode"
	"loupe/internal/upscale"
	"loupe/internal/workspace"
)

func (e env) runVideo(ctx context.Context, desc *media.Descriptor, plan upscale.Plan, job *workspace.Job, ledger *cleanup.Ledger) (string, string, error) {
	durationMs := desc.Duration.Milliseconds()

	framesDir := job.Path("frames")
	upscaledDir := job.Path("upscaled")

	if err := e.checkFrameSpace(job.Dir, desc, plan); err != nil {
		return "", "", err
	}

	if err := e.extractFrames(ctx, desc, framesDir, durationMs); err != nil {
		return "", "", err
	}
	ledger.Task("frames directory", func() error { return os.RemoveAll(framesDir) })

	e.events.stage("upscaling frames")
	err := e.up.UpscaleDir(services.WithStage(ctx, "upscaling frames"), upscale.Request{
		Plan:     plan,
		Input:    framesDir,
		Output:   upscaledDir,
		Denoise:  e.cfg.Upscale.Denoise,
		TileSize: e.cfg.Upscale.TileSize,
		GPU:      e.cfg.Upscale.GPU,
		Threads:  e.cfg.Upscale.Threads,
		TTA:      e.cfg.Upscale.TTA,
		Format:   e.frameExt(),
		Reporter: progress.ReporterFunc(e.events.progress),
		Logger:   e.logger,
	})
	if err != nil {
		return "", "", err
	}
	ledger.Task("upscaled frames directory", func() error { return os.RemoveAll(upscaledDir) })

	container := transcode.ResolveContainer(
		desc.Container,
		desc.HasSubtitles(),
		e.cfg.Video.EnsureSubtitles,
		e.cfg.Video.InheritContainer,
		e.cfg.Video.PreferredContainer,
	)
	codec := transcode.CodecFor(container, e.cfg.Video)
	if codec == "" {
		return "", "", services.Wrap(services.ErrConfiguration, "video", "encode",
			fmt.Sprintf("no codec for container %q", container), nil)
	}

	out, err := e.encodeVideo(ctx, desc, plan, job, ledger, container, codec, upscaledDir, durationMs)
	if err != nil {
		return "", "", err
	}
	return out, container, nil
}

// checkFrameSpace refuses the job when the frame mass obviously cannot fit.
// The estimate covers source frames plus the upscaled set; source frames are
// deleted as their clones appear, so the true peak is lower.
func (e env) checkFrameSpace(dir string, desc *media.Descriptor, plan upscale.Plan) error {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Duration <= 0 || desc.FrameRate <= 0 {
		return nil
	}
	frames := int(desc.Duration.Seconds()*desc.FrameRate) + 1
	raw := preflight.EstimateFrameBytes(desc.Width, desc.Height, frames, e.cfg.Video.FrameFormat)
	upscaledMass := preflight.EstimateFrameBytes(
		desc.Width*plan.Achieved, desc.Height*plan.Achieved, frames, e.cfg.Video.FrameFormat)
	return preflight.EnsureSpace(dir, raw+upscaledMass)
}

func (e env) frameExt() string {
	if e.cfg.Video.FrameFormat == "mjpeg" {
		return "jpg"
	}
	return "png"
}

func (e env) extractFrames(ctx context.Context, desc *media.Descriptor, framesDir string, durationMs int64) error {
	e.events.stage("extracting frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "video", "extract frames", "create frames directory", err)
	}

	args := []string{"-y", "-i", desc.Path}
	if e.cfg.Video.FrameFormat == "mjpeg" {
		args = append(args, "-qscale:v", strconv.Itoa(e.cfg.Video.MJPEGQuality))
	}
	args = append(args, framesDir+"/%08d."+e.frameExt())

	translator := progress.NewFFmpegTranslator(progress.ReporterFunc(e.events.progress))
	translator.SetTotal(durationMs)
	translator.SetLogSink(e.events.log)

	err := e.run(ctx, process.Command{
		Binary:   e.cfg.Binaries.FFmpeg,
		Args:     args,
		OnOutput: translator.Ingest,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "video", "extract frames", "", err)
	}
	return nil
}

func (e env) encodeVideo(ctx context.Context, desc *media.Descriptor, plan upscale.Plan, job *workspace.Job, ledger *cleanup.Ledger, container, codec, upscaledDir string, durationMs int64) (string, error) {
	targetW := desc.Width * plan.Requested
	targetH := desc.Height * plan.Requested

	var filter string
	if plan.NeedsDownscale() && targetW > 0 && targetH > 0 {
		if container == transcode.ContainerGIF {
			filter = transcode.ScaleFilter(targetW, targetH)
		} else {
			filter = transcode.EvenScaleFilter(targetW, targetH)
		}
	}

	out := job.Path("output." + container)

	if container == transcode.ContainerGIF {
		e.events.stage("encoding video")
		chain := transcode.PrependFilter(filter,
			transcode.PaletteFilter(e.cfg.Video.GIF.Colors, e.cfg.Video.GIF.Dither))
		args := e.frameInputArgs(desc, upscaledDir)
		args = append(args, "-filter_complex", chain, out)
		if err := e.runEncode(ctx, args, durationMs); err != nil {
			os.Remove(out)
			return "", err
		}
		return out, nil
	}

	if transcode.TwoPass(codec, e.cfg.Video) {
		passLog := job.Path("passlog")
		ledger.Task("pass log", func() error { return os.RemoveAll(passLog + "-0.log") })

		e.events.stage("pass 1")
		args, err := e.encodeArgs(desc, container, upscaledDir, filter,
			transcode.EncodeSpec{Codec: codec, Video: e.cfg.Video, Pass: 1, PassLog: passLog})
		if err != nil {
			return "", err
		}
		args = append(args, "-an", "-f", "null", os.DevNull)
		if err := e.runEncode(ctx, args, durationMs); err != nil {
			return "", err
		}

		e.events.stage("pass 2")
		args, err = e.encodeArgs(desc, container, upscaledDir, filter,
			transcode.EncodeSpec{Codec: codec, Video: e.cfg.Video, Pass: 2, PassLog: passLog})
		if err != nil {
			return "", err
		}
		args = e.appendAudioAndOutput(args, desc, container, out)
		if err := e.runEncode(ctx, args, durationMs); err != nil {
			os.Remove(out)
			return "", err
		}
		return out, nil
	}

	e.events.stage("encoding video")
	args, err := e.encodeArgs(desc, container, upscaledDir, filter,
		transcode.EncodeSpec{Codec: codec, Video: e.cfg.Video})
	if err != nil {
		return "", err
	}
	args = e.appendAudioAndOutput(args, desc, container, out)
	if err := e.runEncode(ctx, args, durationMs); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

// frameInputArgs declares the upscaled frame sequence as ffmpeg input 0.
func (e env) frameInputArgs(desc *media.Descriptor, upscaledDir string) []string {
	fps := desc.FrameRate
	if fps <= 0 {
		fps = 30
	}
	return []string{
		"-y",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", upscaledDir + "/%08d." + e.frameExt(),
	}
}

// encodeArgs assembles everything up to (but not including) audio arguments
// and the output path, so pass 1 can swap in a null sink.
func (e env) encodeArgs(desc *media.Descriptor, container, upscaledDir, filter string, spec transcode.EncodeSpec) ([]string, error) {
	args := e.frameInputArgs(desc, upscaledDir)
	if len(desc.Audio) > 0 || desc.HasSubtitles() {
		args = append(args, "-i", desc.Path)
	}
	args = append(args, transcode.StreamMaps(container,
		len(desc.Audio) > 0, e.cfg.Video.SkipAudio, desc.HasSubtitles())...)

	codecArgs, err := transcode.CodecArgs(spec)
	if err != nil {
		return nil, err
	}
	args = append(args, codecArgs...)
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	if container == transcode.ContainerMP4 {
		args = append(args, "-movflags", "+faststart")
	}
	return args, nil
}

func (e env) appendAudioAndOutput(args []string, desc *media.Descriptor, container, out string) []string {
	channels := make([]int, 0, len(desc.Audio))
	for _, stream := range desc.Audio {
		channels = append(channels, stream.Channels)
	}
	args = append(args, transcode.AudioArgs(
		e.cfg.Video.SkipAudio, container, desc.Container, channels,
		e.cfg.Video.AudioBitratePerChannel)...)
	return append(args, out)
}

func (e env) runEncode(ctx context.Context, args []string, durationMs int64) error {
	translator := progress.NewFFmpegTranslator(progress.ReporterFunc(e.events.progress))
	translator.SetTotal(durationMs)
	translator.SetLogSink(e.events.log)

	err := e.run(ctx, process.Command{
		Binary:   e.cfg.Binaries.FFmpeg,
		Args:     args,
		OnOutput: translator.Ingest,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "video", "encode", "", err)
	}
	return nil
}
