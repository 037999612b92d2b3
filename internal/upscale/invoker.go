package upscale

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"loupe/internal/clonewatch"
	"loupe/internal/logging"
	"loupe/internal/process"
	"loupe/internal/progress"
	"loupe/internal/services"
)

// Request describes one upscaler invocation, for a single image file or a
// whole directory of frames.
type Request struct {
	Plan     Plan
	Input    string
	Output   string
	Denoise  int
	TileSize int
	GPU      string
	Threads  string
	TTA      bool
	// Format is the output image format (png, jpg, webp). Empty lets the
	// binary infer it from the output extension.
	Format   string
	Reporter progress.Reporter
	Logger   *slog.Logger
}

// Invoker runs the upscaler binaries.
type Invoker struct {
	Waifu2x    string
	RealESRGAN string

	// run is a seam for tests.
	run func(ctx context.Context, cmd process.Command) error
}

func NewInvoker(waifu2x, realesrgan string) *Invoker {
	return &Invoker{Waifu2x: waifu2x, RealESRGAN: realesrgan, run: process.Run}
}

func (inv *Invoker) binaryPath(b Binary) (string, error) {
	switch b {
	case BinaryWaifu2x:
		if inv.Waifu2x == "" {
			return "", services.Wrap(services.ErrConfiguration, "upscale", "invoke",
				"waifu2x binary not configured", nil)
		}
		return inv.Waifu2x, nil
	case BinaryRealESRGAN:
		if inv.RealESRGAN == "" {
			return "", services.Wrap(services.ErrConfiguration, "upscale", "invoke",
				"realesrgan binary not configured", nil)
		}
		return inv.RealESRGAN, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "upscale", "invoke", "unknown binary", nil)
}

// args builds the binary's argument vector. waifu2x takes the denoise level
// as -n and the model directory as -m; realesrgan takes the model name as -n
// and has no denoise control.
func args(req Request) []string {
	argv := []string{"-i", req.Input, "-o", req.Output}
	if req.Plan.Binary == BinaryWaifu2x {
		argv = append(argv, "-n", strconv.Itoa(req.Denoise))
	} else {
		argv = append(argv, "-n", req.Plan.Model)
	}
	argv = append(argv,
		"-s", strconv.Itoa(req.Plan.Achieved),
		"-t", strconv.Itoa(req.TileSize),
	)
	if req.GPU != "" && req.GPU != "auto" {
		argv = append(argv, "-g", req.GPU)
	}
	if req.Threads != "" {
		argv = append(argv, "-j", req.Threads)
	}
	if req.TTA {
		argv = append(argv, "-x")
	}
	if req.Format != "" {
		argv = append(argv, "-f", req.Format)
	}
	if req.Plan.Binary == BinaryWaifu2x {
		argv = append(argv, "-m", req.Plan.Model)
	}
	return argv
}

// UpscaleFile upscales a single image. Progress comes from the percentage
// lines the binary prints to stderr.
func (inv *Invoker) UpscaleFile(ctx context.Context, req Request) error {
	binary, err := inv.binaryPath(req.Plan.Binary)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, req.Logger)
	logger.Info("upscaling image",
		logging.String("model", req.Plan.Model),
		logging.Int("scale", req.Plan.Achieved))

	var onOutput func(string)
	if req.Reporter != nil {
		translator := progress.NewPercentTranslator(req.Reporter)
		onOutput = translator.Ingest
	}
	if err := inv.run(ctx, process.Command{Binary: binary, Args: args(req), OnOutput: onOutput}); err != nil {
		return services.Wrap(services.ErrExternalTool, "upscale", "invoke", "upscaler failed", err)
	}
	return nil
}

// UpscaleDir upscales every file in the input directory into the output
// directory. The binary's per-file percentages are useless for a batch, so
// progress comes from watching output files appear; each cloned source frame
// is deleted to cap peak disk usage. Any stale output directory is wiped so
// the watcher never counts leftovers from an aborted run.
func (inv *Invoker) UpscaleDir(ctx context.Context, req Request) error {
	binary, err := inv.binaryPath(req.Plan.Binary)
	if err != nil {
		return err
	}
	logger := logging.WithContext(ctx, req.Logger)

	if err := os.RemoveAll(req.Output); err != nil {
		return services.Wrap(services.ErrTransient, "upscale", "invoke", "reset output directory", err)
	}
	if err := os.MkdirAll(req.Output, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "upscale", "invoke", "create output directory", err)
	}

	logger.Info("upscaling frames",
		logging.String("model", req.Plan.Model),
		logging.Int("scale", req.Plan.Achieved))

	watcher := clonewatch.Watch(clonewatch.Options{
		SrcDir:       req.Input,
		DstDir:       req.Output,
		Reporter:     req.Reporter,
		Logger:       logger,
		DeleteSource: true,
	})
	defer watcher.Stop()

	if err := inv.run(ctx, process.Command{Binary: binary, Args: args(req)}); err != nil {
		return services.Wrap(services.ErrExternalTool, "upscale", "invoke", "upscaler failed", err)
	}
	return nil
}
