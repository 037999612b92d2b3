package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"loupe/internal/logging"
	"loupe/internal/pipeline"
	"loupe/internal/services"
	"loupe/internal/upscale"
)

func newUpscaleCommand(ctx *commandContext) *cobra.Command {
	var (
		modelFlag       string
		scaleFlag       int
		denoiseFlag     int
		destinationFlag string
		overwriteFlag   bool
		deleteFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "upscale <file> [file...]",
		Short: "Upscale one or more images or videos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if modelFlag != "" {
				cfg.Upscale.Model = strings.ToLower(strings.TrimSpace(modelFlag))
			}
			if scaleFlag > 0 {
				cfg.Upscale.Scale = scaleFlag
			}
			if cmd.Flags().Changed("denoise") {
				cfg.Upscale.Denoise = denoiseFlag
			}
			if destinationFlag != "" {
				cfg.Saving.Destination = destinationFlag
			}
			if overwriteFlag {
				cfg.Saving.OverwriteExisting = true
			}
			if deleteFlag {
				cfg.Saving.DeleteOriginal = true
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var failures int
			for _, input := range args {
				if err := runJob(cmd, ctx, input); err != nil {
					failures++
					details := services.Details(err)
					logger.Error("job failed",
						logging.String("input", input),
						logging.String("kind", details.Kind),
						logging.Error(err))
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", input, details.Message)
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d job(s) failed", failures, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modelFlag, "model", "m", "",
		"Upscaling model ("+strings.Join(upscale.ModelNames(), ", ")+")")
	cmd.Flags().IntVarP(&scaleFlag, "scale", "s", 0, "Requested scale factor")
	cmd.Flags().IntVarP(&denoiseFlag, "denoise", "n", 0, "Denoise level (-1 to 3, waifu2x models)")
	cmd.Flags().StringVarP(&destinationFlag, "destination", "d", "", "Destination path template")
	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "Overwrite an existing destination file")
	cmd.Flags().BoolVar(&deleteFlag, "delete-original", false, "Delete the source file after a successful upscale")
	return cmd
}

func runJob(cmd *cobra.Command, ctx *commandContext, input string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input %s: %w", input, err)
	}

	events := newEventRenderer(input, logger)
	defer events.close()

	result, err := pipeline.Process(cmd.Context(), pipeline.Options{
		Config: cfg,
		Logger: logger,
		Events: events.events(),
	}, input)
	if err != nil {
		return err
	}
	events.close()
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", input, result.OutputPath)
	return nil
}

// eventRenderer translates pipeline events into either an interactive
// progress bar (tty) or sampled structured log lines.
type eventRenderer struct {
	input   string
	logger  *slog.Logger
	tty     bool
	sampler *logging.ProgressSampler
	stage   string
	bar     *progressbar.ProgressBar
}

func newEventRenderer(input string, logger *slog.Logger) *eventRenderer {
	return &eventRenderer{
		input:   input,
		logger:  logger,
		tty:     isatty.IsTerminal(os.Stderr.Fd()),
		sampler: logging.NewProgressSampler(5),
	}
}

func (r *eventRenderer) events() pipeline.Events {
	return pipeline.Events{
		OnStage:           r.onStage,
		OnProgress:        r.onProgress,
		OnProgressCleared: r.onProgressCleared,
		OnLog:             r.onLog,
	}
}

func (r *eventRenderer) onStage(stage string) {
	r.stage = stage
	if r.tty {
		r.closeBar()
		r.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(stage),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		return
	}
	r.logger.Info("stage started", "input", r.input, "stage", stage)
}

func (r *eventRenderer) onProgress(completed, total int64) {
	if r.tty {
		if r.bar == nil {
			return
		}
		if total > 0 && r.bar.GetMax64() != total {
			r.bar.ChangeMax64(total)
		}
		_ = r.bar.Set64(completed)
		return
	}
	percent := float64(-1)
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}
	if r.sampler.ShouldLog(percent, r.stage) {
		r.logger.Info("progress",
			"input", r.input,
			"stage", r.stage,
			"percent", fmt.Sprintf("%.0f", percent))
	}
}

func (r *eventRenderer) onProgressCleared() {
	if r.tty && r.bar != nil {
		_ = r.bar.Clear()
	}
}

func (r *eventRenderer) onLog(line string) {
	r.logger.Debug("tool output", "line", line)
}

func (r *eventRenderer) closeBar() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *eventRenderer) close() {
	r.closeBar()
}
