// Package pipeline orchestrates a whole upscale job: classify the input,
// run the image or video path, and land the final artifact at its
// destination. Everything temporary lives in a locked per-job workspace and
// is torn down through a cleanup ledger no matter how the job ends.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"loupe/internal/cleanup"
	"loupe/internal/config"
	"loupe/internal/destpath"
	"loupe/internal/fileutil"
	"loupe/internal/logging"
	"loupe/internal/media"
	"loupe/internal/preflight"
	"loupe/internal/process"
	"loupe/internal/services"
	"loupe/internal/upscale"
	"loupe/internal/workspace"
)

// Events carries the caller-facing progress callbacks. All fields are
// optional.
type Events struct {
	OnStage           func(stage string)
	OnProgress        func(completed, total int64)
	OnProgressCleared func()
	OnLog             func(line string)
}

func (e Events) stage(name string) {
	if e.OnStage != nil {
		e.OnStage(name)
	}
	if e.OnProgressCleared != nil {
		e.OnProgressCleared()
	}
}

func (e Events) progress(completed, total int64) {
	if e.OnProgress != nil {
		e.OnProgress(completed, total)
	}
}

func (e Events) log(line string) {
	if e.OnLog != nil {
		e.OnLog(line)
	}
}

// Upscaler abstracts the invoker so tests can substitute the binaries.
type Upscaler interface {
	UpscaleFile(ctx context.Context, req upscale.Request) error
	UpscaleDir(ctx context.Context, req upscale.Request) error
}

// Options bundles the collaborators a job needs.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Events Events
	// Run executes external commands; defaults to process.Run.
	Run func(ctx context.Context, cmd process.Command) error
	// Upscaler defaults to an invoker over the configured binaries.
	Upscaler Upscaler
	// Workspaces defaults to a manager over the configured work dir.
	Workspaces *workspace.Manager
}

// Result describes a finished job.
type Result struct {
	OutputPath string
	Container  string
	Descriptor media.Descriptor
	Plan       upscale.Plan
}

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	events Events
	run    func(ctx context.Context, cmd process.Command) error
	up     Upscaler
}

// Process runs one upscale job end to end.
func Process(ctx context.Context, opts Options, inputPath string) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "setup", "missing configuration", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")
	e := env{cfg: cfg, logger: logger, events: opts.Events, run: opts.Run, up: opts.Upscaler}
	if e.run == nil {
		e.run = process.Run
	}
	if e.up == nil {
		e.up = upscale.NewInvoker(cfg.Binaries.Waifu2x, cfg.Binaries.RealESRGAN)
	}
	manager := opts.Workspaces
	if manager == nil {
		manager = workspace.NewManager(cfg.Paths.WorkDir, logger)
	}

	// Fail on a bad destination template before any work happens.
	if err := destpath.Validate(cfg.Saving.Destination); err != nil {
		return nil, err
	}

	plan, err := upscale.Resolve(cfg.Upscale.Model, cfg.Upscale.Scale)
	if err != nil {
		return nil, err
	}

	desc, err := media.Classify(ctx, cfg.Binaries.FFprobe, inputPath)
	if err != nil {
		return nil, err
	}

	if err := preflight.CheckWritable(manager.Root()); err != nil {
		return nil, err
	}
	job, err := manager.Acquire(inputPath)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger = logger.With(logging.String(logging.FieldJobID, job.ID))
	e.logger = logger

	ledger := cleanup.NewLedger(logger)
	defer func() {
		e.events.stage("cleaning up")
		ledger.Run()
	}()
	ledger.Task("workspace", job.Release)

	var tempOut, ext string
	switch desc.Kind {
	case media.KindImage:
		tempOut, ext, err = e.runImage(ctx, desc, plan, job, ledger)
	case media.KindVideo:
		tempOut, ext, err = e.runVideo(ctx, desc, plan, job, ledger)
	default:
		err = services.Wrap(services.ErrUnsupportedInput, "pipeline", "dispatch",
			"input is neither image nor video", nil)
	}
	if err != nil {
		return nil, err
	}
	ledger.Task("output artifact", func() error { return os.RemoveAll(tempOut) })

	finalPath, err := e.finalize(tempOut, ext, inputPath, plan)
	if err != nil {
		return nil, err
	}
	// The artifact now lives at its destination; it is the caller's.
	ledger.Forget("output artifact")

	return &Result{
		OutputPath: finalPath,
		Container:  ext,
		Descriptor: *desc,
		Plan:       plan,
	}, nil
}

// finalize moves the temp artifact to its templated destination and honors
// the delete-original setting.
func (e env) finalize(tempOut, ext, inputPath string, plan upscale.Plan) (string, error) {
	dest, err := destpath.Resolve(e.cfg.Saving.Destination, destpath.Values{
		InputPath: inputPath,
		Ext:       ext,
		Model:     plan.Model,
		Scale:     plan.Requested,
	})
	if err != nil {
		return "", err
	}
	dest = destpath.EnsureUnique(dest, e.cfg.Saving.OverwriteExisting)

	if err := fileutil.MoveFile(tempOut, dest); err != nil {
		return "", services.Wrap(services.ErrTransient, "pipeline", "finalize", "move output into place", err)
	}
	e.logger.Info("output saved", logging.String("path", dest))

	if e.cfg.Saving.DeleteOriginal && !samePath(dest, inputPath) {
		if err := os.Remove(inputPath); err != nil {
			e.logger.Warn("failed to delete original", logging.Error(err))
		}
	}
	return dest, nil
}

func samePath(a, b string) bool {
	return strings.EqualFold(a, b)
}
