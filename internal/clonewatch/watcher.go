// Package clonewatch reports progress of tools that clone a directory of
// files one by one without printing anything useful.
//
// The upscaler binaries process a frames directory in input order but emit
// per-file percentages that are useless for whole-directory progress. The
// watcher instead polls the destination directory and counts which source
// files have appeared there, matching on the base name so a format change
// (frame0001.png becoming frame0001.jpg) still counts.
package clonewatch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"loupe/internal/logging"
	"loupe/internal/progress"
)

// DefaultInterval is how often the destination directory is polled.
const DefaultInterval = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	SrcDir   string
	DstDir   string
	Interval time.Duration
	Reporter progress.Reporter
	Logger   *slog.Logger
	// DeleteSource removes each source file once its clone appears, freeing
	// disk while long frame batches run.
	DeleteSource bool
}

// Watcher polls a destination directory until stopped.
type Watcher struct {
	opts     Options
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	pending map[string]string
	total   int
	cloned  int
}

// Watch starts polling. Stop must be called to release the watcher; it is
// safe to call more than once.
func Watch(opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	w := &Watcher{
		opts: opts,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Stop halts polling and waits for the poll goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Watcher) tick() {
	if w.pending == nil {
		if !w.snapshot() {
			return
		}
	}
	if len(w.pending) > 0 {
		entries, err := os.ReadDir(w.opts.DstDir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			key := stemOf(entry.Name())
			srcName, ok := w.pending[key]
			if !ok {
				continue
			}
			delete(w.pending, key)
			w.cloned++
			if w.opts.DeleteSource {
				if err := os.Remove(filepath.Join(w.opts.SrcDir, srcName)); err != nil && !os.IsNotExist(err) {
					w.opts.Logger.Warn("failed to remove cloned source file",
						logging.String("file", srcName), logging.Error(err))
				}
			}
		}
	}
	// Report every tick, cloned count changed or not, so consumers see the
	// watcher is alive.
	if w.opts.Reporter != nil {
		w.opts.Reporter.Progress(int64(w.cloned), int64(w.total))
	}
}

// snapshot indexes the source directory once, on the first successful tick.
// Files already present in the destination are ignored so a retried job does
// not double count.
func (w *Watcher) snapshot() bool {
	entries, err := os.ReadDir(w.opts.SrcDir)
	if err != nil {
		return false
	}
	pending := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pending[stemOf(entry.Name())] = entry.Name()
	}
	w.pending = pending
	w.total = len(pending)
	return true
}

func stemOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
