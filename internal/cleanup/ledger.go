// Package cleanup tracks deferred teardown work for a job.
//
// Pipelines register cleanup functions as they acquire resources (temp
// directories, watchers, partially written outputs) and run the whole ledger
// exactly once at the end, regardless of how the job finished.
package cleanup

import (
	"log/slog"
	"sync"

	"loupe/internal/logging"
)

// Ledger collects teardown functions and runs them in registration order.
// A failing or panicking entry never prevents the remaining entries from
// running. Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []entry
	done    bool
	logger  *slog.Logger
}

type entry struct {
	name string
	fn   func() error
}

// NewLedger returns an empty ledger. A nil logger disables failure logging.
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ledger{logger: logger}
}

// Task registers a named cleanup function. Registration after Run is a no-op;
// the resource in that case was acquired too late to be torn down here and
// the caller keeps responsibility for it.
func (l *Ledger) Task(name string, fn func() error) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return
	}
	l.entries = append(l.entries, entry{name: name, fn: fn})
}

// Forget removes every registered task with the given name without running
// it. Used when a resource graduates into the final output and must survive.
func (l *Ledger) Forget(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// Run executes all registered tasks in registration order. Errors and panics
// are logged and swallowed so every task gets its chance. Subsequent calls
// are no-ops.
func (l *Ledger) Run() {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.done = true
	entries := l.entries
	l.entries = nil
	l.mu.Unlock()

	for _, e := range entries {
		l.runOne(e)
	}
}

func (l *Ledger) runOne(e entry) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn("cleanup task panicked",
				logging.String("task", e.name),
				slog.Any("panic", r))
		}
	}()
	if err := e.fn(); err != nil {
		l.logger.Warn("cleanup task failed",
			logging.String("task", e.name),
			logging.Error(err))
	}
}
