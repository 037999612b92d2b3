// Package workspace manages per-job scratch directories.
//
// Every job gets a uniquely tagged directory under the configured work root.
// A lock file inside the directory marks the job as live, so the stale sweep
// (`loupe clean`) can tell an abandoned workspace from one that still has a
// process attached.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"loupe/internal/logging"
	"loupe/internal/services"
)

const lockFileName = ".loupe.lock"

// Manager hands out job directories under a single work root.
type Manager struct {
	root   string
	logger *slog.Logger
}

func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the work root directory.
func (m *Manager) Root() string { return m.root }

// Job is one acquired scratch directory, locked for the lifetime of the job.
type Job struct {
	ID  string
	Dir string

	lock *flock.Flock
}

// Tag returns the bracketed marker embedded in this job's artifact names, so
// a crashed run's leftovers are recognizable at a glance.
func (j *Job) Tag() string {
	return fmt.Sprintf("[loupe-%s]", shortID(j.ID))
}

// Path joins parts under the job directory.
func (j *Job) Path(parts ...string) string {
	return filepath.Join(append([]string{j.Dir}, parts...)...)
}

// Acquire creates and locks a fresh job directory named after the input file.
func (m *Manager) Acquire(inputPath string) (*Job, error) {
	job := &Job{ID: uuid.NewString()}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if stem == "" {
		stem = "job"
	}
	job.Dir = filepath.Join(m.root, stem+" "+job.Tag())
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "workspace", "acquire", "create job directory", err)
	}

	job.lock = flock.New(filepath.Join(job.Dir, lockFileName))
	locked, err := job.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "workspace", "acquire", "lock job directory", err)
	}
	if !locked {
		// The directory name embeds a fresh uuid, so a held lock means
		// something else owns this exact path.
		return nil, services.Wrap(services.ErrTransient, "workspace", "acquire",
			fmt.Sprintf("job directory %s already locked", job.Dir), nil)
	}

	m.logger.Debug("acquired job workspace",
		logging.String("job_id", job.ID),
		logging.String("dir", job.Dir))
	return job, nil
}

// Release unlocks and removes the job directory. Safe to call once the final
// artifact has been moved out.
func (j *Job) Release() error {
	if j.lock != nil {
		if err := j.lock.Unlock(); err != nil {
			return fmt.Errorf("unlock workspace: %w", err)
		}
		j.lock = nil
	}
	if err := os.RemoveAll(j.Dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

// SweepStale removes unlocked job directories whose last modification is
// older than the given age. Locked directories belong to live jobs and are
// always skipped. Returns the paths removed.
func (m *Manager) SweepStale(olderThan time.Duration) ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read work root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.Contains(entry.Name(), "[loupe-") {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		lock := flock.New(filepath.Join(dir, lockFileName))
		locked, err := lock.TryLock()
		if err != nil || !locked {
			m.logger.Debug("skipping live workspace", logging.String("dir", dir))
			continue
		}
		if err := lock.Unlock(); err != nil {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warn("failed to remove stale workspace",
				logging.String("dir", dir), logging.Error(err))
			continue
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
