// Package preflight verifies the environment can hold a job before any
// expensive work starts. Frame extraction can write tens of gigabytes.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"loupe/internal/services"
)

// CheckWritable verifies the directory exists and accepts new files.
func CheckWritable(dir string) error {
	probe, err := os.CreateTemp(dir, ".loupe-preflight-*")
	if err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "writable",
			fmt.Sprintf("directory %s is not writable", dir), err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "writable", "remove probe file", err)
	}
	return nil
}

// FreeBytes reports the bytes available to this process on the filesystem
// holding dir.
func FreeBytes(dir string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// EnsureSpace fails when the filesystem holding dir has fewer than required
// bytes available.
func EnsureSpace(dir string, required uint64) error {
	free, err := FreeBytes(dir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "preflight", "disk space", "", err)
	}
	if free < required {
		return services.Wrap(services.ErrTransient, "preflight", "disk space",
			fmt.Sprintf("need about %s free in %s, have %s",
				humanBytes(required), filepath.Clean(dir), humanBytes(free)), nil)
	}
	return nil
}

// EstimateFrameBytes guesses the disk mass of an extracted frame sequence.
// png intermediates average out near 3 bytes per pixel; mjpeg much less. The
// guess is deliberately on the high side.
func EstimateFrameBytes(width, height, frames int, format string) uint64 {
	if width <= 0 || height <= 0 || frames <= 0 {
		return 0
	}
	perPixel := uint64(3)
	if format == "mjpeg" {
		perPixel = 1
	}
	return uint64(width) * uint64(height) * perPixel * uint64(frames)
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
