package preflight

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"loupe/internal/services"
)

func TestCheckWritable(t *testing.T) {
	if err := CheckWritable(t.TempDir()); err != nil {
		t.Fatalf("temp dir should be writable: %v", err)
	}
	err := CheckWritable(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFreeBytes(t *testing.T) {
	free, err := FreeBytes(t.TempDir())
	if err != nil {
		t.Fatalf("FreeBytes: %v", err)
	}
	if free == 0 {
		t.Fatal("expected nonzero free space on the test filesystem")
	}
}

func TestEnsureSpace(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureSpace(dir, 1); err != nil {
		t.Fatalf("one byte should always fit: %v", err)
	}
	err := EnsureSpace(dir, math.MaxUint64)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient failure for absurd requirement, got %v", err)
	}
}

func TestEstimateFrameBytes(t *testing.T) {
	png := EstimateFrameBytes(1920, 1080, 100, "png")
	if png != 1920*1080*3*100 {
		t.Fatalf("png estimate = %d", png)
	}
	mjpeg := EstimateFrameBytes(1920, 1080, 100, "mjpeg")
	if mjpeg >= png {
		t.Fatal("mjpeg estimate should be smaller than png")
	}
	if EstimateFrameBytes(0, 1080, 100, "png") != 0 {
		t.Fatal("zero dimension must yield zero estimate")
	}
}
