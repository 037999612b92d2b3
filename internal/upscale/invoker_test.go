package upscale

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loupe/internal/process"
	"loupe/internal/progress"
	"loupe/internal/services"
)

func joinArgs(args []string) string { return strings.Join(args, " ") }

func TestArgsWaifu2x(t *testing.T) {
	plan, err := Resolve(ModelCunet, 3)
	if err != nil {
		t.Fatal(err)
	}
	argv := args(Request{
		Plan:     plan,
		Input:    "in.png",
		Output:   "out.png",
		Denoise:  1,
		TileSize: 0,
		GPU:      "auto",
		Threads:  "1:2:2",
		Format:   "png",
	})
	got := joinArgs(argv)
	want := "-i in.png -o out.png -n 1 -s 4 -t 0 -j 1:2:2 -f png -m models-cunet"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestArgsRealESRGAN(t *testing.T) {
	plan, err := Resolve(ModelRealesrAnimeVideoV3, 2)
	if err != nil {
		t.Fatal(err)
	}
	argv := args(Request{
		Plan:     plan,
		Input:    "frames",
		Output:   "upscaled",
		Denoise:  2,
		TileSize: 256,
		GPU:      "1",
		Threads:  "1:2:2",
		TTA:      true,
		Format:   "jpg",
	})
	got := joinArgs(argv)
	want := "-i frames -o upscaled -n realesr-animevideov3 -s 2 -t 256 -g 1 -j 1:2:2 -x -f jpg"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestUpscaleFileReportsPercent(t *testing.T) {
	plan, err := Resolve(ModelRealesrganX4Plus, 4)
	if err != nil {
		t.Fatal(err)
	}

	inv := NewInvoker("", "realesrgan-ncnn-vulkan")
	inv.run = func(_ context.Context, cmd process.Command) error {
		cmd.OnOutput("23.50%\n")
		cmd.OnOutput("100.00%\n")
		return nil
	}

	var readings []int64
	err = inv.UpscaleFile(context.Background(), Request{
		Plan:   plan,
		Input:  "in.png",
		Output: "out.png",
		Reporter: progress.ReporterFunc(func(completed, _ int64) {
			readings = append(readings, completed)
		}),
	})
	if err != nil {
		t.Fatalf("UpscaleFile: %v", err)
	}
	if len(readings) != 2 || readings[0] != 24 || readings[1] != 100 {
		t.Fatalf("unexpected readings: %v", readings)
	}
}

func TestUpscaleFileWrapsFailure(t *testing.T) {
	plan, err := Resolve(ModelRealesrganX4Plus, 4)
	if err != nil {
		t.Fatal(err)
	}

	inv := NewInvoker("", "realesrgan-ncnn-vulkan")
	inv.run = func(context.Context, process.Command) error {
		return &process.ExitCodeError{Binary: "realesrgan-ncnn-vulkan", Code: 255, Output: "vkQueueSubmit failed"}
	}

	err = inv.UpscaleFile(context.Background(), Request{Plan: plan, Input: "in.png", Output: "out.png"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "vkQueueSubmit failed") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}

func TestUpscaleDirResetsOutputDirectory(t *testing.T) {
	plan, err := Resolve(ModelRealesrAnimeVideoV3, 4)
	if err != nil {
		t.Fatal(err)
	}

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "upscaled")
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dst, "leftover.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := NewInvoker("", "realesrgan-ncnn-vulkan")
	inv.run = func(context.Context, process.Command) error {
		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("stale output file should be gone before the binary runs")
		}
		return nil
	}

	if err := inv.UpscaleDir(context.Background(), Request{Plan: plan, Input: src, Output: dst}); err != nil {
		t.Fatalf("UpscaleDir: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("output directory should exist: %v", err)
	}
}

func TestUpscaleMissingBinaryConfiguration(t *testing.T) {
	plan, err := Resolve(ModelCunet, 2)
	if err != nil {
		t.Fatal(err)
	}
	inv := NewInvoker("", "realesrgan-ncnn-vulkan")
	err = inv.UpscaleFile(context.Background(), Request{Plan: plan, Input: "in.png", Output: "out.png"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
