package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunForwardsOutput(t *testing.T) {
	script := writeScript(t, "emit.sh", "printf 'hello '\nprintf 'world' 1>&2\n")

	var chunks []string
	err := Run(context.Background(), Command{
		Binary: script,
		OnOutput: func(chunk string) {
			chunks = append(chunks, chunk)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	combined := strings.Join(chunks, "")
	if !strings.Contains(combined, "hello") || !strings.Contains(combined, "world") {
		t.Fatalf("missing output, got %q", combined)
	}
}

func TestRunNonzeroExit(t *testing.T) {
	script := writeScript(t, "fail.sh", "echo 'tile allocation failed' 1>&2\nexit 3\n")

	err := Run(context.Background(), Command{Binary: script})
	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitCodeError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", exitErr.Code)
	}
	if !strings.Contains(exitErr.Output, "tile allocation failed") {
		t.Fatalf("expected stderr tail in output, got %q", exitErr.Output)
	}
}

func TestRunExitErrorPrefersStderr(t *testing.T) {
	script := writeScript(t, "both.sh", "echo 'progress 50%'\necho 'out of memory' 1>&2\nexit 1\n")

	err := Run(context.Background(), Command{Binary: script})
	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitCodeError, got %v", err)
	}
	if !strings.Contains(exitErr.Output, "out of memory") {
		t.Fatalf("expected stderr content, got %q", exitErr.Output)
	}
	if strings.Contains(exitErr.Output, "progress") {
		t.Fatalf("stdout should not win when stderr is nonempty, got %q", exitErr.Output)
	}
}

func TestRunExitErrorFallsBackToStdout(t *testing.T) {
	script := writeScript(t, "stdout.sh", "echo 'decode failed'\nexit 2\n")

	err := Run(context.Background(), Command{Binary: script})
	var exitErr *ExitCodeError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitCodeError, got %v", err)
	}
	if !strings.Contains(exitErr.Output, "decode failed") {
		t.Fatalf("expected stdout fallback, got %q", exitErr.Output)
	}
}

func TestRunMissingBinary(t *testing.T) {
	err := Run(context.Background(), Command{Binary: filepath.Join(t.TempDir(), "nope")})
	var spawnErr *SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
}

func TestRunContextCancelKillsProcess(t *testing.T) {
	script := writeScript(t, "sleep.sh", "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Run(ctx, Command{Binary: script})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("process was not killed promptly")
	}
}

func TestRunContextCancelWithLingeringGrandchild(t *testing.T) {
	// The backgrounded sleep inherits the pipe write ends and outlives the
	// killed shell, so Run must not wait for it to exit.
	script := writeScript(t, "spawn.sh", "sleep 60 &\nsleep 60\n")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Run(ctx, Command{Binary: script})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("Run did not return promptly after cancellation")
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, "pwd.sh", "pwd\n")

	var output strings.Builder
	err := Run(context.Background(), Command{
		Binary: script,
		Dir:    dir,
		OnOutput: func(chunk string) {
			output.WriteString(chunk)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(output.String(), filepath.Base(dir)) {
		t.Fatalf("expected working directory %q in output, got %q", dir, output.String())
	}
}
