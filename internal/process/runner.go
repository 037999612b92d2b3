// Package process spawns the external binaries the pipeline depends on and
// normalizes their failure modes.
//
// Run streams combined stdout/stderr to the caller as it arrives and reports
// failures as either SpawnError (the process never ran) or ExitCodeError (the
// process ran and exited nonzero, carrying the last captured output). Retries
// are the caller's decision.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// SpawnError indicates the binary could not be started at all.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ExitCodeError indicates the process ran and exited nonzero. Output holds the
// tail of the captured output, preferring stderr over stdout.
type ExitCodeError struct {
	Binary string
	Code   int
	Output string
}

func (e *ExitCodeError) Error() string {
	if strings.TrimSpace(e.Output) == "" {
		return fmt.Sprintf("%s exited with code %d", e.Binary, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.Code, strings.TrimSpace(e.Output))
}

// Command describes one external process invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	// OnOutput receives combined stdout/stderr chunks as they arrive.
	OnOutput func(chunk string)
}

const outputTailLimit = 4096

var commandContext = exec.CommandContext

// Run spawns the command and blocks until it exits. The context cancels the
// process. A nil error means the process exited zero.
func Run(ctx context.Context, command Command) error {
	cmd := commandContext(ctx, command.Binary, command.Args...)
	cmd.Dir = command.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &SpawnError{Binary: command.Binary, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &SpawnError{Binary: command.Binary, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &SpawnError{Binary: command.Binary, Err: err}
	}

	// A killed child can leave a grandchild holding the pipe write ends, in
	// which case the readers never see EOF. Closing the read ends on
	// cancellation unblocks them with os.ErrClosed.
	watcherDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stdout.Close()
			stderr.Close()
		case <-watcherDone:
		}
	}()
	defer close(watcherDone)

	var (
		mu      sync.Mutex
		outTail tail
		errTail tail
	)
	forward := func(reader io.Reader, captured *tail) error {
		buf := make([]byte, 8192)
		for {
			n, readErr := reader.Read(buf)
			if n > 0 {
				chunk := string(buf[:n])
				mu.Lock()
				captured.write(chunk)
				if command.OnOutput != nil {
					command.OnOutput(chunk)
				}
				mu.Unlock()
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) || errors.Is(readErr, os.ErrClosed) {
					return nil
				}
				return readErr
			}
		}
	}
	var readers errgroup.Group
	readers.Go(func() error { return forward(stdout, &outTail) })
	readers.Go(func() error { return forward(stderr, &errTail) })
	readErr := readers.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output := errTail.String()
			if strings.TrimSpace(output) == "" {
				output = outTail.String()
			}
			return &ExitCodeError{Binary: command.Binary, Code: exitErr.ExitCode(), Output: output}
		}
		return &SpawnError{Binary: command.Binary, Err: err}
	}
	if readErr != nil {
		return fmt.Errorf("read %s output: %w", command.Binary, readErr)
	}
	return nil
}

// tail retains the last outputTailLimit bytes written to it.
type tail struct {
	data []byte
}

func (t *tail) write(chunk string) {
	t.data = append(t.data, chunk...)
	if len(t.data) > outputTailLimit {
		t.data = t.data[len(t.data)-outputTailLimit:]
	}
}

func (t *tail) String() string {
	return string(t.data)
}
