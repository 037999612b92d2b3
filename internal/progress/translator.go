package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Reporter receives normalized progress readings. Total may be zero while it
// is still unknown.
type Reporter interface {
	Progress(completed, total int64)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(completed, total int64)

func (f ReporterFunc) Progress(completed, total int64) { f(completed, total) }

// lineBufferLimit caps the partial-line buffer so a tool that never prints a
// terminator cannot grow it without bound.
const lineBufferLimit = 1000

// lineAssembler turns arbitrary output chunks into complete lines. Both \n
// and \r terminate a line; ffmpeg rewrites its status line with bare carriage
// returns.
type lineAssembler struct {
	partial string
}

func (a *lineAssembler) feed(chunk string) []string {
	a.partial += chunk
	if idx := strings.LastIndexAny(a.partial, "\r\n"); idx >= 0 {
		complete := a.partial[:idx]
		a.partial = a.partial[idx+1:]
		lines := strings.FieldsFunc(complete, func(r rune) bool { return r == '\r' || r == '\n' })
		if len(a.partial) > lineBufferLimit {
			a.partial = a.partial[len(a.partial)-lineBufferLimit:]
		}
		return lines
	}
	if len(a.partial) > lineBufferLimit {
		a.partial = a.partial[len(a.partial)-lineBufferLimit:]
	}
	return nil
}

var percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

// PercentTranslator reads the bare percentage output of the ncnn upscaler
// binaries and reports completion out of 100. Lines that carry no percentage
// go to the log sink untouched.
type PercentTranslator struct {
	reporter  Reporter
	log       func(line string)
	assembler lineAssembler
}

func NewPercentTranslator(reporter Reporter) *PercentTranslator {
	return &PercentTranslator{reporter: reporter}
}

// SetLogSink routes non-progress lines to fn.
func (t *PercentTranslator) SetLogSink(fn func(line string)) { t.log = fn }

// Ingest consumes a raw output chunk.
func (t *PercentTranslator) Ingest(chunk string) {
	for _, line := range t.assembler.feed(chunk) {
		matches := percentPattern.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			t.forward(line)
			continue
		}
		value, err := strconv.ParseFloat(matches[len(matches)-1][1], 64)
		if err != nil {
			t.forward(line)
			continue
		}
		completed := int64(math.Round(value))
		if completed < 0 {
			continue
		}
		if completed > 100 {
			completed = 100
		}
		t.reporter.Progress(completed, 100)
	}
}

func (t *PercentTranslator) forward(line string) {
	if t.log != nil && strings.TrimSpace(line) != "" {
		t.log(line)
	}
}

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+:\d+:\d+(?:\.\d+)?)`)
	timePattern     = regexp.MustCompile(`time=\s*(\d+(?::\d+){0,2}(?:\.\d+)?)`)
)

// FFmpegTranslator reads ffmpeg's stderr stream. The total duration comes
// from the stream preamble; progress lines carry a time= field. Once the
// first progress line is seen the duration is frozen, so Duration fields
// printed later (chapters, attached streams) cannot overwrite it. Preamble
// and diagnostic lines go to the log sink untouched.
type FFmpegTranslator struct {
	reporter  Reporter
	log       func(line string)
	assembler lineAssembler
	totalMs   int64
	sealed    bool
}

func NewFFmpegTranslator(reporter Reporter) *FFmpegTranslator {
	return &FFmpegTranslator{reporter: reporter}
}

// SetLogSink routes non-progress lines to fn.
func (t *FFmpegTranslator) SetLogSink(fn func(line string)) { t.log = fn }

// SetTotal seeds the total duration in milliseconds, for callers that already
// probed the input. The preamble scan still runs until the first progress line.
func (t *FFmpegTranslator) SetTotal(ms int64) {
	if ms > 0 {
		t.totalMs = ms
	}
}

// Ingest consumes a raw stderr chunk.
func (t *FFmpegTranslator) Ingest(chunk string) {
	for _, line := range t.assembler.feed(chunk) {
		t.ingestLine(line)
	}
}

func (t *FFmpegTranslator) ingestLine(line string) {
	if !t.sealed {
		if m := durationPattern.FindStringSubmatch(line); m != nil {
			if ms, err := ParseTimestamp(m[1]); err == nil && ms > 0 {
				t.totalMs = ms
			}
			return
		}
	}

	if !strings.HasPrefix(line, "frame=") && !strings.HasPrefix(line, "size=") {
		t.forward(line)
		return
	}
	t.sealed = true

	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	elapsed, err := ParseTimestamp(m[1])
	if err != nil {
		return
	}
	// A timestamp past the known duration is malformed output, not progress.
	if t.totalMs > 0 && elapsed > t.totalMs {
		return
	}
	t.reporter.Progress(elapsed, t.totalMs)
}

func (t *FFmpegTranslator) forward(line string) {
	if t.log != nil && strings.TrimSpace(line) != "" {
		t.log(line)
	}
}
