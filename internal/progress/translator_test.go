package progress

import "testing"

type recorder struct {
	completed []int64
	total     []int64
}

func (r *recorder) Progress(completed, total int64) {
	r.completed = append(r.completed, completed)
	r.total = append(r.total, total)
}

func (r *recorder) last() (int64, int64) {
	if len(r.completed) == 0 {
		return -1, -1
	}
	return r.completed[len(r.completed)-1], r.total[len(r.total)-1]
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1:30:40.500", 5_440_500},
		{"00:00.250", 250},
		{"45", 45_000},
		{"0:01:00", 60_000},
		{"10:00:00", 36_000_000},
		{"00:00:00.00", 0},
		{"1:02:03.04", 3_723_040},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "a:b:c", "1:2:3:4", "ten"} {
		if _, err := ParseTimestamp(input); err == nil {
			t.Errorf("ParseTimestamp(%q): expected error", input)
		}
	}
}

func TestPercentTranslator(t *testing.T) {
	rec := &recorder{}
	tr := NewPercentTranslator(rec)

	tr.Ingest("12.34%\n")
	if c, total := rec.last(); c != 12 || total != 100 {
		t.Fatalf("got (%d, %d), want (12, 100)", c, total)
	}

	tr.Ingest("50.00%\n87.50%\n")
	if c, _ := rec.last(); c != 88 {
		t.Fatalf("expected last match to win, got %d", c)
	}

	tr.Ingest("no percentage here\n")
	if c, _ := rec.last(); c != 88 {
		t.Fatalf("chunk without percentage must not report, got %d", c)
	}

	tr.Ingest("150%\n")
	if c, _ := rec.last(); c != 100 {
		t.Fatalf("expected clamp to 100, got %d", c)
	}
}

func TestFFmpegTranslatorDurationThenTime(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)

	tr.Ingest("Input #0, matroska,webm, from 'in.mkv':\n")
	tr.Ingest("  Duration: 00:01:30.50, start: 0.000000, bitrate: 1000 kb/s\n")
	if len(rec.completed) != 0 {
		t.Fatal("preamble alone must not report progress")
	}

	tr.Ingest("frame=  100 fps=25 q=28.0 size=    512KiB time=00:00:04.00 bitrate=1048kbits/s\r")
	c, total := rec.last()
	if c != 4_000 || total != 90_500 {
		t.Fatalf("got (%d, %d), want (4000, 90500)", c, total)
	}
}

func TestFFmpegTranslatorFreezesDurationAfterFirstProgressLine(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)

	tr.Ingest("Duration: 00:01:30.00\n")
	tr.Ingest("frame=1 size=10KiB time=00:00:01.00\r")
	tr.Ingest("Duration: 00:09:00.00\nframe=2 size=20KiB time=00:00:02.00\r")

	_, total := rec.last()
	if total != 90_000 {
		t.Fatalf("later Duration must be ignored, got total %d", total)
	}
}

func TestFFmpegTranslatorDropsElapsedPastTotal(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)

	tr.Ingest("Duration: 00:00:10.00\n")
	tr.Ingest("frame=100 size=50KiB time=00:00:08.00\r")
	tr.Ingest("frame=999 size=90KiB time=00:00:12.00\r")

	if len(rec.completed) != 1 {
		t.Fatalf("timestamp past the duration must not report, got %d events", len(rec.completed))
	}
	c, total := rec.last()
	if c != 8_000 || total != 10_000 {
		t.Fatalf("expected last event (8000, 10000), got (%d, %d)", c, total)
	}
}

func TestFFmpegTranslatorTimeSplitAcrossChunks(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)

	tr.Ingest("Duration: 00:00:30.00\n")
	tr.Ingest("frame=50 size=40KiB time=00:0")
	tr.Ingest("0:05.00 bitrate=900kbits/s\r")

	c, _ := rec.last()
	if c != 5_000 {
		t.Fatalf("split time field must resolve once complete, got %d", c)
	}
}

func TestPercentTranslatorForwardsNonProgressLines(t *testing.T) {
	rec := &recorder{}
	tr := NewPercentTranslator(rec)

	var lines []string
	tr.SetLogSink(func(line string) { lines = append(lines, line) })

	tr.Ingest("invalid gpu device\n42%\n")
	if len(lines) != 1 || lines[0] != "invalid gpu device" {
		t.Fatalf("unexpected forwarded lines: %v", lines)
	}
	if c, _ := rec.last(); c != 42 {
		t.Fatalf("progress line must still report, got %d", c)
	}
}

func TestFFmpegTranslatorForwardsDiagnostics(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)

	var lines []string
	tr.SetLogSink(func(line string) { lines = append(lines, line) })

	tr.Ingest("Stream #0:0: Video: h264\nDuration: 00:00:10.00\nframe=1 size=1KiB time=00:00:01.00\r")
	if len(lines) != 1 || lines[0] != "Stream #0:0: Video: h264" {
		t.Fatalf("unexpected forwarded lines: %v", lines)
	}
	if c, _ := rec.last(); c != 1_000 {
		t.Fatalf("progress line must still report, got %d", c)
	}
}

func TestFFmpegTranslatorSetTotal(t *testing.T) {
	rec := &recorder{}
	tr := NewFFmpegTranslator(rec)
	tr.SetTotal(20_000)

	tr.Ingest("frame=10 size=5KiB time=00:00:08.00\r")
	c, total := rec.last()
	if c != 8_000 || total != 20_000 {
		t.Fatalf("got (%d, %d), want (8000, 20000)", c, total)
	}
}
