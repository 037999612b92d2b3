package transcode

import (
	"errors"
	"strings"
	"testing"

	"loupe/internal/config"
	"loupe/internal/services"
)

func argsString(t *testing.T, spec EncodeSpec) string {
	t.Helper()
	argv, err := CodecArgs(spec)
	if err != nil {
		t.Fatalf("CodecArgs: %v", err)
	}
	return strings.Join(argv, " ")
}

func TestCodecArgsH264(t *testing.T) {
	video := config.Default().Video
	got := argsString(t, EncodeSpec{Codec: "h264", Video: video})
	want := "-c:v libx264 -preset medium -crf 20 -pix_fmt yuv420p"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCodecArgsH265WithTuneAndProfile(t *testing.T) {
	video := config.Default().Video
	video.H265.Tune = "animation"
	video.H265.Profile = "main10"
	got := argsString(t, EncodeSpec{Codec: "h265", Video: video})
	if !strings.Contains(got, "-c:v libx265") {
		t.Fatalf("wrong encoder: %q", got)
	}
	if !strings.Contains(got, "-tune animation") || !strings.Contains(got, "-profile:v main10") {
		t.Fatalf("missing tune/profile: %q", got)
	}
}

func TestCodecArgsVP9(t *testing.T) {
	video := config.Default().Video
	got := argsString(t, EncodeSpec{Codec: "vp9", Video: video})
	for _, fragment := range []string{"-c:v libvpx-vp9", "-crf 30", "-b:v 0", "-row-mt 1"} {
		if !strings.Contains(got, fragment) {
			t.Errorf("missing %q in %q", fragment, got)
		}
	}
}

func TestCodecArgsAV1BitrateMode(t *testing.T) {
	video := config.Default().Video
	video.AV1.TargetBitrate = "2M"
	got := argsString(t, EncodeSpec{Codec: "av1", Video: video})
	if !strings.Contains(got, "-b:v 2M") {
		t.Fatalf("expected bitrate mode, got %q", got)
	}
	if strings.Contains(got, "-crf") {
		t.Fatalf("crf must be absent in bitrate mode, got %q", got)
	}
}

func TestCodecArgsTwoPassFragment(t *testing.T) {
	video := config.Default().Video
	got := argsString(t, EncodeSpec{Codec: "vp9", Video: video, Pass: 1, PassLog: "/tmp/pass"})
	if !strings.Contains(got, "-pass 1 -passlogfile /tmp/pass") {
		t.Fatalf("missing pass fragment: %q", got)
	}
}

func TestCodecArgsUnknownCodec(t *testing.T) {
	_, err := CodecArgs(EncodeSpec{Codec: "prores", Video: config.Default().Video})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTwoPass(t *testing.T) {
	video := config.Default().Video
	if TwoPass("h264", video) {
		t.Fatal("h264 never does two passes")
	}
	video.VP9.TwoPass = true
	if !TwoPass("vp9", video) {
		t.Fatal("vp9 two-pass flag ignored")
	}
}
