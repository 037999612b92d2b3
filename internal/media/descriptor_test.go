package media

import (
	"errors"
	"testing"
	"time"

	"loupe/internal/media/ffprobe"
	"loupe/internal/services"
)

func mustParse(t *testing.T, payload string) ffprobe.Result {
	t.Helper()
	result, err := ffprobe.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse probe payload: %v", err)
	}
	return result
}

func TestFromProbeImage(t *testing.T) {
	result := mustParse(t, `{
		"streams": [{"codec_name": "png", "codec_type": "video", "width": 640, "height": 480}],
		"format": {"format_name": "png_pipe"}
	}`)

	descriptor, err := FromProbe("/tmp/in.png", result)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if descriptor.Kind != KindImage {
		t.Fatalf("expected image, got %s", descriptor.Kind)
	}
	if descriptor.Container != "png" {
		t.Fatalf("expected png container, got %q", descriptor.Container)
	}
	if descriptor.Width != 640 || descriptor.Height != 480 {
		t.Fatalf("unexpected dimensions %dx%d", descriptor.Width, descriptor.Height)
	}
}

func TestFromProbeJPEGViaImage2(t *testing.T) {
	result := mustParse(t, `{
		"streams": [{"codec_name": "mjpeg", "codec_type": "video", "width": 100, "height": 50}],
		"format": {"format_name": "image2"}
	}`)

	descriptor, err := FromProbe("/tmp/photo.jpg", result)
	if err != nil {
		t.Fatal(err)
	}
	if descriptor.Kind != KindImage || descriptor.Container != "jpg" {
		t.Fatalf("expected jpg image, got %s/%s", descriptor.Kind, descriptor.Container)
	}
}

func TestFromProbeVideo(t *testing.T) {
	result := mustParse(t, `{
		"streams": [
			{"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "24/1"},
			{"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 2}
		],
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "60.0"}
	}`)

	descriptor, err := FromProbe("/tmp/in.mp4", result)
	if err != nil {
		t.Fatal(err)
	}
	if descriptor.Kind != KindVideo {
		t.Fatalf("expected video, got %s", descriptor.Kind)
	}
	if descriptor.Container != "mp4" {
		t.Fatalf("expected mp4, got %q", descriptor.Container)
	}
	if descriptor.Duration != time.Minute {
		t.Fatalf("expected 1m duration, got %s", descriptor.Duration)
	}
	if descriptor.FrameRate != 24 {
		t.Fatalf("expected 24fps, got %f", descriptor.FrameRate)
	}
	if len(descriptor.Audio) != 1 || descriptor.Audio[0].Channels != 2 {
		t.Fatalf("unexpected audio streams: %#v", descriptor.Audio)
	}
}

func TestMatroskaDisambiguation(t *testing.T) {
	cases := []struct {
		name      string
		path      string
		subtitles string
		want      string
	}{
		{"webm extension", "/tmp/clip.webm", "", "webm"},
		{"mkv extension", "/tmp/clip.mkv", "", "mkv"},
		{"webm extension with subtitles", "/tmp/clip.webm", `,{"index":2,"codec_name":"subrip","codec_type":"subtitle"}`, "mkv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := mustParse(t, `{
				"streams": [
					{"index": 0, "codec_name": "vp9", "codec_type": "video", "width": 640, "height": 360, "avg_frame_rate": "30/1"}`+tc.subtitles+`
				],
				"format": {"format_name": "matroska,webm", "duration": "5.0"}
			}`)
			descriptor, err := FromProbe(tc.path, result)
			if err != nil {
				t.Fatal(err)
			}
			if descriptor.Container != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, descriptor.Container)
			}
		})
	}
}

func TestGIFIsVideo(t *testing.T) {
	result := mustParse(t, `{
		"streams": [{"codec_name": "gif", "codec_type": "video", "width": 320, "height": 240, "avg_frame_rate": "10/1"}],
		"format": {"format_name": "gif"}
	}`)
	descriptor, err := FromProbe("/tmp/anim.gif", result)
	if err != nil {
		t.Fatal(err)
	}
	if descriptor.Kind != KindVideo || descriptor.Container != "gif" {
		t.Fatalf("expected gif video, got %s/%s", descriptor.Kind, descriptor.Container)
	}
}

func TestFromProbeRejectsAudioOnly(t *testing.T) {
	result := mustParse(t, `{
		"streams": [{"codec_name": "mp3", "codec_type": "audio", "channels": 2}],
		"format": {"format_name": "mp3", "duration": "30.0"}
	}`)
	_, err := FromProbe("/tmp/song.mp3", result)
	if err == nil {
		t.Fatal("expected unsupported input error")
	}
	if !errors.Is(err, services.ErrUnsupportedInput) {
		t.Fatalf("expected ErrUnsupportedInput, got %v", err)
	}
}
