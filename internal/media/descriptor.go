// Package media classifies input files into the image/video descriptors the
// pipeline dispatches on, using ffprobe as the prober.
package media

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"loupe/internal/media/ffprobe"
	"loupe/internal/services"
)

// Kind discriminates the two media families the pipeline handles.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// AudioStream describes one audio stream of a video input.
type AudioStream struct {
	Index    int
	Codec    string
	Channels int
}

// SubtitleStream describes one subtitle stream of a video input.
type SubtitleStream struct {
	Index int
	Codec string
}

// Descriptor is the read-only description of one input file, produced by the
// prober and consumed by the pipeline for the lifetime of a single job.
type Descriptor struct {
	Kind       Kind
	Path       string
	Container  string
	FormatName string
	Width      int
	Height     int

	// Video-only fields.
	FrameRate   float64
	Duration    time.Duration
	Audio       []AudioStream
	Subtitles   []SubtitleStream
	Attachments int
}

// HasSubtitles reports whether the input carries any subtitle stream.
func (d *Descriptor) HasSubtitles() bool {
	return d != nil && len(d.Subtitles) > 0
}

// imageFormats maps ffprobe image demuxer names to a marker. The container is
// derived from the codec, not the demuxer.
var imageFormats = map[string]bool{
	"image2":    true,
	"png_pipe":  true,
	"jpeg_pipe": true,
	"webp_pipe": true,
	"bmp_pipe":  true,
	"tiff_pipe": true,
}

var imageCodecContainers = map[string]string{
	"png":   "png",
	"mjpeg": "jpg",
	"jpeg":  "jpg",
	"webp":  "webp",
	"bmp":   "bmp",
	"tiff":  "tiff",
}

// Classify probes path with ffprobe and builds a Descriptor.
func Classify(ctx context.Context, ffprobeBinary, path string) (*Descriptor, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "probe", "inspect input", "", err)
	}
	return FromProbe(path, result)
}

// FromProbe builds a Descriptor from an already-parsed probe result.
func FromProbe(path string, result ffprobe.Result) (*Descriptor, error) {
	video := result.FirstVideoStream()
	if video == nil {
		return nil, services.Wrap(services.ErrUnsupportedInput, "probe", "classify", "no image or video stream found", nil)
	}

	formatName := strings.ToLower(strings.TrimSpace(result.Format.FormatName))
	descriptor := &Descriptor{
		Path:       path,
		FormatName: formatName,
		Width:      video.Width,
		Height:     video.Height,
	}

	if imageFormats[formatName] {
		descriptor.Kind = KindImage
		descriptor.Container = imageCodecContainers[strings.ToLower(video.CodecName)]
		if descriptor.Container == "" {
			descriptor.Container = strings.TrimSuffix(formatName, "_pipe")
		}
		return descriptor, nil
	}

	descriptor.Kind = KindVideo
	descriptor.Container = normalizeVideoContainer(formatName, path, len(result.SubtitleStreams()) > 0)
	descriptor.FrameRate = result.FrameRate()
	descriptor.Duration = time.Duration(result.DurationSeconds() * float64(time.Second))
	for _, stream := range result.AudioStreams() {
		descriptor.Audio = append(descriptor.Audio, AudioStream{Index: stream.Index, Codec: stream.CodecName, Channels: stream.Channels})
	}
	for _, stream := range result.SubtitleStreams() {
		descriptor.Subtitles = append(descriptor.Subtitles, SubtitleStream{Index: stream.Index, Codec: stream.CodecName})
	}
	descriptor.Attachments = len(result.AttachmentStreams())

	if descriptor.Duration <= 0 && formatName != "gif" {
		return nil, services.Wrap(services.ErrUnsupportedInput, "probe", "classify", "input has a video stream but no duration", nil)
	}
	return descriptor, nil
}

// normalizeVideoContainer maps ffprobe's comma-separated demuxer names onto a
// single container identifier. The matroska demuxer reports "matroska,webm"
// for both mkv and webm sources; the extension and subtitle presence decide.
func normalizeVideoContainer(formatName, path string, hasSubtitles bool) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case strings.HasPrefix(formatName, "matroska"):
		if ext == "webm" && !hasSubtitles {
			return "webm"
		}
		return "mkv"
	case strings.HasPrefix(formatName, "mov,mp4"):
		if ext == "mov" {
			return "mov"
		}
		return "mp4"
	case formatName == "gif":
		return "gif"
	}
	if first, _, ok := strings.Cut(formatName, ","); ok {
		return first
	}
	return formatName
}
