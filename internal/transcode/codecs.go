package transcode

import (
	"fmt"
	"strconv"

	"loupe/internal/config"
	"loupe/internal/services"
)

// EncodeSpec selects a codec and, when two-pass is active, which pass is
// being built. Pass 0 means single pass.
type EncodeSpec struct {
	Codec   string
	Video   config.Video
	Pass    int
	PassLog string
}

// TwoPass reports whether the configured codec wants a two-pass encode.
// h264/h265 in crf mode gain nothing from two passes.
func TwoPass(codec string, video config.Video) bool {
	switch codec {
	case "vp8":
		return video.VP8.TwoPass
	case "vp9":
		return video.VP9.TwoPass
	case "av1":
		return video.AV1.TwoPass
	}
	return false
}

// CodecArgs builds the encoder argument fragment for a video stream. gif has
// no codec arguments; its encode is driven entirely by the palette filter
// chain.
func CodecArgs(spec EncodeSpec) ([]string, error) {
	var argv []string
	switch spec.Codec {
	case "h264":
		argv = x26xArgs("libx264", spec.Video.H264)
	case "h265":
		argv = x26xArgs("libx265", spec.Video.H265)
	case "vp8":
		argv = vpxArgs("libvpx", spec.Video.VP8)
	case "vp9":
		argv = vpxArgs("libvpx-vp9", spec.Video.VP9)
		if spec.Video.VP9.MultiThreading {
			argv = append(argv, "-row-mt", "1", "-tile-columns", "2")
		}
	case "av1":
		argv = av1Args(spec.Video.AV1)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcode", "codec args",
			fmt.Sprintf("unsupported codec %q", spec.Codec), nil)
	}
	argv = append(argv, passArgs(spec)...)
	return argv, nil
}

func x26xArgs(encoder string, opts config.H264) []string {
	argv := []string{"-c:v", encoder, "-preset", opts.Preset, "-crf", strconv.Itoa(opts.CRF)}
	if opts.Tune != "" {
		argv = append(argv, "-tune", opts.Tune)
	}
	if opts.Profile != "" && opts.Profile != "auto" {
		argv = append(argv, "-profile:v", opts.Profile)
	}
	return append(argv, "-pix_fmt", "yuv420p")
}

func vpxArgs(encoder string, opts config.VPx) []string {
	return []string{
		"-c:v", encoder,
		"-crf", strconv.Itoa(opts.CRF),
		// -b:v 0 keeps libvpx in constant-quality mode.
		"-b:v", "0",
		"-qmin", strconv.Itoa(opts.QMin),
		"-qmax", strconv.Itoa(opts.QMax),
		"-deadline", "good",
		"-cpu-used", strconv.Itoa(opts.Speed),
	}
}

func av1Args(opts config.AV1) []string {
	argv := []string{"-c:v", "libaom-av1"}
	if opts.TargetBitrate != "" {
		argv = append(argv, "-b:v", opts.TargetBitrate)
	} else {
		argv = append(argv,
			"-crf", strconv.Itoa(opts.CRF),
			"-b:v", "0",
			"-qmin", strconv.Itoa(opts.QMin),
			"-qmax", strconv.Itoa(opts.QMax),
		)
	}
	if opts.KeyframeInterval > 0 {
		argv = append(argv, "-g", strconv.Itoa(opts.KeyframeInterval))
	}
	if opts.MultiThreading {
		argv = append(argv, "-row-mt", "1")
	}
	return argv
}

func passArgs(spec EncodeSpec) []string {
	if spec.Pass == 0 {
		return nil
	}
	return []string{"-pass", strconv.Itoa(spec.Pass), "-passlogfile", spec.PassLog}
}
