package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Binaries contains the external tool paths the pipeline invokes.
type Binaries struct {
	Waifu2x    string `toml:"waifu2x"`
	RealESRGAN string `toml:"realesrgan"`
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
}

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Upscale contains the options handed to the upscaler binary.
type Upscale struct {
	Model   string `toml:"model"`
	Scale   int    `toml:"scale"`
	Denoise int    `toml:"denoise"`
	// TileSize trades GPU memory for throughput; 0 lets the binary pick.
	TileSize int    `toml:"tile_size"`
	GPU      string `toml:"gpu"`
	Threads  string `toml:"threads"`
	TTA      bool   `toml:"tta"`
}

// Image contains output settings for the image pipeline.
type Image struct {
	OutputFormat string `toml:"output_format"`
	JPEGQuality  int    `toml:"jpeg_quality"`
	WebpQuality  int    `toml:"webp_quality"`
	WebpPreset   string `toml:"webp_preset"`
	// Background flattens transparency when encoding to jpg.
	Background string `toml:"background"`
}

// H264 mirrors libx264/libx265 encoder knobs.
type H264 struct {
	Preset  string `toml:"preset"`
	Tune    string `toml:"tune"`
	Profile string `toml:"profile"`
	CRF     int    `toml:"crf"`
}

// VPx mirrors libvpx/libvpx-vp9 encoder knobs.
type VPx struct {
	CRF     int  `toml:"crf"`
	QMin    int  `toml:"qmin"`
	QMax    int  `toml:"qmax"`
	Speed   int  `toml:"speed"`
	TwoPass bool `toml:"two_pass"`
	// MultiThreading enables tile columns plus row-mt (vp9 only).
	MultiThreading bool `toml:"multithreading"`
}

// AV1 mirrors libaom-av1 encoder knobs. TargetBitrate switches the encoder
// from constant-quality to bitrate mode when nonzero.
type AV1 struct {
	CRF              int    `toml:"crf"`
	QMin             int    `toml:"qmin"`
	QMax             int    `toml:"qmax"`
	TargetBitrate    string `toml:"target_bitrate"`
	KeyframeInterval int    `toml:"keyframe_interval"`
	MultiThreading   bool   `toml:"multithreading"`
	TwoPass          bool   `toml:"two_pass"`
}

// GIF contains palette settings for gif output.
type GIF struct {
	Colors int    `toml:"colors"`
	Dither string `toml:"dither"`
}

// Video contains output settings for the video pipeline.
type Video struct {
	// FrameFormat is the intermediate frame encoding: png (lossless) or mjpeg.
	FrameFormat        string `toml:"frame_format"`
	MJPEGQuality       int    `toml:"mjpeg_quality"`
	InheritContainer   bool   `toml:"inherit_container"`
	PreferredContainer string `toml:"preferred_container"`
	EnsureSubtitles    bool   `toml:"ensure_subtitles"`
	SkipAudio          bool   `toml:"skip_audio"`
	// Per-container codec choice. mp4 takes h264 or h265; mkv additionally
	// takes vp8, vp9, and av1; webm takes vp8, vp9, or av1.
	MP4Codec  string `toml:"mp4_codec"`
	MKVCodec  string `toml:"mkv_codec"`
	WebMCodec string `toml:"webm_codec"`
	// AudioBitratePerChannel is the kbps-per-channel rate used when audio
	// cannot be stream-copied between containers.
	AudioBitratePerChannel int `toml:"audio_bitrate_per_channel"`

	H264 H264 `toml:"h264"`
	H265 H264 `toml:"h265"`
	VP8  VPx  `toml:"vp8"`
	VP9  VPx  `toml:"vp9"`
	AV1  AV1  `toml:"av1"`
	GIF  GIF  `toml:"gif"`
}

// Saving contains destination templating configuration.
type Saving struct {
	Destination       string `toml:"destination"`
	DeleteOriginal    bool   `toml:"delete_original"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Workspace contains temp-workspace housekeeping settings.
type Workspace struct {
	// StaleAfterHours controls how old an unlocked job directory must be
	// before `loupe clean` removes it.
	StaleAfterHours int `toml:"stale_after_hours"`
}

// Config is the root configuration object.
type Config struct {
	Binaries  Binaries  `toml:"binaries"`
	Paths     Paths     `toml:"paths"`
	Upscale   Upscale   `toml:"upscale"`
	Image     Image     `toml:"image"`
	Video     Video     `toml:"video"`
	Saving    Saving    `toml:"saving"`
	Logging   Logging   `toml:"logging"`
	Workspace Workspace `toml:"workspace"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/loupe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("loupe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
