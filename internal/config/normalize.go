package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBinaries()
	c.normalizeUpscale()
	c.normalizeImage()
	c.normalizeVideo()
	c.normalizeSaving()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBinaries() {
	if strings.TrimSpace(c.Binaries.Waifu2x) == "" {
		c.Binaries.Waifu2x = "waifu2x-ncnn-vulkan"
	}
	if strings.TrimSpace(c.Binaries.RealESRGAN) == "" {
		c.Binaries.RealESRGAN = "realesrgan-ncnn-vulkan"
	}
	if strings.TrimSpace(c.Binaries.FFmpeg) == "" {
		c.Binaries.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Binaries.FFprobe) == "" {
		c.Binaries.FFprobe = "ffprobe"
	}
}

func (c *Config) normalizeUpscale() {
	c.Upscale.Model = strings.ToLower(strings.TrimSpace(c.Upscale.Model))
	if c.Upscale.Model == "" {
		c.Upscale.Model = defaultModel
	}
	if c.Upscale.Scale == 0 {
		c.Upscale.Scale = defaultScale
	}
	c.Upscale.GPU = strings.ToLower(strings.TrimSpace(c.Upscale.GPU))
	if c.Upscale.GPU == "" {
		c.Upscale.GPU = defaultGPU
	}
	c.Upscale.Threads = strings.TrimSpace(c.Upscale.Threads)
	if c.Upscale.Threads == "" {
		c.Upscale.Threads = defaultThreads
	}
}

func (c *Config) normalizeImage() {
	c.Image.OutputFormat = strings.ToLower(strings.TrimSpace(c.Image.OutputFormat))
	if c.Image.OutputFormat == "jpeg" {
		c.Image.OutputFormat = "jpg"
	}
	if c.Image.OutputFormat == "" {
		c.Image.OutputFormat = defaultImageFormat
	}
	if c.Image.JPEGQuality == 0 {
		c.Image.JPEGQuality = defaultJPEGQuality
	}
	if c.Image.WebpQuality == 0 {
		c.Image.WebpQuality = defaultWebpQuality
	}
	c.Image.WebpPreset = strings.ToLower(strings.TrimSpace(c.Image.WebpPreset))
	if c.Image.WebpPreset == "" {
		c.Image.WebpPreset = defaultWebpPreset
	}
	c.Image.Background = strings.TrimSpace(c.Image.Background)
	if c.Image.Background == "" {
		c.Image.Background = defaultBackground
	}
}

func (c *Config) normalizeVideo() {
	c.Video.FrameFormat = strings.ToLower(strings.TrimSpace(c.Video.FrameFormat))
	if c.Video.FrameFormat == "" {
		c.Video.FrameFormat = defaultFrameFormat
	}
	if c.Video.MJPEGQuality == 0 {
		c.Video.MJPEGQuality = defaultMJPEGQuality
	}
	c.Video.PreferredContainer = strings.ToLower(strings.TrimSpace(c.Video.PreferredContainer))
	if c.Video.PreferredContainer == "" {
		c.Video.PreferredContainer = defaultPreferredContainer
	}
	if c.Video.AudioBitratePerChannel == 0 {
		c.Video.AudioBitratePerChannel = defaultAudioKbpsPerChan
	}
	c.Video.MP4Codec = strings.ToLower(strings.TrimSpace(c.Video.MP4Codec))
	if c.Video.MP4Codec == "" {
		c.Video.MP4Codec = "h264"
	}
	c.Video.MKVCodec = strings.ToLower(strings.TrimSpace(c.Video.MKVCodec))
	if c.Video.MKVCodec == "" {
		c.Video.MKVCodec = "h264"
	}
	c.Video.WebMCodec = strings.ToLower(strings.TrimSpace(c.Video.WebMCodec))
	if c.Video.WebMCodec == "" {
		c.Video.WebMCodec = "vp9"
	}
	c.Video.GIF.Dither = strings.ToLower(strings.TrimSpace(c.Video.GIF.Dither))
	if c.Video.GIF.Colors == 0 {
		c.Video.GIF.Colors = 256
	}
}

func (c *Config) normalizeSaving() {
	c.Saving.Destination = strings.TrimSpace(c.Saving.Destination)
	if c.Saving.Destination == "" {
		c.Saving.Destination = defaultDestination
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Workspace.StaleAfterHours <= 0 {
		c.Workspace.StaleAfterHours = defaultStaleAfterHours
	}
}
