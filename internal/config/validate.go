package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var threadsPattern = regexp.MustCompile(`^\d+:\d+:\d+$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUpscale(); err != nil {
		return err
	}
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUpscale() error {
	if c.Upscale.Scale < 1 || c.Upscale.Scale > 32 {
		return errors.New("upscale.scale must be between 1 and 32")
	}
	if c.Upscale.Denoise < -1 || c.Upscale.Denoise > 3 {
		return errors.New("upscale.denoise must be between -1 and 3")
	}
	if c.Upscale.TileSize != 0 && c.Upscale.TileSize < 32 {
		return errors.New("upscale.tile_size must be 0 (auto) or at least 32")
	}
	if !threadsPattern.MatchString(c.Upscale.Threads) {
		return fmt.Errorf("upscale.threads must look like load:proc:save (e.g. %q)", defaultThreads)
	}
	if c.Upscale.GPU != "auto" {
		for _, r := range c.Upscale.GPU {
			if (r < '0' || r > '9') && r != '-' && r != ',' {
				return fmt.Errorf("upscale.gpu must be %q or a device id list, got %q", "auto", c.Upscale.GPU)
			}
		}
	}
	return nil
}

func (c *Config) validateImage() error {
	switch c.Image.OutputFormat {
	case "png", "jpg", "webp":
	default:
		return fmt.Errorf("image.output_format must be png, jpg, or webp, got %q", c.Image.OutputFormat)
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return errors.New("image.jpeg_quality must be between 1 and 100")
	}
	if c.Image.WebpQuality < 1 || c.Image.WebpQuality > 100 {
		return errors.New("image.webp_quality must be between 1 and 100")
	}
	if !strings.HasPrefix(c.Image.Background, "#") || (len(c.Image.Background) != 7 && len(c.Image.Background) != 4) {
		return fmt.Errorf("image.background must be a hex color like #ffffff, got %q", c.Image.Background)
	}
	return nil
}

func (c *Config) validateVideo() error {
	switch c.Video.FrameFormat {
	case "png", "mjpeg":
	default:
		return fmt.Errorf("video.frame_format must be png or mjpeg, got %q", c.Video.FrameFormat)
	}
	switch c.Video.PreferredContainer {
	case "mp4", "mkv", "webm", "gif":
	default:
		return fmt.Errorf("video.preferred_container must be mp4, mkv, webm, or gif, got %q", c.Video.PreferredContainer)
	}
	switch c.Video.MP4Codec {
	case "h264", "h265":
	default:
		return fmt.Errorf("video.mp4_codec must be h264 or h265, got %q", c.Video.MP4Codec)
	}
	switch c.Video.MKVCodec {
	case "h264", "h265", "vp8", "vp9", "av1":
	default:
		return fmt.Errorf("video.mkv_codec must be h264, h265, vp8, vp9, or av1, got %q", c.Video.MKVCodec)
	}
	switch c.Video.WebMCodec {
	case "vp8", "vp9", "av1":
	default:
		return fmt.Errorf("video.webm_codec must be vp8, vp9, or av1, got %q", c.Video.WebMCodec)
	}
	if c.Video.MJPEGQuality < 1 || c.Video.MJPEGQuality > 31 {
		return errors.New("video.mjpeg_quality must be between 1 and 31")
	}
	if c.Video.GIF.Colors < 2 || c.Video.GIF.Colors > 256 {
		return errors.New("video.gif.colors must be between 2 and 256")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
