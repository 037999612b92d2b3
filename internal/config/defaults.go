package config

const (
	defaultWorkDir            = "~/.cache/loupe/work"
	defaultLogDir             = "~/.local/share/loupe/logs"
	defaultModel              = "realesr-animevideov3"
	defaultScale              = 2
	defaultThreads            = "1:2:2"
	defaultGPU                = "auto"
	defaultImageFormat        = "png"
	defaultJPEGQuality        = 90
	defaultWebpQuality        = 90
	defaultWebpPreset         = "picture"
	defaultBackground         = "#ffffff"
	defaultFrameFormat        = "png"
	defaultMJPEGQuality       = 2
	defaultPreferredContainer = "mp4"
	defaultAudioKbpsPerChan   = 80
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultDestination        = "${dirname}/${basename} (upscaled).${ext}"
	defaultStaleAfterHours    = 24
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Binaries: Binaries{
			Waifu2x:    "waifu2x-ncnn-vulkan",
			RealESRGAN: "realesrgan-ncnn-vulkan",
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
		},
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Upscale: Upscale{
			Model:   defaultModel,
			Scale:   defaultScale,
			Denoise: 1,
			GPU:     defaultGPU,
			Threads: defaultThreads,
		},
		Image: Image{
			OutputFormat: defaultImageFormat,
			JPEGQuality:  defaultJPEGQuality,
			WebpQuality:  defaultWebpQuality,
			WebpPreset:   defaultWebpPreset,
			Background:   defaultBackground,
		},
		Video: Video{
			FrameFormat:            defaultFrameFormat,
			MJPEGQuality:           defaultMJPEGQuality,
			InheritContainer:       true,
			PreferredContainer:     defaultPreferredContainer,
			EnsureSubtitles:        true,
			MP4Codec:               "h264",
			MKVCodec:               "h264",
			WebMCodec:              "vp9",
			AudioBitratePerChannel: defaultAudioKbpsPerChan,
			H264: H264{
				Preset:  "medium",
				Profile: "auto",
				CRF:     20,
			},
			H265: H264{
				Preset:  "medium",
				Profile: "auto",
				CRF:     25,
			},
			VP8: VPx{
				CRF:   10,
				QMin:  4,
				QMax:  40,
				Speed: 1,
			},
			VP9: VPx{
				CRF:            30,
				QMin:           4,
				QMax:           40,
				Speed:          2,
				MultiThreading: true,
			},
			AV1: AV1{
				CRF:              30,
				QMin:             0,
				QMax:             63,
				KeyframeInterval: 240,
				MultiThreading:   true,
			},
			GIF: GIF{
				Colors: 256,
				Dither: "bayer",
			},
		},
		Saving: Saving{
			Destination: defaultDestination,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workspace: Workspace{
			StaleAfterHours: defaultStaleAfterHours,
		},
	}
}
