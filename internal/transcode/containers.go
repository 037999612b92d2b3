package transcode

import "loupe/internal/config"

// Output containers.
const (
	ContainerMP4  = "mp4"
	ContainerMKV  = "mkv"
	ContainerWebM = "webm"
	ContainerGIF  = "gif"
)

// SupportedContainer reports whether name is a container this tool can write.
func SupportedContainer(name string) bool {
	switch name {
	case ContainerMP4, ContainerMKV, ContainerWebM, ContainerGIF:
		return true
	}
	return false
}

// ResolveContainer picks the output container. Subtitle preservation wins
// over everything else and forces mkv, the only writable container that
// carries subtitle streams alongside any codec. Otherwise a supported input
// container is inherited when configured, falling back to the preferred one.
func ResolveContainer(inputContainer string, hasSubtitles, ensureSubtitles, inherit bool, preferred string) string {
	if hasSubtitles && ensureSubtitles {
		return ContainerMKV
	}
	if inherit && SupportedContainer(inputContainer) {
		return inputContainer
	}
	return preferred
}

// CodecFor maps a container onto the configured codec for it.
func CodecFor(container string, video config.Video) string {
	switch container {
	case ContainerMP4:
		return video.MP4Codec
	case ContainerMKV:
		return video.MKVCodec
	case ContainerWebM:
		return video.WebMCodec
	case ContainerGIF:
		return "gif"
	}
	return ""
}
