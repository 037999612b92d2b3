package transcode

import (
	"fmt"
	"strconv"
)

// audioCodecFor maps a container onto its audio encoder for re-encoding.
func audioCodecFor(container string) string {
	if container == ContainerWebM {
		return "libopus"
	}
	return "aac"
}

// AudioArgs decides audio stream handling. Streams are copied verbatim when
// the output container matches the input container; otherwise they are
// re-encoded with a bitrate proportional to their channel count. channels
// holds the channel count of each audio stream in order.
func AudioArgs(skip bool, outputContainer, inputContainer string, channels []int, kbpsPerChannel int) []string {
	if skip || len(channels) == 0 || outputContainer == ContainerGIF {
		return []string{"-an"}
	}
	if outputContainer == inputContainer {
		return []string{"-c:a", "copy"}
	}
	argv := []string{"-c:a", audioCodecFor(outputContainer)}
	for i, ch := range channels {
		if ch < 1 {
			ch = 2
		}
		argv = append(argv,
			fmt.Sprintf("-b:a:%d", i),
			strconv.Itoa(ch*kbpsPerChannel)+"k",
		)
	}
	return argv
}

// StreamMaps builds the -map fragment. The upscaled frames are input 0, the
// original file input 1. Subtitles and attachments ride along only into mkv.
func StreamMaps(container string, hasAudio, skipAudio, hasSubtitles bool) []string {
	maps := []string{"-map", "0:v:0"}
	if container == ContainerGIF {
		return maps
	}
	if hasAudio && !skipAudio {
		maps = append(maps, "-map", "1:a")
	}
	if container == ContainerMKV && hasSubtitles {
		maps = append(maps, "-map", "1:s", "-c:s", "copy", "-map", "1:t?")
	}
	return maps
}
