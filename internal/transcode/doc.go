// Package transcode holds the ffmpeg decision tables: which container an
// output gets, which codec serves that container, and the argument fragments
// that configure each encoder. Everything here is pure argument construction;
// running ffmpeg is the pipeline's job.
package transcode
