// Package progress normalizes the text progress output of external tools into
// (completed, total) pairs.
//
// Two vocabularies are understood: the bare percentage lines printed by the
// ncnn upscaler binaries, and the Duration/time fields printed by ffmpeg.
// Translators are fed raw output chunks as they arrive and invoke a Reporter
// whenever a new reading is available.
package progress
