// Package ffmpeg builds and runs the ffmpeg commands used by dsconvert.
//
// [Build] produces the transcode argument list for one file: re-encode video
// with the configured encoder, copy audio, overwrite the staging output.
// [Executor] runs an argument list with stderr captured and turns a failed
// run into an [*ExecError] that carries the exit code and the stderr text.
// [Classify] maps that stderr onto a short human-readable reason for logs.
package ffmpeg
