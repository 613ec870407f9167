// Package probe runs ffprobe and parses its JSON output into typed results.
//
// dsconvert uses it to check a freshly encoded staging file before it is
// renamed over the destination: the output must carry a video stream in the
// expected codec and last as long as its source, within a tolerance.
package probe
