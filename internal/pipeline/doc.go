// Package pipeline converts the collected video files of a dataset tree.
//
// Each [Job] moves through Pending, Running and then exactly one of
// Completed, Skipped or Failed. A [Converter] handles one job: skip check,
// ffmpeg run into a staging file, optional verification, atomic rename onto
// the destination. A [Pool] runs every job with bounded concurrency and
// gathers [Result]s in completion order into [RunStats]. [Run] wires
// collection, conversion and the summary together for the videos command.
package pipeline
