package ffmpeg

import (
	"github.com/backmassage/dsconvert/internal/config"
)

// Build constructs the complete ffmpeg argument slice for one transcode. The
// first element is the ffmpeg executable.
//
//	ffmpeg -hide_banner -nostdin -loglevel error -i <in> -c:v <codec> -c:a <audio> [extra...] -y <out>
func Build(t config.Transcode, in, out string) []string {
	args := make([]string, 0, 16+len(t.ExtraArgs))

	// --- Preamble ---
	args = append(args, t.FFmpeg, "-hide_banner", "-nostdin", "-loglevel", "error")

	// --- Input ---
	args = append(args, "-i", in)

	// --- Codecs ---
	args = append(args, "-c:v", t.VideoCodec, "-c:a", t.AudioCodec)
	args = append(args, t.ExtraArgs...)

	// --- Output ---
	args = append(args, "-y", out)
	return args
}

// BuildTestEncode returns the arguments for a one-second synthetic encode
// with the configured video encoder, discarding the output. It proves the
// encoder is compiled in and usable before a batch starts.
func BuildTestEncode(t config.Transcode) []string {
	return []string{
		t.FFmpeg,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", t.VideoCodec,
		"-f", "null", "-",
	}
}

// ExpectedCodecName maps an ffmpeg encoder name onto the codec name ffprobe
// reports for its output. Unknown encoders map onto themselves.
func ExpectedCodecName(encoder string) string {
	switch encoder {
	case "libx264", "libopenh264", "h264_nvenc", "h264_vaapi", "h264_qsv", "h264_videotoolbox":
		return "h264"
	case "libx265", "hevc_nvenc", "hevc_vaapi", "hevc_qsv":
		return "hevc"
	case "libsvtav1", "libaom-av1", "librav1e", "av1_nvenc":
		return "av1"
	case "libvpx-vp9":
		return "vp9"
	}
	return encoder
}

// ScalesVideo reports whether extra output arguments may change the frame
// size (a video filter graph or an explicit -s).
func ScalesVideo(extra []string) bool {
	for _, a := range extra {
		switch a {
		case "-vf", "-filter:v", "-filter_complex", "-s", "-s:v":
			return true
		}
	}
	return false
}

// DropsAudio reports whether extra output arguments remove or remap audio
// streams (-an or an explicit -map).
func DropsAudio(extra []string) bool {
	for _, a := range extra {
		if a == "-an" || a == "-map" {
			return true
		}
	}
	return false
}
