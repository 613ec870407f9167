package probe

import (
	"errors"
	"fmt"
	"math"
)

// ErrVerifyFailed is wrapped by every error returned from [Verify].
var ErrVerifyFailed = errors.New("output verification failed")

// Expect describes what a transcoded output must look like.
type Expect struct {
	Codec     string  // Codec name ffprobe should report, e.g. "h264".
	Tolerance float64 // Allowed duration drift in seconds.
	// SameResolution requires the source's frame size when both are known.
	SameResolution bool
	// SameAudio requires as many audio streams as the source.
	SameAudio bool
}

// Verify checks a transcoded output against its source. The output must have
// a video stream of the expected codec. The remaining checks need the source
// and are skipped when src is nil: durations, when both are known, may differ
// by at most Tolerance seconds, and frame size and audio stream count must
// match when requested.
func Verify(src, out *Result, want Expect) error {
	if out.PrimaryVideo == nil {
		return fmt.Errorf("%w: no video stream", ErrVerifyFailed)
	}
	if out.PrimaryVideo.Codec != want.Codec {
		return fmt.Errorf("%w: video codec %s, want %s", ErrVerifyFailed, out.PrimaryVideo.Codec, want.Codec)
	}
	if src == nil {
		return nil
	}
	if want.SameResolution {
		srcRes, outRes := src.Resolution(), out.Resolution()
		if srcRes != "unknown" && outRes != "unknown" && srcRes != outRes {
			return fmt.Errorf("%w: resolution %s, source is %s", ErrVerifyFailed, outRes, srcRes)
		}
	}
	if want.SameAudio && len(out.AudioStreams) != len(src.AudioStreams) {
		return fmt.Errorf("%w: %d audio streams, source has %d",
			ErrVerifyFailed, len(out.AudioStreams), len(src.AudioStreams))
	}
	if src.Format.Duration <= 0 || out.Format.Duration <= 0 {
		return nil
	}
	if drift := math.Abs(src.Format.Duration - out.Format.Duration); drift > want.Tolerance {
		return fmt.Errorf("%w: duration %.3fs differs from source %.3fs by %.3fs",
			ErrVerifyFailed, out.Format.Duration, src.Format.Duration, drift)
	}
	return nil
}
