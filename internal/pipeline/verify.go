package pipeline

import (
	"context"

	"github.com/backmassage/dsconvert/internal/config"
	"github.com/backmassage/dsconvert/internal/ffmpeg"
	"github.com/backmassage/dsconvert/internal/probe"
)

// ProbeVerifier checks staging files with ffprobe.
type ProbeVerifier struct {
	FFprobe string
	Expect  probe.Expect
}

// NewProbeVerifier derives the expectations for outputs of t: the codec the
// encoder produces, plus unchanged frame size and audio streams unless the
// extra arguments alter them.
func NewProbeVerifier(t config.Transcode) ProbeVerifier {
	return ProbeVerifier{
		FFprobe: t.FFprobe,
		Expect: probe.Expect{
			Codec:          ffmpeg.ExpectedCodecName(t.VideoCodec),
			Tolerance:      t.VerifyTolerance,
			SameResolution: !ffmpeg.ScalesVideo(t.ExtraArgs),
			SameAudio:      !ffmpeg.DropsAudio(t.ExtraArgs),
		},
	}
}

// Verify probes out, and src for the comparisons. A source that cannot be
// probed only disables those comparisons.
func (v ProbeVerifier) Verify(ctx context.Context, src, out string) error {
	srcResult, err := probe.Probe(ctx, v.FFprobe, src)
	if err != nil {
		srcResult = nil
	}
	outResult, err := probe.Probe(ctx, v.FFprobe, out)
	if err != nil {
		return err
	}
	return probe.Verify(srcResult, outResult, v.Expect)
}
