package listener

import (
	"context"

	"github.com/go-audio/audio"
)

// Interface is a recognition source. Recognize blocks until one utterance has
// been recognized or the source decides nothing was said, in which case ok is
// false.
type Interface interface {
	Recognize(ctx context.Context, language string, hints []string) (text string, ok bool, err error)
}

// Transcriber turns one captured utterance into text. The hints are phrases
// the caller expects; engines that cannot use them ignore them.
type Transcriber interface {
	Transcribe(ctx context.Context, buf *audio.IntBuffer, language string, hints []string) (string, error)
}

// FrameSource yields consecutive mono 16-bit frames from a microphone.
type FrameSource interface {
	Read() ([]int16, error)
}

// Detector scores frames for voice activity.
type Detector interface {
	Flux(samples []int16) float64
	Reset()
}
