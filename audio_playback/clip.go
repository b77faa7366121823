package audio_playback

import (
	"errors"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

var ErrInvalidWav = errors.New("not a valid wav file")

// Clip is decoded PCM ready for the output device.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// LoadClip decodes a PCM WAV file into 16-bit interleaved samples.
func LoadClip(fs afero.Fs, name string) (*Clip, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidWav)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	if buf.SourceBitDepth == 0 {
		buf.SourceBitDepth = int(decoder.BitDepth)
	}

	return &Clip{
		Samples:    ToInt16(buf),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// ToInt16 rescales samples of any source bit depth to 16 bits.
func ToInt16(buf *audio.IntBuffer) []int16 {
	samples := make([]int16, len(buf.Data))

	for i, v := range buf.Data {
		switch depth := buf.SourceBitDepth; {
		case depth == 8:
			// 8-bit wav is unsigned
			samples[i] = int16((v - 128) << 8)
		case depth > 16:
			samples[i] = int16(v >> (depth - 16))
		default:
			samples[i] = int16(v)
		}
	}

	return samples
}
