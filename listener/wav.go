package listener

import (
	"io"

	"github.com/zenwerk/go-wave"
)

// EncodeWav writes mono 16-bit samples as a WAV file and closes out.
func EncodeWav(out io.WriteCloser, samples []int16, sampleRate int) error {
	waveWriter, err := wave.NewWriter(wave.WriterParam{
		Out:           out,
		Channel:       1,
		SampleRate:    sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		out.Close()
		return err
	}

	if _, err = waveWriter.WriteSample16(samples); err != nil {
		waveWriter.Close()
		return err
	}

	return waveWriter.Close()
}
