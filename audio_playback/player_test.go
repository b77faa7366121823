package audio_playback

import (
	"context"
	"errors"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOutput struct {
	calls      int
	samples    []int16
	sampleRate int
	channels   int
	err        error
}

func (o *recordingOutput) Play(_ context.Context, samples []int16, sampleRate, channels int) error {
	o.calls++
	o.samples = samples
	o.sampleRate = sampleRate
	o.channels = channels

	return o.err
}

func writeWav(t *testing.T, fs afero.Fs, name string, data []int) {
	t.Helper()

	f, err := fs.Create(name)
	require.NoError(t, err)

	encoder := wav.NewEncoder(f, 22050, 16, 1, 1)
	require.NoError(t, encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 22050},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, f.Close())
}

func newPlayer(t *testing.T, fs afero.Fs, output Output) *playerImpl {
	t.Helper()

	p, err := New(&Config{Fs: fs, ClipsDir: "/clips", Output: output, Logger: zerolog.Nop()})
	require.NoError(t, err)

	return p.(*playerImpl)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Output: &recordingOutput{}})
	assert.EqualError(t, err, "fs is nil")

	_, err = New(&Config{Fs: afero.NewMemMapFs()})
	assert.EqualError(t, err, "output is nil")
}

func TestPlayer_Play(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/clips", 0755))
	writeWav(t, fs, "/clips/partyM.wav", []int{0, 1000, -1000, 32767})

	output := &recordingOutput{}
	p := newPlayer(t, fs, output)

	require.NoError(t, p.Play(context.Background(), "partyM.wav"))

	assert.Equal(t, 1, output.calls)
	assert.Equal(t, []int16{0, 1000, -1000, 32767}, output.samples)
	assert.Equal(t, 22050, output.sampleRate)
	assert.Equal(t, 1, output.channels)
}

func TestPlayer_AddsExtensionAndCaches(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeWav(t, fs, "/clips/chime.wav", []int{5, 6})

	output := &recordingOutput{}
	p := newPlayer(t, fs, output)

	require.NoError(t, p.Play(context.Background(), "chime"))
	require.NoError(t, fs.Remove("/clips/chime.wav"))
	require.NoError(t, p.Play(context.Background(), "chime"))

	assert.Equal(t, 2, output.calls)
}

func TestPlayer_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/clips/broken.wav", []byte("not a riff file"), 0644))

	boom := errors.New("device busy")
	writeWav(t, fs, "/clips/ok.wav", []int{1})

	p := newPlayer(t, fs, &recordingOutput{err: boom})

	assert.Error(t, p.Play(context.Background(), "missing.wav"))
	assert.ErrorIs(t, p.Play(context.Background(), "broken.wav"), ErrInvalidWav)
	assert.ErrorContains(t, p.Play(context.Background(), "../etc/passwd"), "invalid clip id")
	assert.ErrorIs(t, p.Play(context.Background(), "ok.wav"), boom)
}

func TestToInt16(t *testing.T) {
	assert.Equal(t, []int16{-32768, 0, 32512},
		ToInt16(&audio.IntBuffer{Data: []int{0, 128, 255}, SourceBitDepth: 8}))

	assert.Equal(t, []int16{32767, -32768},
		ToInt16(&audio.IntBuffer{Data: []int{8388607, -8388608}, SourceBitDepth: 24}))

	assert.Equal(t, []int16{-5, 7},
		ToInt16(&audio.IntBuffer{Data: []int{-5, 7}, SourceBitDepth: 16}))
}
