package text_to_speech

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
	samples    []int16
	sampleRate int
}

func (o *recordingOutput) Play(_ context.Context, samples []int16, sampleRate, _ int) error {
	o.samples = samples
	o.sampleRate = sampleRate
	return nil
}

// picoRunner writes a short wav to the -w argument, like pico2wave does.
func picoRunner(t *testing.T, fs afero.Fs, calls *[][]string) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))

		var out string
		for i := 0; i < len(args)-1; i++ {
			if args[i] == "-w" {
				out = args[i+1]
			}
		}

		f, err := fs.Create(out)
		require.NoError(t, err)

		encoder := wav.NewEncoder(f, 16000, 16, 1, 1)
		require.NoError(t, encoder.Write(&audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
			Data:           []int{3, 2, 1},
			SourceBitDepth: 16,
		}))
		require.NoError(t, encoder.Close())

		return nil, f.Close()
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Output: &recordingOutput{}})
	assert.EqualError(t, err, "fs is nil")

	_, err = New(&Config{Fs: afero.NewMemMapFs()})
	assert.EqualError(t, err, "output is nil")
}

func TestSpeaker_Speak(t *testing.T) {
	fs := afero.NewMemMapFs()
	output := &recordingOutput{}
	var calls [][]string

	s, err := New(&Config{
		Fs:      fs,
		TempDir: "/tmp",
		Output:  output,
		Run:     picoRunner(t, fs, &calls),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "  hello world "))

	require.Len(t, calls, 1)
	assert.Equal(t, "pico2wave", calls[0][0])
	assert.Equal(t, []string{"-l", "en-US", "-w"}, calls[0][1:4])
	assert.Equal(t, "hello world", calls[0][5])

	assert.Equal(t, []int16{3, 2, 1}, output.samples)
	assert.Equal(t, 16000, output.sampleRate)

	exists, err := afero.Exists(fs, calls[0][4])
	require.NoError(t, err)
	assert.False(t, exists, "temp wav should be removed")
}

func TestSpeaker_EmptyTextIsSilent(t *testing.T) {
	var calls [][]string
	fs := afero.NewMemMapFs()

	s, err := New(&Config{Fs: fs, Output: &recordingOutput{}, Run: picoRunner(t, fs, &calls)})
	require.NoError(t, err)

	require.NoError(t, s.Speak(context.Background(), "   "))
	assert.Empty(t, calls)
}

func TestSpeaker_CommandFailure(t *testing.T) {
	boom := errors.New("exit status 1")

	s, err := New(&Config{
		Command: "/opt/pico/bin/pico2wave",
		Fs:      afero.NewMemMapFs(),
		Output:  &recordingOutput{},
		Run: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("Cannot open output wave file"), boom
		},
	})
	require.NoError(t, err)

	err = s.Speak(context.Background(), "hi")

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "/opt/pico/bin/pico2wave failed")
}
