// Package audio_device opens the default PortAudio input and output devices.
package audio_device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

const (
	DefaultSampleRate      = 16000
	DefaultFramesPerBuffer = 8196
)

// Host owns the PortAudio library lifetime. Streams opened from it must be
// closed before the host.
type Host struct {
	mu              sync.Mutex
	framesPerBuffer int
	logger          zerolog.Logger
	running         bool
}

type Config struct {
	FramesPerBuffer int
	Logger          zerolog.Logger
}

func Open(cfg *Config) (*Host, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	framesPerBuffer := cfg.FramesPerBuffer
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}

	return &Host{
		framesPerBuffer: framesPerBuffer,
		logger:          cfg.Logger.With().Str("component", "audio-device").Logger(),
		running:         true,
	}, nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	h.running = false

	if err := portaudio.Terminate(); err != nil {
		h.logger.Error().Err(err).Msg("error while freeing audio")
		return err
	}

	return nil
}

// Input is a started mono capture stream.
type Input struct {
	stream *portaudio.Stream
	buffer []int16
}

func (h *Host) OpenInput(sampleRate int) (*Input, error) {
	in := make([]int16, h.framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), len(in), in)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}

	if err = stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	return &Input{stream: stream, buffer: in}, nil
}

// Read blocks for the next frame. The returned slice is reused by the next
// call.
func (i *Input) Read() ([]int16, error) {
	if err := i.stream.Read(); err != nil {
		return nil, err
	}

	return i.buffer, nil
}

func (i *Input) Close() error {
	stopErr := i.stream.Stop()
	closeErr := i.stream.Close()

	if stopErr != nil {
		return stopErr
	}

	return closeErr
}

// Play writes interleaved 16-bit samples to the default output and returns
// once they have been handed to the device or ctx is done.
func (h *Host) Play(ctx context.Context, samples []int16, sampleRate, channels int) error {
	if channels < 1 {
		return fmt.Errorf("invalid channel count %d", channels)
	}

	out := make([]int16, h.framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), h.framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}

	defer stream.Close()

	if err = stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}

	for offset := 0; offset < len(samples); offset += len(out) {
		if err = ctx.Err(); err != nil {
			stream.Abort()
			return err
		}

		n := copy(out, samples[offset:])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}

		if err = stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}

	return stream.Stop()
}
