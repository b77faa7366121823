// Package audio_playback plays WAV clips by id through an output device.
package audio_playback

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"voice-commander/actuator"
)

// Output is the device samples are written to.
type Output interface {
	Play(ctx context.Context, samples []int16, sampleRate, channels int) error
}

type playerImpl struct {
	fs       afero.Fs
	clipsDir string
	output   Output
	logger   zerolog.Logger

	mu    sync.Mutex
	cache map[string]*Clip
}

type Config struct {
	Fs       afero.Fs
	ClipsDir string
	Output   Output
	Logger   zerolog.Logger
}

func New(cfg *Config) (actuator.Player, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Fs == nil {
		return nil, fmt.Errorf("fs is nil")
	}

	if cfg.Output == nil {
		return nil, fmt.Errorf("output is nil")
	}

	clipsDir := cfg.ClipsDir
	if clipsDir == "" {
		clipsDir = "."
	}

	return &playerImpl{
		fs:       cfg.Fs,
		clipsDir: clipsDir,
		output:   cfg.Output,
		logger:   cfg.Logger.With().Str("component", "player").Logger(),
		cache:    make(map[string]*Clip),
	}, nil
}

// Play resolves clipID to a file under the clips directory, adding ".wav" if
// the id has no extension. Decoded clips are kept for later plays.
func (p *playerImpl) Play(ctx context.Context, clipID string) error {
	clip, err := p.load(clipID)
	if err != nil {
		return err
	}

	return p.output.Play(ctx, clip.Samples, clip.SampleRate, clip.Channels)
}

func (p *playerImpl) load(clipID string) (*Clip, error) {
	if clipID == "" || strings.Contains(clipID, "..") {
		return nil, fmt.Errorf("invalid clip id %q", clipID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if clip, ok := p.cache[clipID]; ok {
		return clip, nil
	}

	name := clipID
	if path.Ext(name) == "" {
		name += ".wav"
	}

	clip, err := LoadClip(p.fs, path.Join(p.clipsDir, name))
	if err != nil {
		return nil, err
	}

	p.logger.Debug().
		Str("clip", clipID).
		Int("samples", len(clip.Samples)).
		Int("sampleRate", clip.SampleRate).
		Msg("clip loaded")

	p.cache[clipID] = clip

	return clip, nil
}
