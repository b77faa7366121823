// Package text_to_speech speaks text by rendering it to a WAV file with an
// SVOX Pico style command line tool and playing the result.
package text_to_speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"voice-commander/actuator"
	"voice-commander/audio_playback"
)

const (
	DefaultCommand  = "pico2wave"
	DefaultLanguage = "en-US"
)

// Runner executes the synthesis command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type speakerImpl struct {
	command  string
	language string
	fs       afero.Fs
	tempDir  string
	output   audio_playback.Output
	run      Runner
	logger   zerolog.Logger
}

type Config struct {
	Command  string
	Language string
	Fs       afero.Fs
	TempDir  string
	Output   audio_playback.Output
	Run      Runner
	Logger   zerolog.Logger
}

func New(cfg *Config) (actuator.Speaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Fs == nil {
		return nil, fmt.Errorf("fs is nil")
	}

	if cfg.Output == nil {
		return nil, fmt.Errorf("output is nil")
	}

	s := &speakerImpl{
		command:  cfg.Command,
		language: cfg.Language,
		fs:       cfg.Fs,
		tempDir:  cfg.TempDir,
		output:   cfg.Output,
		run:      cfg.Run,
		logger:   cfg.Logger.With().Str("component", "tts").Logger(),
	}

	if s.command == "" {
		s.command = DefaultCommand
	}

	if s.language == "" {
		s.language = DefaultLanguage
	}

	if s.run == nil {
		s.run = execRunner
	}

	return s, nil
}

func (s *speakerImpl) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	tmp, err := afero.TempFile(s.fs, s.tempDir, "tts-*.wav")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	wavPath := tmp.Name()
	tmp.Close()

	defer s.fs.Remove(wavPath)

	output, err := s.run(ctx, s.command, "-l", s.language, "-w", wavPath, text)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("output", string(output)).
			Msg("synthesis failed")

		return fmt.Errorf("%s failed: %w", s.command, err)
	}

	clip, err := audio_playback.LoadClip(s.fs, wavPath)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Int("textLen", len(text)).
		Int("samples", len(clip.Samples)).
		Msg("speech synthesized")

	return s.output.Play(ctx, clip.Samples, clip.SampleRate, clip.Channels)
}
