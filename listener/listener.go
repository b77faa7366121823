// Package listener captures utterances from a microphone and turns them into
// text.
package listener

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"voice-commander/listener/voice_activity_detection"
	"voice-commander/ring_buffer"
)

const (
	DefaultSampleRate    = 16000
	DefaultQuietTime     = 200 * time.Millisecond
	DefaultListenTimeout = 8 * time.Second
	DefaultMaxUtterance  = 10 * time.Second
	DefaultPreRoll       = 8196

	// a frame counts as onset when its flux beats the last one by this factor,
	// and as quiet when it falls below the last loud one by the same factor
	fluxRatio = 1.75
)

type voiceImpl struct {
	source        FrameSource
	transcriber   Transcriber
	newDetector   func(frameSize int) Detector
	sampleRate    int
	quietTime     time.Duration
	listenTimeout time.Duration
	maxUtterance  time.Duration
	preRoll       int
	captureFs     afero.Fs
	captureDir    string
	logger        zerolog.Logger

	// reused across cycles, both start empty each time
	preRollBuf ring_buffer.Interface
	detector   Detector
}

type Config struct {
	Source      FrameSource
	Transcriber Transcriber

	// NewDetector defaults to spectral flux.
	NewDetector func(frameSize int) Detector

	SampleRate    int
	QuietTime     time.Duration
	ListenTimeout time.Duration
	MaxUtterance  time.Duration
	PreRoll       int

	// CaptureDir, when set, receives every captured utterance as a WAV file.
	CaptureFs  afero.Fs
	CaptureDir string

	Logger zerolog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is nil")
	}

	if cfg.CaptureDir != "" && cfg.CaptureFs == nil {
		return nil, fmt.Errorf("captureFs is nil")
	}

	v := &voiceImpl{
		source:        cfg.Source,
		transcriber:   cfg.Transcriber,
		newDetector:   cfg.NewDetector,
		sampleRate:    cfg.SampleRate,
		quietTime:     cfg.QuietTime,
		listenTimeout: cfg.ListenTimeout,
		maxUtterance:  cfg.MaxUtterance,
		preRoll:       cfg.PreRoll,
		captureFs:     cfg.CaptureFs,
		captureDir:    cfg.CaptureDir,
		logger:        cfg.Logger.With().Str("component", "listener").Logger(),
	}

	if v.newDetector == nil {
		v.newDetector = func(frameSize int) Detector {
			return voice_activity_detection.New(frameSize)
		}
	}

	if v.sampleRate <= 0 {
		v.sampleRate = DefaultSampleRate
	}

	if v.quietTime <= 0 {
		v.quietTime = DefaultQuietTime
	}

	if v.listenTimeout <= 0 {
		v.listenTimeout = DefaultListenTimeout
	}

	if v.maxUtterance <= 0 {
		v.maxUtterance = DefaultMaxUtterance
	}

	if v.preRoll <= 0 {
		v.preRoll = DefaultPreRoll
	}

	v.preRollBuf = ring_buffer.New(v.preRoll)

	return v, nil
}

func (v *voiceImpl) Recognize(ctx context.Context, language string, hints []string) (string, bool, error) {
	samples, err := v.listenIntoBuffer(ctx)
	if err != nil {
		return "", false, err
	}

	if len(samples) == 0 {
		return "", false, nil
	}

	if v.captureDir != "" {
		if err := v.capture(samples); err != nil {
			v.logger.Warn().Err(err).Msg("could not store capture")
		}
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	wavBuffer := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  v.sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	text, err := v.transcriber.Transcribe(ctx, wavBuffer, language, hints)
	if err != nil {
		return "", false, fmt.Errorf("transcribe: %w", err)
	}

	text = strings.TrimSpace(text)

	return text, text != "", nil
}

func (v *voiceImpl) samplesFor(d time.Duration) int {
	return int(d.Seconds() * float64(v.sampleRate))
}

// listenIntoBuffer reads frames until speech has started and then stopped.
// It returns no samples if nothing loud enough was heard before the listen
// timeout. Durations are measured in samples read, not wall time.
func (v *voiceImpl) listenIntoBuffer(ctx context.Context) ([]int16, error) {
	var (
		heardSomething bool
		quiet          bool
		quietSamples   int
		listened       int
		lastFlux       float64
		captured       []int16
	)

	preRoll := v.preRollBuf
	preRoll.Clear()

	if v.detector != nil {
		v.detector.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := v.source.Read()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}

		if v.detector == nil {
			v.detector = v.newDetector(len(frame))
		}

		listened += len(frame)

		// keep a buffer of the first bit of audio before detection
		if !heardSomething {
			preRoll.Add(frame)
		} else {
			captured = append(captured, frame...)
		}

		flux := v.detector.Flux(frame)

		if heardSomething {
			if len(captured) >= v.samplesFor(v.maxUtterance) {
				v.logger.Debug().Msg("utterance hit max length")
				break
			}

			if flux*fluxRatio <= lastFlux {
				if !quiet {
					quiet = true
					quietSamples = 0
				} else {
					quietSamples += len(frame)

					if quietSamples > v.samplesFor(v.quietTime) {
						break
					}
				}
			} else {
				quiet = false
				lastFlux = flux
			}

			continue
		}

		if lastFlux != 0 && flux >= lastFlux*fluxRatio {
			heardSomething = true

			v.logger.Debug().Int("preRoll", preRoll.Filled()).Float64("flux", flux).Msg("speech started")

			// the pre-roll already holds this frame
			captured = append(captured, preRoll.Read()...)
		}

		lastFlux = flux

		if !heardSomething && listened >= v.samplesFor(v.listenTimeout) {
			return nil, nil
		}
	}

	return captured, nil
}

func (v *voiceImpl) capture(samples []int16) error {
	if err := v.captureFs.MkdirAll(v.captureDir, 0755); err != nil {
		return err
	}

	name := path.Join(v.captureDir, fmt.Sprintf("capture-%d.wav", time.Now().UnixNano()))

	f, err := v.captureFs.Create(name)
	if err != nil {
		return err
	}

	if err = EncodeWav(f, samples, v.sampleRate); err != nil {
		return err
	}

	v.logger.Debug().Str("file", name).Int("samples", len(samples)).Msg("capture stored")

	return nil
}
