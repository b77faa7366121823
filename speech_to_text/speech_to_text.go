// Package speech_to_text transcribes captured utterances locally with a
// whisper.cpp model.
package speech_to_text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
	"github.com/rs/zerolog"

	"voice-commander/listener"
	"voice-commander/locale"
)

type sttImpl struct {
	mu      sync.Mutex
	model   whisper.Model
	threads uint
	logger  zerolog.Logger
}

type Config struct {
	Model   whisper.Model
	Threads uint
	Logger  zerolog.Logger
}

func New(cfg *Config) (listener.Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	return &sttImpl{
		model:   cfg.Model,
		threads: cfg.Threads,
		logger:  cfg.Logger.With().Str("component", "whisper").Logger(),
	}, nil
}

// Transcribe runs the model over one utterance. Whisper takes no phrase
// hints, so hints are ignored.
func (stt *sttImpl) Transcribe(ctx context.Context, wavBuffer *audio.IntBuffer, language string, _ []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// a whisper context is not safe for concurrent use
	stt.mu.Lock()
	defer stt.mu.Unlock()

	context, err := stt.model.NewContext()
	if err != nil {
		return "", err
	}

	if language != "" {
		code := language
		if tag, parseErr := locale.Parse(language); parseErr == nil {
			code = locale.Base(tag)
		}

		if err = context.SetLanguage(code); err != nil {
			return "", fmt.Errorf("set language %s: %w", code, err)
		}
	}

	if stt.threads > 0 {
		context.SetThreads(stt.threads)
	}

	err = context.Process(normalize(wavBuffer), nil)
	if err != nil {
		return "", err
	}

	segments, err := outputSegments(context)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(segments))
	for _, segment := range segments {
		stt.logger.Debug().Msgf("[%6s->%6s] %s", segment.Start, segment.End, segment.Text)
		texts = append(texts, strings.TrimSpace(segment.Text))
	}

	return strings.Join(texts, " "), nil
}

// normalize scales 16-bit PCM into the [-1, 1] range whisper expects.
func normalize(buf *audio.IntBuffer) []float32 {
	scale := float32(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth <= 0 {
		scale = 32768
	}

	data := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float32(v) / scale
	}

	return data
}

func outputSegments(context whisper.Context) ([]whisper.Segment, error) {
	seenText := make(map[string]bool)

	segments := make([]whisper.Segment, 0)

	for {
		segment, err := context.NextSegment()
		if errors.Is(err, io.EOF) {
			return segments, nil
		} else if err != nil {
			return nil, err
		}

		if isAnnotation(segment.Text) {
			continue
		}

		if seenText[segment.Text] {
			continue
		}

		seenText[segment.Text] = true

		segments = append(segments, segment)
	}
}

// isAnnotation reports whether whisper emitted a sound description such as
// "[BLANK_AUDIO]" or "(wind blowing)" rather than speech.
func isAnnotation(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}

	return text[0] == '(' || text[0] == '[' ||
		text[len(text)-1] == ')' || text[len(text)-1] == ']'
}
