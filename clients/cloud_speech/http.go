// Package cloud_speech recognizes utterances with a remote speech service.
// The captured audio is posted as WAV together with the language and the
// hint phrases the service should favor.
package cloud_speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-audio/audio"
	"github.com/rs/zerolog"

	"voice-commander/audio_playback"
	"voice-commander/listener"
)

const DefaultTimeout = 15 * time.Second

var ErrRecognition = errors.New("recognition service error")

type clientImpl struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

type Config struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type recognizeResponse struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func NewClient(cfg *Config) (listener.Transcriber, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("missing parameter: cfg.Endpoint")
	}

	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	return &clientImpl{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger.With().Str("component", "cloud-speech").Logger(),
	}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (client *clientImpl) Transcribe(ctx context.Context, wavBuffer *audio.IntBuffer, language string, hints []string) (string, error) {
	var body bytes.Buffer

	err := listener.EncodeWav(nopCloser{&body}, audio_playback.ToInt16(wavBuffer), wavBuffer.Format.SampleRate)
	if err != nil {
		return "", fmt.Errorf("encode audio: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, &body)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Set("language", language)
	for _, hint := range hints {
		q.Add("hint", hint)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Content-Type", "audio/wav")
	if client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.apiKey)
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return "", err
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var result recognizeResponse
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &result); err != nil && resp.StatusCode == http.StatusOK {
			return "", fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s %s", ErrRecognition, resp.Status, result.Error)
	}

	client.logger.Debug().
		Str("transcript", result.Transcript).
		Float64("confidence", result.Confidence).
		Msg("recognized")

	return result.Transcript, nil
}
