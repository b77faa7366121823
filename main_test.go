package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"voice-commander/commands"
	"voice-commander/config"
)

func TestRun_UnsupportedLanguage(t *testing.T) {
	cfg := config.Default()
	cfg.Language = "de_DE"
	cfg.Recognizer.Engine = "console"
	cfg.Board.Driver = "simulated"
	cfg.Log.Console = false

	err := run(context.Background(), cfg)

	assert.ErrorIs(t, err, commands.ErrUnsupportedLanguage)
	assert.Equal(t, exitUnsupportedLanguage, exitCode(err))
}

func TestRun_UnsupportedLanguageBeforeLoadingModel(t *testing.T) {
	cfg := config.Default()
	cfg.Language = "de_DE"
	cfg.Recognizer.Engine = "whisper"
	cfg.Recognizer.ModelPath = filepath.Join(t.TempDir(), "missing.bin")
	cfg.Board.Driver = "simulated"
	cfg.Log.Console = false

	err := run(context.Background(), cfg)

	assert.ErrorIs(t, err, commands.ErrUnsupportedLanguage)
	assert.NotContains(t, err.Error(), "load model")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("no audio device")))
	assert.Equal(t, exitUnsupportedLanguage, exitCode(fmt.Errorf("startup: %w", commands.ErrUnsupportedLanguage)))
}

func TestTTSLanguage(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "en-GB", ttsLanguage(cfg, language.BritishEnglish))

	cfg.TTS.Language = "en-US"
	assert.Equal(t, "en-US", ttsLanguage(cfg, language.BritishEnglish))
}

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"config", "language", "log-level"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}
