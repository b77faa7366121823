package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice-commander.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
language: en_GB
silence_policy: party
recognizer:
  engine: cloud
  cloud_url: http://speech.local/v1/recognize
board:
  driver: simulated
party:
  steps: 5
  dwell: 250ms
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "en_GB", cfg.Language)
	assert.Equal(t, "party", cfg.SilencePolicy)
	assert.Equal(t, "cloud", cfg.Recognizer.Engine)
	assert.Equal(t, "simulated", cfg.Board.Driver)
	assert.Equal(t, 5, cfg.Party.Steps)
	assert.Equal(t, 250*time.Millisecond, cfg.Party.Dwell)

	// untouched keys keep their defaults
	assert.Equal(t, "partyM.wav", cfg.Party.Clip)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("VOICE_COMMANDER_BOARD_DRIVER", "simulated")
	t.Setenv("VOICE_COMMANDER_LANGUAGE", "en_AU")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("language", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "simulated", cfg.Board.Driver)
	assert.Equal(t, "en_AU", cfg.Language)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SilencePolicy = "dance"
	cfg.Recognizer.Engine = "cloud"
	cfg.Board.Driver = "gpio"
	cfg.Party.Steps = 0

	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "silence_policy")
	assert.Contains(t, err.Error(), "cloud_url")
	assert.Contains(t, err.Error(), "board.driver")
	assert.Contains(t, err.Error(), "party.steps")
}

func TestValidate_SysfsNeedsRGB(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Board.Red)
	assert.NotEmpty(t, cfg.Board.Green)
	assert.NotEmpty(t, cfg.Board.Blue)

	cfg.Board.Green = ""
	assert.ErrorContains(t, cfg.Validate(), "board.green")

	cfg.Board.Driver = "simulated"
	assert.NoError(t, cfg.Validate())
}

func TestDefault_TTSFollowsListeningLanguage(t *testing.T) {
	assert.Empty(t, Default().TTS.Language)
}
