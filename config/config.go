// Package config loads the controller configuration from defaults, an
// optional YAML file, VOICE_COMMANDER_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VOICE_COMMANDER"

type Config struct {
	// Language overrides the system locale, e.g. "en_US".
	Language      string           `mapstructure:"language"`
	SilencePolicy string           `mapstructure:"silence_policy"`
	Log           LogConfig        `mapstructure:"log"`
	Recognizer    RecognizerConfig `mapstructure:"recognizer"`
	Audio         AudioConfig      `mapstructure:"audio"`
	Board         BoardConfig      `mapstructure:"board"`
	TTS           TTSConfig        `mapstructure:"tts"`
	Party         PartyConfig      `mapstructure:"party"`
	Metrics       MetricsConfig    `mapstructure:"metrics"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RecognizerConfig struct {
	Engine        string        `mapstructure:"engine"` // whisper, cloud, console
	ModelPath     string        `mapstructure:"model_path"`
	Threads       uint          `mapstructure:"threads"`
	CloudURL      string        `mapstructure:"cloud_url"`
	CloudAPIKey   string        `mapstructure:"cloud_api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	QuietTime     time.Duration `mapstructure:"quiet_time"`
	ListenTimeout time.Duration `mapstructure:"listen_timeout"`
	MaxUtterance  time.Duration `mapstructure:"max_utterance"`
	CaptureDir    string        `mapstructure:"capture_dir"`
}

type AudioConfig struct {
	SampleRate      int    `mapstructure:"sample_rate"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
	ClipsDir        string `mapstructure:"clips_dir"`
}

type BoardConfig struct {
	Driver   string        `mapstructure:"driver"` // sysfs, simulated
	Root     string        `mapstructure:"root"`
	Light    string        `mapstructure:"light"`
	Red      string        `mapstructure:"red"`
	Green    string        `mapstructure:"green"`
	Blue     string        `mapstructure:"blue"`
	BlinkOn  time.Duration `mapstructure:"blink_on"`
	BlinkOff time.Duration `mapstructure:"blink_off"`
}

type TTSConfig struct {
	Command  string `mapstructure:"command"`
	// Language is the synthesis voice; empty follows the listening language.
	Language string `mapstructure:"language"`
	TempDir  string `mapstructure:"temp_dir"`
}

type PartyConfig struct {
	Steps        int           `mapstructure:"steps"`
	Dwell        time.Duration `mapstructure:"dwell"`
	Announcement string        `mapstructure:"announcement"`
	Clip         string        `mapstructure:"clip"`
}

type MetricsConfig struct {
	// Listen is the /metrics address; empty disables the endpoint.
	Listen string `mapstructure:"listen"`
}

func Default() *Config {
	return &Config{
		SilencePolicy: "ignore",
		Log: LogConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Recognizer: RecognizerConfig{
			Engine:        "whisper",
			ModelPath:     "models/ggml-base.en.bin",
			Threads:       4,
			Timeout:       15 * time.Second,
			QuietTime:     200 * time.Millisecond,
			ListenTimeout: 8 * time.Second,
			MaxUtterance:  10 * time.Second,
		},
		Audio: AudioConfig{
			SampleRate:      16000,
			FramesPerBuffer: 8196,
			ClipsDir:        "sounds",
		},
		Board: BoardConfig{
			Driver:   "sysfs",
			Root:     "/sys/class/leds",
			Light:    "led0",
			Red:      "ktd202x:led1",
			Green:    "ktd202x:led2",
			Blue:     "ktd202x:led3",
			BlinkOn:  500 * time.Millisecond,
			BlinkOff: 500 * time.Millisecond,
		},
		TTS: TTSConfig{
			Command: "pico2wave",
		},
		Party: PartyConfig{
			Steps:        20,
			Dwell:        400 * time.Millisecond,
			Announcement: "Turn up the music, it's party time!",
			Clip:         "partyM.wav",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("language", d.Language)
	v.SetDefault("silence_policy", d.SilencePolicy)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)

	v.SetDefault("recognizer.engine", d.Recognizer.Engine)
	v.SetDefault("recognizer.model_path", d.Recognizer.ModelPath)
	v.SetDefault("recognizer.threads", d.Recognizer.Threads)
	v.SetDefault("recognizer.cloud_url", d.Recognizer.CloudURL)
	v.SetDefault("recognizer.cloud_api_key", d.Recognizer.CloudAPIKey)
	v.SetDefault("recognizer.timeout", d.Recognizer.Timeout)
	v.SetDefault("recognizer.quiet_time", d.Recognizer.QuietTime)
	v.SetDefault("recognizer.listen_timeout", d.Recognizer.ListenTimeout)
	v.SetDefault("recognizer.max_utterance", d.Recognizer.MaxUtterance)
	v.SetDefault("recognizer.capture_dir", d.Recognizer.CaptureDir)

	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.frames_per_buffer", d.Audio.FramesPerBuffer)
	v.SetDefault("audio.clips_dir", d.Audio.ClipsDir)

	v.SetDefault("board.driver", d.Board.Driver)
	v.SetDefault("board.root", d.Board.Root)
	v.SetDefault("board.light", d.Board.Light)
	v.SetDefault("board.red", d.Board.Red)
	v.SetDefault("board.green", d.Board.Green)
	v.SetDefault("board.blue", d.Board.Blue)
	v.SetDefault("board.blink_on", d.Board.BlinkOn)
	v.SetDefault("board.blink_off", d.Board.BlinkOff)

	v.SetDefault("tts.command", d.TTS.Command)
	v.SetDefault("tts.language", d.TTS.Language)
	v.SetDefault("tts.temp_dir", d.TTS.TempDir)

	v.SetDefault("party.steps", d.Party.Steps)
	v.SetDefault("party.dwell", d.Party.Dwell)
	v.SetDefault("party.announcement", d.Party.Announcement)
	v.SetDefault("party.clip", d.Party.Clip)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
}

// Load merges defaults, the config file at path (or ./voice-commander.yaml
// when path is empty and the file exists), the environment and any changed
// flags named "language" or "log-level".
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{"language": "language", "log.level": "log-level"} {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("voice-commander")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/voice-commander")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.SilencePolicy {
	case "ignore", "party":
	default:
		errs = append(errs, fmt.Errorf("invalid silence_policy: %q (must be ignore or party)", c.SilencePolicy))
	}

	switch c.Recognizer.Engine {
	case "whisper":
		if c.Recognizer.ModelPath == "" {
			errs = append(errs, errors.New("recognizer.model_path is required for the whisper engine"))
		}
	case "cloud":
		if c.Recognizer.CloudURL == "" {
			errs = append(errs, errors.New("recognizer.cloud_url is required for the cloud engine"))
		}
	case "console":
	default:
		errs = append(errs, fmt.Errorf("invalid recognizer.engine: %q (must be whisper, cloud or console)", c.Recognizer.Engine))
	}

	switch c.Board.Driver {
	case "sysfs":
		if c.Board.Light == "" {
			errs = append(errs, errors.New("board.light is required for the sysfs driver"))
		}

		if c.Board.Red == "" || c.Board.Green == "" || c.Board.Blue == "" {
			errs = append(errs, errors.New("board.red, board.green and board.blue are required for the sysfs driver"))
		}
	case "simulated":
	default:
		errs = append(errs, fmt.Errorf("invalid board.driver: %q (must be sysfs or simulated)", c.Board.Driver))
	}

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}

	if c.Party.Steps <= 0 {
		errs = append(errs, fmt.Errorf("party.steps must be positive, got %d", c.Party.Steps))
	}

	if c.Party.Dwell < 0 {
		errs = append(errs, fmt.Errorf("party.dwell must not be negative, got %s", c.Party.Dwell))
	}

	return errors.Join(errs...)
}
