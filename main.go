package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"voice-commander/actuator"
	"voice-commander/audio_device"
	"voice-commander/audio_playback"
	"voice-commander/board"
	"voice-commander/clients/cloud_speech"
	"voice-commander/commands"
	"voice-commander/config"
	"voice-commander/dispatch"
	"voice-commander/listener"
	"voice-commander/logging"
	"voice-commander/metrics"
	"voice-commander/party"
	"voice-commander/speech_to_text"
	"voice-commander/text_to_speech"
)

const (
	exitFailure             = 1
	exitUnsupportedLanguage = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, commands.ErrUnsupportedLanguage):
		return exitUnsupportedLanguage
	}

	return exitFailure
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "voice-commander",
		Short:         "Control the device light and party effect by voice",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ./voice-commander.yaml)")
	rootCmd.PersistentFlags().String("language", "", "language to listen for (default system locale)")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")

	return rootCmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// fail on the language before any device or model is touched
	tag, _, err := dispatch.ResolveLanguage(cfg.Language, nil)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(&logging.Config{
		Level:      cfg.Log.Level,
		Console:    cfg.Log.Console,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return err
	}

	defer logCloser.Close()

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, logger); err != nil {
				logger.Error().Err(err).Msg("metrics endpoint stopped")
			}
		}()
	}

	fs := afero.NewOsFs()

	// speakers and microphone are only needed on real hardware
	var host *audio_device.Host
	if cfg.Recognizer.Engine != "console" || cfg.Board.Driver == "sysfs" {
		host, err = audio_device.Open(&audio_device.Config{
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		defer host.Close()
	}

	act, err := newActuator(cfg, ttsLanguage(cfg, tag), fs, host, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := act.Close(); err != nil {
			logger.Error().Err(err).Msg("release actuator")
		}
	}()

	recognizer, cleanup, err := newRecognizer(cfg, fs, host, logger)
	if err != nil {
		return err
	}

	defer cleanup()

	engine, err := party.New(&party.Config{
		Steps:        cfg.Party.Steps,
		Dwell:        cfg.Party.Dwell,
		Announcement: cfg.Party.Announcement,
		Clip:         cfg.Party.Clip,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.New(&dispatch.Config{
		Language:      tag.String(),
		Recognizer:    recognizer,
		Actuator:      act,
		Party:         engine,
		SilencePolicy: dispatch.SilencePolicy(cfg.SilencePolicy),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("language", dispatcher.Language()).
		Str("engine", cfg.Recognizer.Engine).
		Str("board", cfg.Board.Driver).
		Msg("voice commander started")

	err = dispatcher.Run(ctx)
	switch {
	case errors.Is(err, io.EOF):
		logger.Info().Msg("input closed")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info().Msg("interrupted")
		return nil
	}

	return err
}

// ttsLanguage is the configured synthesis voice, or the listening language
// when none is set.
func ttsLanguage(cfg *config.Config, listening language.Tag) string {
	if cfg.TTS.Language != "" {
		return cfg.TTS.Language
	}

	return listening.String()
}

func newActuator(cfg *config.Config, voice string, fs afero.Fs, host *audio_device.Host, logger zerolog.Logger) (actuator.Interface, error) {
	var (
		leds    actuator.Board
		speaker actuator.Speaker = actuator.SilentSpeaker{Logger: logger}
		player  actuator.Player  = actuator.SilentPlayer{Logger: logger}
		err     error
	)

	switch cfg.Board.Driver {
	case "sysfs":
		leds, err = board.New(&board.Config{
			Fs:       fs,
			Root:     cfg.Board.Root,
			Light:    cfg.Board.Light,
			Red:      cfg.Board.Red,
			Green:    cfg.Board.Green,
			Blue:     cfg.Board.Blue,
			BlinkOn:  cfg.Board.BlinkOn,
			BlinkOff: cfg.Board.BlinkOff,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	default:
		leds = actuator.NewSimulatedBoard(logger)
	}

	if host != nil {
		speaker, err = text_to_speech.New(&text_to_speech.Config{
			Command:  cfg.TTS.Command,
			Language: voice,
			Fs:       fs,
			TempDir:  cfg.TTS.TempDir,
			Output:   host,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}

		player, err = audio_playback.New(&audio_playback.Config{
			Fs:       fs,
			ClipsDir: cfg.Audio.ClipsDir,
			Output:   host,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
	}

	return actuator.New(&actuator.Config{
		Board:   leds,
		Speaker: speaker,
		Player:  player,
		Logger:  logger,
	})
}

func newRecognizer(cfg *config.Config, fs afero.Fs, host *audio_device.Host, logger zerolog.Logger) (listener.Interface, func(), error) {
	if cfg.Recognizer.Engine == "console" {
		recognizer, err := listener.NewConsole(os.Stdin)
		return recognizer, func() {}, err
	}

	var (
		transcriber listener.Transcriber
		closeModel  = func() {}
		err         error
	)

	switch cfg.Recognizer.Engine {
	case "cloud":
		transcriber, err = cloud_speech.NewClient(&cloud_speech.Config{
			Endpoint: cfg.Recognizer.CloudURL,
			APIKey:   cfg.Recognizer.CloudAPIKey,
			Timeout:  cfg.Recognizer.Timeout,
			Logger:   logger,
		})
	default:
		var model whisper.Model

		model, err = whisper.New(cfg.Recognizer.ModelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load model %s: %w", cfg.Recognizer.ModelPath, err)
		}

		closeModel = func() { model.Close() }

		transcriber, err = speech_to_text.New(&speech_to_text.Config{
			Model:   model,
			Threads: cfg.Recognizer.Threads,
			Logger:  logger,
		})
	}
	if err != nil {
		closeModel()
		return nil, nil, err
	}

	if host == nil {
		closeModel()
		return nil, nil, errors.New("audio device is required for microphone capture")
	}

	input, err := host.OpenInput(cfg.Audio.SampleRate)
	if err != nil {
		closeModel()
		return nil, nil, err
	}

	recognizer, err := listener.New(&listener.Config{
		Source:        input,
		Transcriber:   transcriber,
		SampleRate:    cfg.Audio.SampleRate,
		QuietTime:     cfg.Recognizer.QuietTime,
		ListenTimeout: cfg.Recognizer.ListenTimeout,
		MaxUtterance:  cfg.Recognizer.MaxUtterance,
		CaptureFs:     fs,
		CaptureDir:    cfg.Recognizer.CaptureDir,
		Logger:        logger,
	})
	if err != nil {
		input.Close()
		closeModel()
		return nil, nil, err
	}

	return recognizer, func() {
		input.Close()
		closeModel()
	}, nil
}
