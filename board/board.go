// Package board drives the device lights through the Linux LED class
// interface (/sys/class/leds). Every access goes through an afero.Fs so the
// driver runs against an in-memory tree in tests.
package board

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"voice-commander/actuator"
)

const (
	DefaultRoot     = "/sys/class/leds"
	defaultBlinkOn  = 500 * time.Millisecond
	defaultBlinkOff = 500 * time.Millisecond
	fallbackMax     = 255
)

var ErrNoRGB = actuator.ErrNoColor

type led struct {
	dir string
	max int
}

type boardImpl struct {
	mu       sync.Mutex
	fs       afero.Fs
	light    led
	rgb      []led
	blinkOn  time.Duration
	blinkOff time.Duration
	logger   zerolog.Logger
}

type Config struct {
	Fs   afero.Fs
	Root string

	// Light is the LED class name of the status light. Red, Green and Blue
	// name the channels of the RGB LED; leave all three empty if there is none.
	Light string
	Red   string
	Green string
	Blue  string

	BlinkOn  time.Duration
	BlinkOff time.Duration

	Logger zerolog.Logger
}

func New(cfg *Config) (actuator.Board, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Fs == nil {
		return nil, fmt.Errorf("fs is nil")
	}

	if cfg.Light == "" {
		return nil, fmt.Errorf("light led name is empty")
	}

	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}

	b := &boardImpl{
		fs:       cfg.Fs,
		blinkOn:  cfg.BlinkOn,
		blinkOff: cfg.BlinkOff,
		logger:   cfg.Logger.With().Str("component", "board").Logger(),
	}

	if b.blinkOn <= 0 {
		b.blinkOn = defaultBlinkOn
	}

	if b.blinkOff <= 0 {
		b.blinkOff = defaultBlinkOff
	}

	var err error

	b.light, err = b.open(path.Join(root, cfg.Light))
	if err != nil {
		return nil, err
	}

	channels := []string{cfg.Red, cfg.Green, cfg.Blue}
	configured := 0

	for _, name := range channels {
		if name != "" {
			configured++
		}
	}

	switch configured {
	case 0:
	case len(channels):
		for _, name := range channels {
			channel, err := b.open(path.Join(root, name))
			if err != nil {
				return nil, err
			}

			b.rgb = append(b.rgb, channel)
		}
	default:
		return nil, fmt.Errorf("rgb led needs red, green and blue channels, got %d", configured)
	}

	return b, nil
}

func (b *boardImpl) open(dir string) (led, error) {
	if _, err := b.fs.Stat(path.Join(dir, "brightness")); err != nil {
		return led{}, fmt.Errorf("led %s: %w", dir, err)
	}

	maxBrightness := fallbackMax

	raw, err := afero.ReadFile(b.fs, path.Join(dir, "max_brightness"))
	if err == nil {
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(raw))); parseErr == nil && parsed > 0 {
			maxBrightness = parsed
		}
	} else {
		b.logger.Debug().Str("led", dir).Msg("no max_brightness, assuming 255")
	}

	return led{dir: dir, max: maxBrightness}, nil
}

func (b *boardImpl) write(l led, attribute, value string) error {
	f, err := b.fs.OpenFile(path.Join(l.dir, attribute), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}

	if _, err = f.WriteString(value); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func (b *boardImpl) SetLightState(state actuator.LightState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch state {
	case actuator.LightOn:
		if err := b.write(b.light, "trigger", "none"); err != nil {
			return err
		}

		return b.write(b.light, "brightness", strconv.Itoa(b.light.max))
	case actuator.LightOff:
		if err := b.write(b.light, "trigger", "none"); err != nil {
			return err
		}

		return b.write(b.light, "brightness", "0")
	case actuator.LightBlink:
		if err := b.write(b.light, "trigger", "timer"); err != nil {
			return err
		}

		if err := b.write(b.light, "delay_on", strconv.FormatInt(b.blinkOn.Milliseconds(), 10)); err != nil {
			return err
		}

		return b.write(b.light, "delay_off", strconv.FormatInt(b.blinkOff.Milliseconds(), 10))
	}

	return fmt.Errorf("%w: %d", actuator.ErrUnknownLightState, int(state))
}

func (b *boardImpl) SetLEDColor(color actuator.Color) error {
	if len(b.rgb) == 0 {
		return ErrNoRGB
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, value := range []uint8{color.R, color.G, color.B} {
		channel := b.rgb[i]
		scaled := int(value) * channel.max / 255

		if err := b.write(channel, "brightness", strconv.Itoa(scaled)); err != nil {
			return err
		}
	}

	return nil
}

func (b *boardImpl) Close() error {
	return nil
}
