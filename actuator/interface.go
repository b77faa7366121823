// Package actuator is the single output handle of the device: the status
// light, the RGB LED, speech synthesis and clip playback.
package actuator

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownLightState = errors.New("unknown light state")
	ErrClosed            = errors.New("actuator closed")
	ErrNoColor           = errors.New("rgb led not configured")
)

type LightState int

const (
	LightOff LightState = iota
	LightOn
	LightBlink
)

func (s LightState) String() string {
	switch s {
	case LightOff:
		return "off"
	case LightOn:
		return "on"
	case LightBlink:
		return "blink"
	}

	return fmt.Sprintf("LightState(%d)", int(s))
}

func (s LightState) Valid() bool {
	return s == LightOff || s == LightOn || s == LightBlink
}

// Color is one RGB triple for the LED.
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Interface is safe for one goroutine driving the LED while another speaks or
// plays audio.
type Interface interface {
	SetLightState(state LightState) error
	SetLEDColor(color Color) error
	Speak(ctx context.Context, text string) error
	PlayAudio(ctx context.Context, clipID string) error
	Close() error
}

// Board drives the light and LED hardware.
type Board interface {
	SetLightState(state LightState) error
	SetLEDColor(color Color) error
	Close() error
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Player interface {
	Play(ctx context.Context, clipID string) error
}
