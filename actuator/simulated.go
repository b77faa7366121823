package actuator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// SimulatedBoard logs light and LED changes instead of touching hardware.
type SimulatedBoard struct {
	mu     sync.Mutex
	logger zerolog.Logger
	light  LightState
	color  Color
}

func NewSimulatedBoard(logger zerolog.Logger) *SimulatedBoard {
	return &SimulatedBoard{
		logger: logger.With().Str("component", "simulated-board").Logger(),
	}
}

func (b *SimulatedBoard) SetLightState(state LightState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.light != state {
		b.logger.Info().Stringer("state", state).Msg("light")
	}

	b.light = state

	return nil
}

func (b *SimulatedBoard) SetLEDColor(color Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logger.Debug().Stringer("color", color).Msg("led")
	b.color = color

	return nil
}

func (b *SimulatedBoard) Close() error {
	return nil
}

// SilentSpeaker logs what would have been said.
type SilentSpeaker struct {
	Logger zerolog.Logger
}

func (s SilentSpeaker) Speak(_ context.Context, text string) error {
	s.Logger.Info().Str("text", text).Msg("say")
	return nil
}

// SilentPlayer logs which clip would have played.
type SilentPlayer struct {
	Logger zerolog.Logger
}

func (p SilentPlayer) Play(_ context.Context, clipID string) error {
	p.Logger.Info().Str("clip", clipID).Msg("play")
	return nil
}
