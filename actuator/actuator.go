package actuator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type actuatorImpl struct {
	board   Board
	speaker Speaker
	player  Player
	logger  zerolog.Logger
	closed  atomic.Bool
}

type Config struct {
	Board   Board
	Speaker Speaker
	Player  Player
	Logger  zerolog.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	if cfg.Speaker == nil {
		return nil, fmt.Errorf("speaker is nil")
	}

	if cfg.Player == nil {
		return nil, fmt.Errorf("player is nil")
	}

	return &actuatorImpl{
		board:   cfg.Board,
		speaker: cfg.Speaker,
		player:  cfg.Player,
		logger:  cfg.Logger.With().Str("component", "actuator").Logger(),
	}, nil
}

func (a *actuatorImpl) SetLightState(state LightState) error {
	if a.closed.Load() {
		return ErrClosed
	}

	if !state.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownLightState, int(state))
	}

	a.logger.Debug().Stringer("state", state).Msg("setting light")

	if err := a.board.SetLightState(state); err != nil {
		return fmt.Errorf("set light %s: %w", state, err)
	}

	return nil
}

func (a *actuatorImpl) SetLEDColor(color Color) error {
	if a.closed.Load() {
		return ErrClosed
	}

	if err := a.board.SetLEDColor(color); err != nil {
		return fmt.Errorf("set led %s: %w", color, err)
	}

	return nil
}

func (a *actuatorImpl) Speak(ctx context.Context, text string) error {
	if a.closed.Load() {
		return ErrClosed
	}

	a.logger.Debug().Str("text", text).Msg("speaking")

	if err := a.speaker.Speak(ctx, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}

	return nil
}

func (a *actuatorImpl) PlayAudio(ctx context.Context, clipID string) error {
	if a.closed.Load() {
		return ErrClosed
	}

	a.logger.Debug().Str("clip", clipID).Msg("playing clip")

	if err := a.player.Play(ctx, clipID); err != nil {
		return fmt.Errorf("play %s: %w", clipID, err)
	}

	return nil
}

// Close turns the light and LED off (boards without an RGB LED only turn
// the light off) and releases every part that holds
// resources. Calling it more than once is a no-op.
func (a *actuatorImpl) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	var errs []error

	if err := a.board.SetLEDColor(Color{}); err != nil && !errors.Is(err, ErrNoColor) {
		errs = append(errs, err)
	}

	if err := a.board.SetLightState(LightOff); err != nil {
		errs = append(errs, err)
	}

	if err := a.board.Close(); err != nil {
		errs = append(errs, err)
	}

	for _, part := range []any{a.speaker, a.player} {
		if closer, ok := part.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
