// Package fake provides an in-memory actuator that records every call.
package fake

import (
	"context"
	"sync"
	"time"

	"voice-commander/actuator"
)

var _ actuator.Interface = (*Actuator)(nil)

// Actuator records calls in order. The error fields are returned by the
// matching call; the delay fields make Speak and PlayAudio block.
type Actuator struct {
	LightErr   error
	ColorErr   error
	SpeakErr   error
	PlayErr    error
	SpeakDelay time.Duration
	PlayDelay  time.Duration

	mu     sync.Mutex
	lights []actuator.LightState
	colors []actuator.Color
	spoken []string
	played []string
	events []string
	closed bool
}

func New() *Actuator {
	return &Actuator{}
}

func (a *Actuator) record(event string) {
	a.events = append(a.events, event)
}

func (a *Actuator) SetLightState(state actuator.LightState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record("light:" + state.String())

	if a.LightErr != nil {
		return a.LightErr
	}

	a.lights = append(a.lights, state)

	return nil
}

func (a *Actuator) SetLEDColor(color actuator.Color) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record("color")

	if a.ColorErr != nil {
		return a.ColorErr
	}

	a.colors = append(a.colors, color)

	return nil
}

func (a *Actuator) Speak(ctx context.Context, text string) error {
	if err := sleep(ctx, a.SpeakDelay); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.record("speak:" + text)

	if a.SpeakErr != nil {
		return a.SpeakErr
	}

	a.spoken = append(a.spoken, text)

	return nil
}

func (a *Actuator) PlayAudio(ctx context.Context, clipID string) error {
	if err := sleep(ctx, a.PlayDelay); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.record("play:" + clipID)

	if a.PlayErr != nil {
		return a.PlayErr
	}

	a.played = append(a.played, clipID)

	return nil
}

func (a *Actuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true

	return nil
}

func (a *Actuator) Lights() []actuator.LightState {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]actuator.LightState(nil), a.lights...)
}

func (a *Actuator) Colors() []actuator.Color {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]actuator.Color(nil), a.colors...)
}

func (a *Actuator) Spoken() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.spoken...)
}

func (a *Actuator) Played() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.played...)
}

// Events returns every call in the order it happened, including failed ones.
func (a *Actuator) Events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.events...)
}

func (a *Actuator) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
