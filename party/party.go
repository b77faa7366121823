// Package party runs the party effect: an announcement and a random LED color
// sequence at the same time, joined before returning.
package party

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"voice-commander/actuator"
)

const (
	DefaultSteps        = 20
	DefaultDwell        = 400 * time.Millisecond
	DefaultAnnouncement = "Turn up the music, it's party time!"
	DefaultClip         = "partyM.wav"
)

var ErrAlreadyRunning = errors.New("party already running")

type Config struct {
	Steps        int
	Dwell        time.Duration
	Announcement string
	Clip         string

	// Rand picks the colors. Seed it for a repeatable sequence.
	Rand   *rand.Rand
	Logger zerolog.Logger
}

type Engine struct {
	steps        int
	dwell        time.Duration
	announcement string
	clip         string
	rand         *rand.Rand
	logger       zerolog.Logger
	running      atomic.Bool
}

func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Steps < 0 {
		return nil, fmt.Errorf("steps must not be negative, got %d", cfg.Steps)
	}

	if cfg.Dwell < 0 {
		return nil, fmt.Errorf("dwell must not be negative, got %s", cfg.Dwell)
	}

	e := &Engine{
		steps:        cfg.Steps,
		dwell:        cfg.Dwell,
		announcement: cfg.Announcement,
		clip:         cfg.Clip,
		rand:         cfg.Rand,
		logger:       cfg.Logger.With().Str("component", "party").Logger(),
	}

	if e.steps == 0 {
		e.steps = DefaultSteps
	}

	if e.dwell == 0 {
		e.dwell = DefaultDwell
	}

	if e.announcement == "" {
		e.announcement = DefaultAnnouncement
	}

	if e.clip == "" {
		e.clip = DefaultClip
	}

	if e.rand == nil {
		seed := uint64(time.Now().UnixNano())
		e.rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return e, nil
}

// Run forks the color sequence onto one worker goroutine, performs the
// announcement on the caller, and waits for both. Errors from both halves are
// returned together. A panic in the worker is re-raised here after the join.
func (e *Engine) Run(ctx context.Context, act actuator.Interface) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	defer e.running.Store(false)

	e.logger.Info().
		Int("steps", e.steps).
		Dur("dwell", e.dwell).
		Msg("party started")

	var (
		wg       conc.WaitGroup
		colorErr error
	)

	wg.Go(func() {
		colorErr = e.cycleColors(ctx, act)
	})

	announceErr := e.announce(ctx, act)

	wg.Wait()

	var errs []error

	if announceErr != nil {
		errs = append(errs, fmt.Errorf("announcement: %w", announceErr))
	}

	if colorErr != nil {
		errs = append(errs, fmt.Errorf("colors: %w", colorErr))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	e.logger.Info().Msg("party finished")

	return nil
}

func (e *Engine) announce(ctx context.Context, act actuator.Interface) error {
	if err := act.Speak(ctx, e.announcement); err != nil {
		return err
	}

	return act.PlayAudio(ctx, e.clip)
}

func (e *Engine) cycleColors(ctx context.Context, act actuator.Interface) error {
	timer := time.NewTimer(0)
	<-timer.C

	defer timer.Stop()

	for i := 0; i < e.steps; i++ {
		color := actuator.Color{
			R: uint8(e.rand.IntN(256)),
			G: uint8(e.rand.IntN(256)),
			B: uint8(e.rand.IntN(256)),
		}

		if err := act.SetLEDColor(color); err != nil {
			return err
		}

		timer.Reset(e.dwell)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}
