// Package dispatch turns recognized utterances into device actions.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"voice-commander/actuator"
	"voice-commander/commands"
	"voice-commander/listener"
	"voice-commander/locale"
	"voice-commander/metrics"
)

type dispatcherImpl struct {
	language   string
	hints      []string
	table      *commands.Table
	recognizer listener.Interface
	actuator   actuator.Interface
	party      PartyRunner
	silence    SilencePolicy
	logger     zerolog.Logger
	state      atomic.Int32
}

type Config struct {
	// Language overrides the system locale when set.
	Language  string
	LookupEnv locale.LookupEnv

	Recognizer    listener.Interface
	Actuator      actuator.Interface
	Party         PartyRunner
	SilencePolicy SilencePolicy
	Logger        zerolog.Logger
}

// ResolveLanguage picks the listening language (explicit, else the system
// locale) and builds its command table. Every failure wraps
// commands.ErrUnsupportedLanguage. It touches no device.
func ResolveLanguage(explicit string, lookup locale.LookupEnv) (language.Tag, *commands.Table, error) {
	tag, err := locale.Resolve(explicit, lookup)
	if err != nil {
		return language.Und, nil, fmt.Errorf("%w: %w", commands.ErrUnsupportedLanguage, err)
	}

	table, err := commands.ForLanguage(tag)
	if err != nil {
		return language.Und, nil, err
	}

	return tag, table, nil
}

// New resolves the language and builds its command table. It never calls the
// recognizer, so an unsupported language fails before anything is heard.
func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is nil")
	}

	if cfg.Actuator == nil {
		return nil, fmt.Errorf("actuator is nil")
	}

	if cfg.Party == nil {
		return nil, fmt.Errorf("party is nil")
	}

	silence, err := ParseSilencePolicy(string(cfg.SilencePolicy))
	if err != nil {
		return nil, err
	}

	tag, table, err := ResolveLanguage(cfg.Language, cfg.LookupEnv)
	if err != nil {
		return nil, err
	}

	d := &dispatcherImpl{
		language:   tag.String(),
		hints:      table.Hints(),
		table:      table,
		recognizer: cfg.Recognizer,
		actuator:   cfg.Actuator,
		party:      cfg.Party,
		silence:    silence,
		logger:     cfg.Logger.With().Str("component", "dispatch").Logger(),
	}

	d.logger.Debug().
		Str("language", d.language).
		Strs("hints", d.hints).
		Str("silence_policy", string(silence)).
		Msg("command table ready")

	return d, nil
}

func (d *dispatcherImpl) State() State {
	return State(d.state.Load())
}

func (d *dispatcherImpl) Language() string {
	return d.language
}

func (d *dispatcherImpl) Hints() []string {
	return append([]string(nil), d.hints...)
}

func (d *dispatcherImpl) setState(s State) {
	d.state.Store(int32(s))
}

func (d *dispatcherImpl) Run(ctx context.Context) error {
	defer d.setState(StateTerminated)

	prompt := d.prompt()

	for {
		d.setState(StateListening)

		if err := ctx.Err(); err != nil {
			return err
		}

		d.logger.Info().Msg(prompt)

		text, ok, err := d.recognizer.Recognize(ctx, d.language, d.hints)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			return fmt.Errorf("recognize: %w", err)
		}

		if !ok {
			metrics.Utterances.WithLabelValues("silence").Inc()
			d.logger.Info().Msg("You said nothing.")

			if d.silence == SilenceParty {
				d.setState(StateExecuting)

				if _, err = d.Execute(ctx, commands.Party()); err != nil {
					d.logger.Error().Err(err).Msg("party on silence failed")
				}
			}

			continue
		}

		d.logger.Info().Msgf("You said: %q", text)

		action, found := d.table.Lookup(text)
		if !found {
			metrics.Utterances.WithLabelValues("unmatched").Inc()
			d.logger.Warn().Str("utterance", text).Msg("Command not recognized.")
			continue
		}

		metrics.Utterances.WithLabelValues("matched").Inc()
		d.setState(StateExecuting)

		terminate, err := d.Execute(ctx, action)
		if err != nil {
			d.logger.Error().Err(err).Stringer("action", action).Msg("action failed")
		}

		if terminate {
			d.logger.Info().Msg("Goodbye.")
			return nil
		}
	}
}

// Execute performs one action. Failures are counted and returned; they never
// end the loop.
func (d *dispatcherImpl) Execute(ctx context.Context, action commands.Action) (bool, error) {
	kind := action.Kind.String()
	metrics.Actions.WithLabelValues(kind).Inc()

	err := d.execute(ctx, action)
	if err != nil {
		metrics.ActionFailures.WithLabelValues(kind).Inc()
	}

	return action.Kind == commands.KindTerminate, err
}

func (d *dispatcherImpl) execute(ctx context.Context, action commands.Action) error {
	switch action.Kind {
	case commands.KindSetLight:
		return d.actuator.SetLightState(action.Light)

	case commands.KindParty:
		start := time.Now()
		err := d.party.Run(ctx, d.actuator)
		metrics.PartyDuration.Observe(time.Since(start).Seconds())

		return err

	case commands.KindRepeat:
		if action.Payload == "" {
			d.logger.Warn().Msg("No text to repeat.")
			return nil
		}

		return d.actuator.Speak(ctx, action.Payload)

	case commands.KindTerminate:
		return nil
	}

	return errors.New("unknown action " + action.String())
}

func (d *dispatcherImpl) prompt() string {
	quoted := make([]string, len(d.hints))
	for i, hint := range d.hints {
		quoted[i] = strconv.Quote(hint)
	}

	return "Say something, e.g. " + strings.Join(quoted, ", ") + "."
}
