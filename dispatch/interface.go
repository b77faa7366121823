package dispatch

import (
	"context"
	"fmt"

	"voice-commander/actuator"
	"voice-commander/commands"
)

// Interface is the command loop. Run listens and executes until a terminate
// command, a recognition failure, or ctx ends.
type Interface interface {
	Run(ctx context.Context) error
	Execute(ctx context.Context, action commands.Action) (terminate bool, err error)
	State() State
	Language() string
	Hints() []string
}

// PartyRunner runs the party effect to completion on the given actuator.
type PartyRunner interface {
	Run(ctx context.Context, act actuator.Interface) error
}

type State int32

const (
	StateInit State = iota
	StateListening
	StateExecuting
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateListening:
		return "listening"
	case StateExecuting:
		return "executing"
	case StateTerminated:
		return "terminated"
	}

	return fmt.Sprintf("State(%d)", int32(s))
}

// SilencePolicy says what to do when a recognition cycle hears nothing.
type SilencePolicy string

const (
	SilenceIgnore SilencePolicy = "ignore"
	SilenceParty  SilencePolicy = "party"
)

func ParseSilencePolicy(value string) (SilencePolicy, error) {
	switch SilencePolicy(value) {
	case "", SilenceIgnore:
		return SilenceIgnore, nil
	case SilenceParty:
		return SilenceParty, nil
	}

	return "", fmt.Errorf("unknown silence policy %q", value)
}
