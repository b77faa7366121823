package commands

import (
	"fmt"

	"voice-commander/actuator"
)

type Kind int

const (
	KindSetLight Kind = iota + 1
	KindParty
	KindRepeat
	KindTerminate
)

func (k Kind) String() string {
	switch k {
	case KindSetLight:
		return "set_light"
	case KindParty:
		return "party"
	case KindRepeat:
		return "repeat"
	case KindTerminate:
		return "terminate"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is what a recognized phrase asks the device to do. Light is only
// meaningful for KindSetLight, Payload only for KindRepeat.
type Action struct {
	Kind    Kind
	Light   actuator.LightState
	Payload string
}

func SetLight(state actuator.LightState) Action {
	return Action{Kind: KindSetLight, Light: state}
}

func Party() Action {
	return Action{Kind: KindParty}
}

func Repeat(payload string) Action {
	return Action{Kind: KindRepeat, Payload: payload}
}

func Terminate() Action {
	return Action{Kind: KindTerminate}
}

func (a Action) String() string {
	switch a.Kind {
	case KindSetLight:
		return "set_light(" + a.Light.String() + ")"
	case KindRepeat:
		return fmt.Sprintf("repeat(%q)", a.Payload)
	}

	return a.Kind.String()
}
