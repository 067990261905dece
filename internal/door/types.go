// Package door contains the door observation and control engine: debounced
// sampling of the limit switches, door state classification and command
// dispatch to the operate relay.
// Time is always injectable through a Clock; nothing here calls time.Sleep
// directly.
package door

import (
	"fmt"

	"github.com/sweeney/garage-door/internal/gpio"
)

// SensorPin identifies one of the two limit-switch inputs.
type SensorPin = gpio.Line

const (
	OpenLimit  SensorPin = gpio.LineOpenLimit
	CloseLimit SensorPin = gpio.LineCloseLimit
)

// Level is a debounced reading of a sensor pin.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func levelOf(high bool) Level {
	if high {
		return High
	}
	return Low
}

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// State is the classified state of the door.
type State string

const (
	StateOpen         State = "OPEN"
	StateClosed       State = "CLOSED"
	StateTransitional State = "TRANSITIONAL"
	StateFlashing     State = "FLASHING"
)

// Classification is the result of one classification pass.
// OpenLimit and CloseLimit come from the same paired debounce pass.
type Classification struct {
	OpenLimit  Level
	CloseLimit Level
	State      State
}

// Flashing reports whether motion was detected.
func (c Classification) Flashing() bool {
	return c.State == StateFlashing
}

// Command is a request to actuate the door.
type Command string

const (
	CommandOpen    Command = "OPEN"
	CommandClose   Command = "CLOSE"
	CommandOperate Command = "OPERATE"
)

// ParseCommand maps a lowercase endpoint name to a Command.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "open":
		return CommandOpen, nil
	case "close":
		return CommandClose, nil
	case "operate":
		return CommandOperate, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Outcome is the result of dispatching a command.
type Outcome struct {
	Command Command
	State   State // state the decision was made against; empty for OPERATE
	Pulsed  bool
	Message string
}
