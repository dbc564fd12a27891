package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	// DropFrame discards the frame and keeps the connection.
	DropFrame
	// Disconnect closes the connection; its reader then runs normal cleanup.
	Disconnect
)

type Policy interface {
	OnBackPressure(id core.ConnID) BackpressureAction
}

// StaticPolicy answers every overflow with the same action.
type StaticPolicy BackpressureAction

func (p StaticPolicy) OnBackPressure(core.ConnID) BackpressureAction {
	return BackpressureAction(p)
}

// ParsePolicy maps the configured backpressure mode to a Policy.
func ParsePolicy(mode string) (Policy, error) {
	switch mode {
	case "", "disconnect":
		return StaticPolicy(Disconnect), nil
	case "drop":
		return StaticPolicy(DropFrame), nil
	default:
		return nil, fmt.Errorf("unknown backpressure mode %q", mode)
	}
}
