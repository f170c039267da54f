package motor

import (
	"github.com/openactuator/motorkit/rig/errors"
	"github.com/openactuator/motorkit/rig/pwm"
)

// DecayMode selects how an h-bridge controller recirculates coil current
// between PWM pulses. Only controller chips such as the DRV8833, DRV8871 and
// TB6612 care; discrete h-bridges behave the same either way.
type DecayMode int

const (
	// FastDecay coasts the motor between pulses. Default.
	FastDecay DecayMode = iota
	// SlowDecay brakes between pulses. Improves spin threshold and
	// speed-to-throttle linearity.
	SlowDecay
)

func (m DecayMode) String() string {
	if m == SlowDecay {
		return "slow"
	}
	return "fast"
}

// Motor is a DC motor behind an h-bridge, driven by two PWM outputs. Swap the
// two outputs if the motor runs backwards from what you expect for forwards.
type Motor struct {
	positive, negative pwm.Output
	throttle           float64
	running            bool
	decay              DecayMode
}

func New(positive, negative pwm.Output) *Motor {
	return &Motor{
		positive: positive,
		negative: negative,
	}
}

func (m *Motor) DecayMode() DecayMode {
	return m.decay
}

func (m *Motor) SetDecayMode(mode DecayMode) error {
	if mode != FastDecay && mode != SlowDecay {
		return errors.DecayModeError{Mode: int(mode)}
	}
	m.decay = mode
	return nil
}

// Throttle reports the current throttle. The bool is false when the
// controller is off (coasting with both bridge inputs released).
func (m *Motor) Throttle() (float64, bool) {
	return m.throttle, m.running
}

// SetThrottle drives the motor at value, -1.0 (full reverse) to +1.0 (full
// forward). Zero brakes the motor by turning both bridge inputs full on; use
// Coast to release it instead.
func (m *Motor) SetThrottle(value float64) error {
	if value > 1.0 || value < -1.0 {
		return errors.ThrottleRangeError{Value: value}
	}

	var pos, neg uint16
	duty := uint16(pwm.MaxDuty * abs(value))

	switch {
	case value == 0:
		// brake (low-Z)
		pos, neg = pwm.MaxDuty, pwm.MaxDuty

	case m.decay == SlowDecay && value < 0:
		pos, neg = pwm.MaxDuty-duty, pwm.MaxDuty

	case m.decay == SlowDecay:
		pos, neg = pwm.MaxDuty, pwm.MaxDuty-duty

	case value < 0:
		pos, neg = 0, duty

	default:
		pos, neg = duty, 0
	}

	if err := m.write(pos, neg); err != nil {
		return err
	}

	m.throttle = value
	m.running = true
	return nil
}

// Coast turns the controller off (high-Z), letting the motor spin freely.
func (m *Motor) Coast() error {
	if err := m.write(0, 0); err != nil {
		return err
	}

	m.throttle = 0
	m.running = false
	return nil
}

func (m *Motor) write(pos, neg uint16) error {
	if err := m.positive.SetDuty(pos); err != nil {
		return err
	}
	return m.negative.SetDuty(neg)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
