package stepper

import (
	"math"

	"github.com/openactuator/motorkit/rig/errors"
	"github.com/openactuator/motorkit/rig/pwm"
)

type Direction int

const (
	Forward Direction = iota + 1
	Backward
)

// Style selects how much of a rotation OneStep performs. Single and Double
// are full steps, Interleave is a half step and Microstep is the smallest
// configured fraction.
type Style int

const (
	// StyleSingle energizes a single coil per step.
	StyleSingle Style = iota + 1
	// StyleDouble energizes two coils per step for more torque.
	StyleDouble
	// StyleInterleave alternates single and double coil steps.
	StyleInterleave
	// StyleMicrostep partially energizes two neighboring coils.
	StyleMicrostep
)

// coil activation bitmasks for whole-step sequencing
var (
	singleSteps     = []uint8{0x2, 0x4, 0x1, 0x8}
	doubleSteps     = []uint8{0xA, 0x6, 0x5, 0x9}
	interleaveSteps = []uint8{0xA, 0x2, 0x6, 0x4, 0x5, 0x1, 0x9, 0x8}
)

const minCoilFrequency = 1500

// Stepper drives a bipolar stepper or four coil unipolar motor through four
// PWM outputs. With microsteps zero the coils are switched hard on and off
// and only the whole-step styles are available.
type Stepper struct {
	coils      [4]pwm.Output
	curve      []uint16
	microsteps int
	current    int
	steps      []uint8 // active whole-step table, nil until the first step
}

func New(ain1, ain2, bin1, bin2 pwm.Output, microsteps int) (*Stepper, error) {
	s := &Stepper{microsteps: microsteps}

	if microsteps == 0 {
		s.coils = [4]pwm.Output{ain1, ain2, bin1, bin2}
	} else {
		// microstepping interleaves neighboring coils, so reorder
		s.coils = [4]pwm.Output{ain2, bin1, ain1, bin2}

		for _, coil := range s.coils {
			if coil.Frequency() < minCoilFrequency {
				if err := coil.SetFrequency(2000); err != nil {
					return nil, errors.CoilFrequencyError{Hz: coil.Frequency()}
				}
			}
		}

		if microsteps < 2 || microsteps%2 == 1 {
			return nil, errors.MicrostepCountError{Count: microsteps}
		}

		s.curve = make([]uint16, microsteps+1)
		for i := range s.curve {
			s.curve[i] = uint16(math.Round(pwm.MaxDuty * math.Sin(math.Pi/(2*float64(microsteps))*float64(i))))
		}
	}

	if err := s.updateCoils(false); err != nil {
		return nil, err
	}
	return s, nil
}

// Microstep reports the current microstep counter.
func (s *Stepper) Microstep() int {
	return s.current
}

func (s *Stepper) updateCoils(microstepping bool) error {
	if s.microsteps == 0 {
		var steps uint8
		if s.steps != nil {
			steps = s.steps[mod(s.current, len(s.steps))]
		}

		for i, coil := range s.coils {
			var duty uint16
			if steps>>uint(i)&0x1 != 0 {
				duty = pwm.MaxDuty
			}
			if err := coil.SetDuty(duty); err != nil {
				return err
			}
		}
		return nil
	}

	var duty [4]uint16
	trailing := mod(floorDiv(s.current, s.microsteps), 4)
	leading := (trailing + 1) % 4
	microstep := mod(s.current, s.microsteps)
	duty[leading] = s.curve[microstep]
	duty[trailing] = s.curve[s.microsteps-microstep]

	// Double steps want full torque. Without this they would sit at the
	// crossover point of the microstepping curve (0xB504).
	if !microstepping && duty[leading] == duty[trailing] && duty[leading] > 0 {
		duty[leading] = pwm.MaxDuty
		duty[trailing] = pwm.MaxDuty
	}

	for i, coil := range s.coils {
		if err := coil.SetDuty(duty[i]); err != nil {
			return err
		}
	}
	return nil
}

// Release de-energizes all coils so the motor can spin freely and draws no
// power.
func (s *Stepper) Release() error {
	for _, coil := range s.coils {
		if err := coil.SetDuty(0); err != nil {
			return err
		}
	}
	return nil
}

// OneStep performs one step of the given style and returns the microstep
// counter. Mixing styles may produce shortened steps while the sequence
// realigns to the new style's pattern.
func (s *Stepper) OneStep(direction Direction, style Style) (int, error) {
	if direction != Forward && direction != Backward {
		return s.current, errors.StepDirectionError{Direction: int(direction)}
	}

	var stepSize int

	if s.microsteps == 0 {
		stepSize = 1
		switch style {
		case StyleSingle:
			s.steps = singleSteps
		case StyleDouble:
			s.steps = doubleSteps
		case StyleInterleave:
			s.steps = interleaveSteps
		default:
			return s.current, errors.StepStyleError{Style: int(style)}
		}
	} else if style == StyleMicrostep {
		stepSize = 1
	} else {
		halfStep := s.microsteps / 2
		fullStep := s.microsteps

		// previous steps may have been microsteps, so realign with the
		// interleave pattern first
		additional := mod(s.current, halfStep)
		if additional != 0 {
			if direction == Forward {
				s.current += halfStep - additional
			} else {
				s.current -= additional
			}
			stepSize = 0
		} else if style == StyleInterleave {
			stepSize = halfStep
		}

		interleavePos := floorDiv(s.current, halfStep)
		if (style == StyleSingle && mod(interleavePos, 2) == 1) ||
			(style == StyleDouble && mod(interleavePos, 2) == 0) {
			stepSize = halfStep
		} else if style == StyleSingle || style == StyleDouble {
			stepSize = fullStep
		}
	}

	if direction == Forward {
		s.current += stepSize
	} else {
		s.current -= stepSize
	}

	if err := s.updateCoils(style == StyleMicrostep); err != nil {
		return s.current, err
	}

	return s.current, nil
}

// mod is a floored modulus; the step counter goes negative when stepping
// backward past zero.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
