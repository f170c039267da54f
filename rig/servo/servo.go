package servo

import (
	"github.com/openactuator/motorkit/rig/errors"
	"github.com/openactuator/motorkit/rig/pwm"
)

// Hobby servos encode position as pulse width on a fixed carrier, usually
// 50Hz. Historically the range was 1000-2000us for 90 degrees; most modern
// servos do 170-180 degrees and need wider pulses. The defaults below give
// about 135 degrees on a typical servo; calibrate PulseWidthRange and
// ActuationRange against the hardware you have. Pushing the pulse range too
// far runs the mechanism into its end stops, where it buzzes and stalls.
const (
	DefaultMinPulse       = 750  // microseconds
	DefaultMaxPulse       = 2250 // microseconds
	DefaultActuationRange = 180  // degrees
)

// pulser converts a 0.0-1.0 fraction of the pulse width range into 16 bit
// duty on the underlying output.
type pulser struct {
	out       pwm.Output
	minDuty   int
	dutyRange int
}

func (p *pulser) setPulseWidthRange(minPulse, maxPulse int) {
	freq := float64(p.out.Frequency())
	p.minDuty = int(float64(minPulse) * freq / 1e6 * pwm.MaxDuty)
	maxDuty := float64(maxPulse) * freq / 1e6 * pwm.MaxDuty
	p.dutyRange = int(maxDuty) - p.minDuty
}

// fraction reports position as a fraction of the pulse width range. The bool
// is false when the servo is disabled (no pulses).
func (p *pulser) fraction() (float64, bool) {
	duty := p.out.Duty()
	if duty == 0 {
		return 0, false
	}
	return float64(int(duty)-p.minDuty) / float64(p.dutyRange), true
}

func (p *pulser) setFraction(value float64) error {
	if value < 0.0 || value > 1.0 {
		return errors.FractionRangeError{Value: value}
	}
	duty := p.minDuty + int(value*float64(p.dutyRange))
	return p.out.SetDuty(uint16(duty))
}

// disable stops sending pulses. Most servos go limp.
func (p *pulser) disable() error {
	return p.out.SetDuty(0)
}

// Servo is a positional servo on a single PWM output. The output must have
// its carrier frequency set before the servo is created; the pulse width
// mapping is derived from it.
type Servo struct {
	pulser

	// ActuationRange is the physical range of motion in degrees for the
	// configured pulse width range. Adjustable at any time.
	ActuationRange float64
}

func New(out pwm.Output) *Servo {
	s := &Servo{ActuationRange: DefaultActuationRange}
	s.out = out
	s.setPulseWidthRange(DefaultMinPulse, DefaultMaxPulse)
	return s
}

// SetPulseWidthRange recalibrates the min and max pulse widths, in
// microseconds.
func (s *Servo) SetPulseWidthRange(minPulse, maxPulse int) {
	s.setPulseWidthRange(minPulse, maxPulse)
}

func (s *Servo) SetFraction(value float64) error {
	return s.setFraction(value)
}

func (s *Servo) Fraction() (float64, bool) {
	return s.fraction()
}

// Angle reports the servo position in degrees. The bool is false when the
// servo is disabled.
func (s *Servo) Angle() (float64, bool) {
	f, ok := s.fraction()
	if !ok {
		return 0, false
	}
	return s.ActuationRange * f, true
}

// SetAngle moves the servo to an angle between 0 and ActuationRange degrees.
func (s *Servo) SetAngle(angle float64) error {
	if angle < 0 || angle > s.ActuationRange {
		return errors.AngleRangeError{Value: angle, Max: s.ActuationRange}
	}
	return s.setFraction(angle / s.ActuationRange)
}

// Disable stops driving the servo.
func (s *Servo) Disable() error {
	return s.disable()
}

// ContinuousServo is a continuous rotation servo: the pulse width range maps
// to speed rather than position, with the midpoint stopped.
type ContinuousServo struct {
	pulser
}

func NewContinuous(out pwm.Output) *ContinuousServo {
	c := new(ContinuousServo)
	c.out = out
	c.setPulseWidthRange(DefaultMinPulse, DefaultMaxPulse)
	return c
}

func (c *ContinuousServo) SetPulseWidthRange(minPulse, maxPulse int) {
	c.setPulseWidthRange(minPulse, maxPulse)
}

// SetThrottle drives the servo at a speed between -1.0 (full reverse) and
// +1.0 (full forward).
func (c *ContinuousServo) SetThrottle(value float64) error {
	if value < -1.0 || value > 1.0 {
		return errors.ThrottleRangeError{Value: value}
	}
	return c.setFraction((value + 1) / 2)
}

// Throttle reports the current speed. The bool is false when disabled.
func (c *ContinuousServo) Throttle() (float64, bool) {
	f, ok := c.fraction()
	if !ok {
		return 0, false
	}
	return f*2 - 1, true
}

func (c *ContinuousServo) Disable() error {
	return c.disable()
}
