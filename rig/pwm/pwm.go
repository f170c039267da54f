package pwm

// MaxDuty is the full-scale 16 bit duty value. All outputs use 16 bit duty
// resolution regardless of the resolution of the underlying hardware.
const MaxDuty = 0xFFFF

// Output is a single PWM channel. Implementations exist for sysfs channels,
// PCA9685 expander channels and MCU bridge channels, plus FakeOutput for
// the simulator and tests.
type Output interface {
	// SetFrequency sets the carrier frequency in Hz for the channel. On
	// shared-clock controllers this affects every channel of the controller.
	SetFrequency(hz uint) error
	Frequency() uint

	// SetDuty sets the active fraction of each period, 0 - MaxDuty.
	SetDuty(duty uint16) error
	Duty() uint16
}
