package pwm

import "errors"

// Fake PWM for testing and the rig simulator

const DefaultFakeFrequency = 50

type FakeOutput struct {
	name string
	freq uint
	duty uint16

	// Fail forces every call to error, for exercising failure paths in tests.
	Fail error
}

func NewFakeOutput(name string) *FakeOutput {
	return &FakeOutput{
		name: name,
		freq: DefaultFakeFrequency,
	}
}

func (f *FakeOutput) Name() string {
	return f.name
}

func (f *FakeOutput) SetFrequency(hz uint) error {
	if f.Fail != nil {
		return f.Fail
	}
	if hz == 0 {
		return errors.New("frequency must be non-zero")
	}
	f.freq = hz
	return nil
}

func (f *FakeOutput) Frequency() uint {
	return f.freq
}

func (f *FakeOutput) SetDuty(duty uint16) error {
	if f.Fail != nil {
		return f.Fail
	}
	f.duty = duty
	return nil
}

func (f *FakeOutput) Duty() uint16 {
	return f.duty
}
