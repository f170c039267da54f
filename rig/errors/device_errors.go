package errors

import "fmt"

type DeviceNameError struct {
	Name string
}

func (err DeviceNameError) Error() string {
	return fmt.Sprintf("no such device %s", err.Name)
}

type ThrottleRangeError struct {
	Value float64
}

func (err ThrottleRangeError) Error() string {
	return fmt.Sprintf("throttle %g out of range; must be between -1.0 and +1.0", err.Value)
}

type FractionRangeError struct {
	Value float64
}

func (err FractionRangeError) Error() string {
	return fmt.Sprintf("fraction %g out of range; must be between 0.0 and 1.0", err.Value)
}

type AngleRangeError struct {
	Value, Max float64
}

func (err AngleRangeError) Error() string {
	return fmt.Sprintf("angle %g out of range; actuation range is 0 to %g degrees", err.Value, err.Max)
}

type DecayModeError struct {
	Mode int
}

func (err DecayModeError) Error() string {
	return fmt.Sprintf("decay mode %d is not valid; use FastDecay or SlowDecay", err.Mode)
}

type StepStyleError struct {
	Style int
}

func (err StepStyleError) Error() string {
	return fmt.Sprintf("unsupported step style %d", err.Style)
}

type StepDirectionError struct {
	Direction int
}

func (err StepDirectionError) Error() string {
	return fmt.Sprintf("unsupported step direction %d", err.Direction)
}

type MicrostepCountError struct {
	Count int
}

func (err MicrostepCountError) Error() string {
	return fmt.Sprintf("microstep count %d is not valid; must be even and at least 2", err.Count)
}

type CoilFrequencyError struct {
	Hz uint
}

func (err CoilFrequencyError) Error() string {
	return fmt.Sprintf("coil outputs must run at 1500Hz or above, got %dHz and unable to retune", err.Hz)
}
