package rig

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Drive mixes a twist (forward speed plus turn rate) onto a differential
// pair of motors.
type Drive struct {
	device      Device
	Left, Right string
}

func NewDrive(device Device, left, right string) *Drive {
	return &Drive{
		device: device,
		Left:   left,
		Right:  right,
	}
}

// Set drives the pair from forward and turn, each -1.0 to 1.0. Positive turn
// rotates towards the right motor. Wheel throttles that mix beyond full
// scale are rescaled together so the turn ratio is preserved.
func (d *Drive) Set(forward, turn float64) error {
	twist := mgl64.Vec2{forward, turn}
	wheels := mgl64.Vec2{
		twist.X() + twist.Y(),
		twist.X() - twist.Y(),
	}

	if overrun := math.Max(math.Abs(wheels.X()), math.Abs(wheels.Y())); overrun > 1 {
		wheels = wheels.Mul(1 / overrun)
	}

	if err := d.device.SetThrottle(d.Left, mgl64.Clamp(wheels.X(), -1, 1)); err != nil {
		return err
	}
	return d.device.SetThrottle(d.Right, mgl64.Clamp(wheels.Y(), -1, 1))
}

// Stop coasts both motors.
func (d *Drive) Stop() error {
	if err := d.device.CoastMotor(d.Left); err != nil {
		return err
	}
	return d.device.CoastMotor(d.Right)
}
