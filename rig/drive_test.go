package rig

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/openactuator/motorkit/rig/stepper"
)

type recordingDevice struct {
	throttles map[string]float64
	coasted   []string
}

func (d *recordingDevice) SetThrottle(name string, value float64) error {
	d.throttles[name] = value
	return nil
}

func (d *recordingDevice) CoastMotor(name string) error {
	d.coasted = append(d.coasted, name)
	return nil
}

func (d *recordingDevice) SetAngle(name string, angle float64) error  { return nil }
func (d *recordingDevice) DisableServo(name string) error             { return nil }
func (d *recordingDevice) ReleaseStepper(name string) error           { return nil }
func (d *recordingDevice) GetState() State                            { return State{} }
func (d *recordingDevice) CalibrateServo(name string, minPulse, maxPulse int, actuationRange float64) error {
	return nil
}
func (d *recordingDevice) Step(name string, count int, style stepper.Style) (int, error) {
	return 0, nil
}

func TestDriveMixing(t *testing.T) {
	device := &recordingDevice{throttles: make(map[string]float64)}
	drive := NewDrive(device, "left", "right")

	Convey("pure forward drives both wheels evenly", t, func() {
		So(drive.Set(0.5, 0), ShouldBeNil)
		So(device.throttles["left"], ShouldEqual, 0.5)
		So(device.throttles["right"], ShouldEqual, 0.5)
	})

	Convey("pure turn counter-rotates the wheels", t, func() {
		So(drive.Set(0, 0.5), ShouldBeNil)
		So(device.throttles["left"], ShouldEqual, 0.5)
		So(device.throttles["right"], ShouldEqual, -0.5)
	})

	Convey("saturated mixes are rescaled together", t, func() {
		So(drive.Set(1, 0.5), ShouldBeNil)
		So(device.throttles["left"], ShouldEqual, 1.0)
		So(device.throttles["right"], ShouldAlmostEqual, 1.0/3, 0.001)
	})

	Convey("stop coasts both motors", t, func() {
		So(drive.Stop(), ShouldBeNil)
		So(device.coasted, ShouldResemble, []string{"left", "right"})
	})
}
