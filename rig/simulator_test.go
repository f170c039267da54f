package rig

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/openactuator/motorkit/rig/errors"
	"github.com/openactuator/motorkit/rig/pwm"
	"github.com/openactuator/motorkit/rig/stepper"
	"gopkg.in/yaml.v2"
)

func simConfig() *Config {
	var config Config
	if err := yaml.Unmarshal([]byte(testYaml), &config); err != nil {
		panic(err)
	}
	return &config
}

func TestRigSimulator(t *testing.T) {
	r, err := NewRigSimulator(simConfig())

	Convey("a simulated rig builds every configured device", t, func() {
		So(err, ShouldBeNil)
		So(r.Motors, ShouldContainKey, "left")
		So(r.Servos, ShouldContainKey, "pan")
		So(r.Steppers, ShouldContainKey, "feed")
	})

	Convey("device frequencies follow their class defaults", t, func() {
		So(r.Output(ChannelRef{"pca", 0}).Frequency(), ShouldEqual, DefaultMotorFrequency)
		So(r.Output(ChannelRef{"pca", 4}).Frequency(), ShouldEqual, DefaultServoFrequency)
		So(r.Output(ChannelRef{"mcu0", 0}).Frequency(), ShouldEqual, DefaultStepperFrequency)
	})

	Convey("motor operations reach the fake bridge outputs", t, func() {
		So(r.SetThrottle("left", 1.0), ShouldBeNil)
		// the config asks for slow decay, so the idle side is held high
		So(r.Output(ChannelRef{"pca", 0}).Duty(), ShouldEqual, uint16(pwm.MaxDuty))

		So(r.CoastMotor("left"), ShouldBeNil)
		So(r.Output(ChannelRef{"pca", 0}).Duty(), ShouldEqual, 0)
	})

	Convey("servo operations apply the configured calibration", t, func() {
		// 1000us at 50Hz
		So(r.SetAngle("pan", 0), ShouldBeNil)
		So(r.Output(ChannelRef{"pca", 4}).Duty(), ShouldEqual, 3276)

		So(r.SetAngle("pan", 140), ShouldNotBeNil) // range is 135

		So(r.DisableServo("pan"), ShouldBeNil)
		So(r.Output(ChannelRef{"pca", 4}).Duty(), ShouldEqual, 0)
	})

	Convey("runtime recalibration moves the pulse window", t, func() {
		So(r.CalibrateServo("pan", 750, 2250, 180), ShouldBeNil)
		So(r.SetAngle("pan", 0), ShouldBeNil)
		So(r.Output(ChannelRef{"pca", 4}).Duty(), ShouldEqual, 2457)

		So(r.CalibrateServo("tilt", 750, 2250, 0), ShouldHaveSameTypeAs, errors.DeviceNameError{})
	})

	Convey("steppers step and report their counter", t, func() {
		pos, err := r.Step("feed", 3, stepper.StyleMicrostep)
		So(err, ShouldBeNil)
		So(pos, ShouldEqual, 3)

		pos, err = r.Step("feed", -3, stepper.StyleMicrostep)
		So(err, ShouldBeNil)
		So(pos, ShouldEqual, 0)

		So(r.ReleaseStepper("feed"), ShouldBeNil)
		So(r.Output(ChannelRef{"mcu0", 0}).Duty(), ShouldEqual, 0)
	})

	Convey("unknown device names return typed errors", t, func() {
		So(r.SetThrottle("missing", 0.5), ShouldHaveSameTypeAs, errors.DeviceNameError{})
		So(r.SetAngle("missing", 10), ShouldHaveSameTypeAs, errors.DeviceNameError{})
		_, err := r.Step("missing", 1, stepper.StyleSingle)
		So(err, ShouldHaveSameTypeAs, errors.DeviceNameError{})
	})

	Convey("state snapshots cover every device", t, func() {
		r.SetThrottle("left", 0.5)
		r.SetAngle("pan", 90)

		state := r.GetState()
		So(state.Motors["left"].Throttle, ShouldEqual, 0.5)
		So(state.Motors["left"].Decay, ShouldEqual, "slow")
		So(state.Servos["pan"].Enabled, ShouldBeTrue)
		So(state.Servos["pan"].Angle, ShouldAlmostEqual, 90, 2)
		So(state.Steppers, ShouldContainKey, "feed")
	})

	Convey("all stop releases everything", t, func() {
		r.SetThrottle("left", 1)
		So(r.AllStop(), ShouldBeNil)
		So(r.Output(ChannelRef{"pca", 0}).Duty(), ShouldEqual, 0)
		So(r.Output(ChannelRef{"pca", 1}).Duty(), ShouldEqual, 0)
		So(r.Output(ChannelRef{"pca", 4}).Duty(), ShouldEqual, 0)
	})

	Convey("unknown config versions are rejected", t, func() {
		_, err := NewRigSimulator(&Config{Version: 9})
		So(err, ShouldNotBeNil)
	})
}
