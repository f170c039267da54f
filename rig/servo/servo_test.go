package servo

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/openactuator/motorkit/rig/pwm"
)

const tolerance = 0.01

func TestServo(t *testing.T) {
	out := pwm.NewFakeOutput("servo")
	out.SetFrequency(50)
	s := New(out)

	// at 50Hz: 750us -> 2457, 2250us -> 7372
	Convey("pulse width range maps to the expected duty window", t, func() {
		So(s.minDuty, ShouldEqual, 2457)
		So(s.dutyRange, ShouldEqual, 4915)
	})

	Convey("fractions span the duty window", t, func() {
		So(s.SetFraction(0), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 2457)

		So(s.SetFraction(1), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 7372)

		So(s.SetFraction(0.5), ShouldBeNil)
		f, ok := s.Fraction()
		So(ok, ShouldBeTrue)
		So(f, ShouldAlmostEqual, 0.5, tolerance)
	})

	Convey("angles map through the actuation range", t, func() {
		So(s.SetAngle(90), ShouldBeNil)
		angle, ok := s.Angle()
		So(ok, ShouldBeTrue)
		So(angle, ShouldAlmostEqual, 90, s.ActuationRange*tolerance)

		Convey("a reduced actuation range rescales angles", func() {
			s.ActuationRange = 135
			So(s.SetAngle(135), ShouldBeNil)
			So(out.Duty(), ShouldEqual, 7372)

			So(s.SetAngle(180), ShouldNotBeNil)
			s.ActuationRange = 180
		})
	})

	Convey("out of range values are rejected", t, func() {
		So(s.SetFraction(-0.1), ShouldNotBeNil)
		So(s.SetFraction(1.1), ShouldNotBeNil)
		So(s.SetAngle(-1), ShouldNotBeNil)
	})

	Convey("disabling stops pulses and reads as disabled", t, func() {
		So(s.Disable(), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 0)

		_, ok := s.Fraction()
		So(ok, ShouldBeFalse)
		_, ok = s.Angle()
		So(ok, ShouldBeFalse)
	})

	Convey("recalibrating the pulse range moves the window", t, func() {
		s.SetPulseWidthRange(1000, 2000)
		So(s.minDuty, ShouldEqual, 3276)
		So(s.SetFraction(0), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 3276)
		s.SetPulseWidthRange(DefaultMinPulse, DefaultMaxPulse)
	})
}

func TestContinuousServo(t *testing.T) {
	out := pwm.NewFakeOutput("continuous")
	out.SetFrequency(50)
	c := NewContinuous(out)

	Convey("throttle maps across the pulse range", t, func() {
		So(c.SetThrottle(0), ShouldBeNil)
		throttle, ok := c.Throttle()
		So(ok, ShouldBeTrue)
		So(throttle, ShouldAlmostEqual, 0, tolerance)

		So(c.SetThrottle(1), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 7372)

		So(c.SetThrottle(-1), ShouldBeNil)
		So(out.Duty(), ShouldEqual, 2457)
	})

	Convey("range is enforced", t, func() {
		So(c.SetThrottle(1.2), ShouldNotBeNil)
		So(c.SetThrottle(-1.2), ShouldNotBeNil)
	})

	Convey("disable reads back as stopped", t, func() {
		So(c.Disable(), ShouldBeNil)
		_, ok := c.Throttle()
		So(ok, ShouldBeFalse)
	})
}
