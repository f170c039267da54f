package motor

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/openactuator/motorkit/rig/pwm"
)

func TestMotorThrottle(t *testing.T) {
	pos := pwm.NewFakeOutput("positive")
	neg := pwm.NewFakeOutput("negative")
	m := New(pos, neg)

	Convey("a new motor is coasting", t, func() {
		_, running := m.Throttle()
		So(running, ShouldBeFalse)
	})

	Convey("fast decay drives one side and grounds the other", t, func() {
		So(m.SetThrottle(0.5), ShouldBeNil)
		So(pos.Duty(), ShouldEqual, uint16(0x7FFF))
		So(neg.Duty(), ShouldEqual, 0)

		Convey("reverse mirrors the outputs", func() {
			So(m.SetThrottle(-0.5), ShouldBeNil)
			So(pos.Duty(), ShouldEqual, 0)
			So(neg.Duty(), ShouldEqual, uint16(0x7FFF))
		})

		Convey("full forward saturates", func() {
			So(m.SetThrottle(1.0), ShouldBeNil)
			So(pos.Duty(), ShouldEqual, uint16(pwm.MaxDuty))
			So(neg.Duty(), ShouldEqual, 0)
		})
	})

	Convey("slow decay holds the idle side high", t, func() {
		So(m.SetDecayMode(SlowDecay), ShouldBeNil)

		So(m.SetThrottle(0.5), ShouldBeNil)
		So(pos.Duty(), ShouldEqual, uint16(pwm.MaxDuty))
		So(neg.Duty(), ShouldEqual, uint16(pwm.MaxDuty-0x7FFF))

		So(m.SetThrottle(-0.5), ShouldBeNil)
		So(pos.Duty(), ShouldEqual, uint16(pwm.MaxDuty-0x7FFF))
		So(neg.Duty(), ShouldEqual, uint16(pwm.MaxDuty))

		So(m.SetDecayMode(FastDecay), ShouldBeNil)
	})

	Convey("zero throttle brakes with both sides full on", t, func() {
		So(m.SetThrottle(0), ShouldBeNil)
		So(pos.Duty(), ShouldEqual, uint16(pwm.MaxDuty))
		So(neg.Duty(), ShouldEqual, uint16(pwm.MaxDuty))

		throttle, running := m.Throttle()
		So(throttle, ShouldEqual, 0)
		So(running, ShouldBeTrue)
	})

	Convey("coasting releases both sides", t, func() {
		So(m.SetThrottle(0.8), ShouldBeNil)
		So(m.Coast(), ShouldBeNil)
		So(pos.Duty(), ShouldEqual, 0)
		So(neg.Duty(), ShouldEqual, 0)

		_, running := m.Throttle()
		So(running, ShouldBeFalse)
	})

	Convey("out of range values are rejected without touching the bridge", t, func() {
		m.Coast()
		So(m.SetThrottle(1.5), ShouldNotBeNil)
		So(m.SetThrottle(-1.01), ShouldNotBeNil)
		So(pos.Duty(), ShouldEqual, 0)
		So(neg.Duty(), ShouldEqual, 0)
	})

	Convey("invalid decay modes are rejected", t, func() {
		So(m.SetDecayMode(DecayMode(7)), ShouldNotBeNil)
		So(m.DecayMode(), ShouldEqual, FastDecay)
	})

	Convey("output errors keep the previous state", t, func() {
		m.SetThrottle(0.25)
		pos.Fail = errors.New("simulated output error")
		So(m.SetThrottle(0.75), ShouldNotBeNil)

		throttle, _ := m.Throttle()
		So(throttle, ShouldEqual, 0.25)
		pos.Fail = nil
	})
}
