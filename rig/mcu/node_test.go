package mcu

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/openactuator/motorkit/rig/pwm"
)

func TestNodeVersionGate(t *testing.T) {
	Convey("a compatible firmware version connects", t, func() {
		port := &testPort{rxecho: true, version: "0.1.9"}
		node, err := NewNode(port)
		So(err, ShouldBeNil)
		So(node, ShouldNotBeNil)
		So(port.lastTx.Cmd, ShouldEqual, CMD_VERSION)

		Convey("with the ack listener attached before the first frame", func() {
			So(port.rx, ShouldNotBeNil)
			So(port.txCount, ShouldEqual, 1)
		})
	})

	Convey("DEV builds are accepted", t, func() {
		port := &testPort{rxecho: true, version: "DEV"}
		_, err := NewNode(port)
		So(err, ShouldBeNil)
	})

	Convey("incompatible versions are refused", t, func() {
		port := &testPort{rxecho: true, version: "0.2.0"}
		_, err := NewNode(port)
		So(err, ShouldNotBeNil)
	})

	Convey("unparseable versions are refused", t, func() {
		port := &testPort{rxecho: true, version: "deadbee"}
		_, err := NewNode(port)
		So(err, ShouldNotBeNil)
	})
}

func TestNodeChannels(t *testing.T) {
	tPort, tNode := createTestNodePort()
	tPort.rxecho = true

	Convey("channel views are bounds checked", t, func() {
		_, err := tNode.Channel(NODE_CHANNELS)
		So(err, ShouldNotBeNil)
	})

	Convey("duty writes frame the channel and value", t, func() {
		out, err := tNode.Channel(2)
		So(err, ShouldBeNil)

		So(out.SetDuty(0x1234), ShouldBeNil)
		So(tPort.lastTx.Cmd, ShouldEqual, CMD_SET_DUTY)
		So(tPort.lastTx.Channel, ShouldEqual, 2)
		So(tPort.lastTx.Value, ShouldEqual, 0x1234)
		So(out.Duty(), ShouldEqual, 0x1234)
	})

	Convey("frequency writes update the cached frequency", t, func() {
		out, _ := tNode.Channel(0)

		So(out.SetFrequency(50), ShouldBeNil)
		So(tPort.lastTx.Cmd, ShouldEqual, CMD_SET_FREQ)
		So(out.Frequency(), ShouldEqual, 50)
	})

	Convey("channels satisfy pwm.Output", t, func() {
		out, _ := tNode.Channel(1)
		var _ pwm.Output = out
		So(out, ShouldNotBeNil)
	})

	Convey("all stop frames a broadcast", t, func() {
		So(tNode.AllStop(), ShouldBeNil)
		So(tPort.lastTx.Cmd, ShouldEqual, CMD_ALLSTOP)
	})
}
