package rig

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testYaml = `
version: 1
controllers:
  pca:
    type: pca9685
    bus: /dev/i2c-1
    addr: 0x40
  mcu0:
    type: mcu
    port: /dev/ttyS1
motors:
  left:
    positive: pca:0
    negative: pca:1
    decay: slow
  right:
    positive: pca:2
    negative: pca:3
servos:
  pan:
    channel: pca:4
    min: 1000
    max: 2000
    range: 135
steppers:
  feed:
    ain1: mcu0:0
    ain2: mcu0:1
    bin1: mcu0:2
    bin2: mcu0:3
    microsteps: 16
drive:
  left: left
  right: right
`

func TestConfigParsing(t *testing.T) {
	var config Config

	Convey("parsing is successful", t, func() {
		err := yaml.Unmarshal([]byte(testYaml), &config)
		So(err, ShouldBeNil)
		So(config.Version, ShouldEqual, 1)

		Convey("controllers are typed", func() {
			So(config.Controllers["pca"].Type, ShouldEqual, "pca9685")
			So(config.Controllers["pca"].Addr, ShouldEqual, 0x40)
			So(config.Controllers["mcu0"].Port, ShouldEqual, "/dev/ttyS1")
		})

		Convey("channel refs split into controller and channel", func() {
			left := config.Motors["left"]
			So(left.Positive, ShouldResemble, ChannelRef{Controller: "pca", Channel: 0})
			So(left.Negative, ShouldResemble, ChannelRef{Controller: "pca", Channel: 1})
			So(left.Decay, ShouldEqual, "slow")
		})

		Convey("servo calibration fields are read", func() {
			pan := config.Servos["pan"]
			So(pan.MinPulse, ShouldEqual, 1000)
			So(pan.MaxPulse, ShouldEqual, 2000)
			So(pan.ActuationRange, ShouldEqual, 135)
		})

		Convey("the drive section names a motor pair", func() {
			So(config.Drive, ShouldNotBeNil)
			So(config.Drive.Left, ShouldEqual, "left")
			So(config.Drive.Right, ShouldEqual, "right")
		})

		Convey("stepper coils are four channel refs", func() {
			feed := config.Steppers["feed"]
			So(feed.BIn2, ShouldResemble, ChannelRef{Controller: "mcu0", Channel: 3})
			So(feed.Microsteps, ShouldEqual, 16)
		})
	})

	Convey("channel refs round trip through yaml", t, func() {
		out, err := yaml.Marshal(ChannelRef{Controller: "pca", Channel: 7})
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, "pca:7")

		var ref ChannelRef
		So(yaml.Unmarshal(out, &ref), ShouldBeNil)
		So(ref, ShouldResemble, ChannelRef{Controller: "pca", Channel: 7})
	})

	Convey("malformed channel refs error", t, func() {
		var ref ChannelRef
		So(yaml.Unmarshal([]byte(`"pca"`), &ref), ShouldNotBeNil)
		So(yaml.Unmarshal([]byte(`"pca:x"`), &ref), ShouldNotBeNil)
	})
}
