package rig

import (
	"fmt"
	"strconv"
	"strings"
)

// Default carrier frequencies per device class. Servos expect the classic
// 50Hz hobby carrier; motors run above the audible range of most small
// gearmotors; stepper coils must be at 1500Hz or better for microstepping.
const (
	DefaultServoFrequency   = 50
	DefaultMotorFrequency   = 1600
	DefaultStepperFrequency = 2000
)

type Config struct {
	Version     int
	Controllers map[string]ControllerConfig
	Motors      map[string]MotorConfig
	Servos      map[string]ServoConfig
	Steppers    map[string]StepperConfig
	Drive       *DriveConfig `yaml:"drive,omitempty"`
}

// DriveConfig names the motor pair a differential Drive mixes onto.
type DriveConfig struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

type ControllerConfig struct {
	Type string `yaml:"type"` // sysfs | pca9685 | mcu | fake
	Chip int    `yaml:"chip,omitempty"`
	Bus  string `yaml:"bus,omitempty"`
	Addr uint8  `yaml:"addr,omitempty"`
	Port string `yaml:"port,omitempty"`
}

// ChannelRef names one output channel as "controller:channel" in YAML.
type ChannelRef struct {
	Controller string
	Channel    int
}

func (c ChannelRef) String() string {
	return fmt.Sprintf("%s:%d", c.Controller, c.Channel)
}

func (c ChannelRef) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *ChannelRef) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("channel ref %q must be controller:channel", raw)
	}

	chn, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("channel ref %q: %v", raw, err)
	}

	c.Controller = parts[0]
	c.Channel = chn
	return nil
}

type MotorConfig struct {
	Positive  ChannelRef `yaml:"positive"`
	Negative  ChannelRef `yaml:"negative"`
	Decay     string     `yaml:"decay,omitempty"` // fast (default) | slow
	Frequency uint       `yaml:"frequency,omitempty"`
}

type ServoConfig struct {
	Channel        ChannelRef `yaml:"channel"`
	MinPulse       int        `yaml:"min,omitempty"`
	MaxPulse       int        `yaml:"max,omitempty"`
	ActuationRange float64    `yaml:"range,omitempty"`
	Continuous     bool       `yaml:"continuous,omitempty"`
	Frequency      uint       `yaml:"frequency,omitempty"`
}

type StepperConfig struct {
	AIn1       ChannelRef `yaml:"ain1"`
	AIn2       ChannelRef `yaml:"ain2"`
	BIn1       ChannelRef `yaml:"bin1"`
	BIn2       ChannelRef `yaml:"bin2"`
	Microsteps int        `yaml:"microsteps"`
	Frequency  uint       `yaml:"frequency,omitempty"`
}
