package rig

import (
	"fmt"

	"github.com/openactuator/motorkit/rig/errors"
	"github.com/openactuator/motorkit/rig/mcu"
	"github.com/openactuator/motorkit/rig/motor"
	"github.com/openactuator/motorkit/rig/pwm"
	"github.com/openactuator/motorkit/rig/servo"
	"github.com/openactuator/motorkit/rig/stepper"
)

// Device is the control surface the comms and API layers drive.
type Device interface {
	SetThrottle(name string, value float64) error
	CoastMotor(name string) error
	SetAngle(name string, angle float64) error
	DisableServo(name string) error
	CalibrateServo(name string, minPulse, maxPulse int, actuationRange float64) error
	Step(name string, count int, style stepper.Style) (int, error)
	ReleaseStepper(name string) error
	GetState() State
}

type MotorState struct {
	Throttle float64 `json:"throttle"`
	Running  bool    `json:"running"`
	Decay    string  `json:"decay"`
}

type ServoState struct {
	Angle   float64 `json:"angle"`
	Enabled bool    `json:"enabled"`
}

type StepperState struct {
	Microstep int `json:"microstep"`
}

type State struct {
	Motors   map[string]MotorState   `json:"motors"`
	Servos   map[string]ServoState   `json:"servos"`
	Steppers map[string]StepperState `json:"steppers"`
}

// controller hands out output views by channel number.
type controller interface {
	output(chn int) (pwm.Output, error)
}

type controllerFactory func(name string, conf ControllerConfig) (controller, error)

type Rig struct {
	Motors           map[string]*motor.Motor
	Servos           map[string]*servo.Servo
	ContinuousServos map[string]*servo.ContinuousServo
	Steppers         map[string]*stepper.Stepper

	config      *Config
	controllers map[string]controller
}

// NewRig assembles the devices described by config on real hardware.
func NewRig(config *Config) (*Rig, error) {
	return newRig(config, newController)
}

func newRig(config *Config, factory controllerFactory) (r *Rig, err error) {
	r = &Rig{
		config:      config,
		controllers: make(map[string]controller),
	}

	switch config.Version {
	case 1:
		for name, conf := range config.Controllers {
			r.controllers[name], err = factory(name, conf)
			if err != nil {
				return nil, err
			}
		}

		if err = r.buildMotors(config.Motors); err != nil {
			return nil, err
		}
		if err = r.buildServos(config.Servos); err != nil {
			return nil, err
		}
		if err = r.buildSteppers(config.Steppers); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unable to work with config version %d", config.Version)
	}

	return r, nil
}

func newController(name string, conf ControllerConfig) (controller, error) {
	switch conf.Type {
	case "sysfs":
		return &sysfsController{chip: conf.Chip, outputs: make(map[int]pwm.Output)}, nil

	case "pca9685":
		bus, err := pwm.OpenDevBus(conf.Bus)
		if err != nil {
			return nil, err
		}
		pca, err := pwm.NewPCA9685(bus, conf.Addr)
		if err != nil {
			return nil, err
		}
		return &pcaController{pca: pca}, nil

	case "mcu":
		port, err := mcu.OpenSerialPort(conf.Port)
		if err != nil {
			return nil, err
		}
		node, err := mcu.NewNode(port)
		if err != nil {
			return nil, err
		}
		return &mcuController{node: node}, nil

	case "fake":
		return newFakeController(name), nil

	default:
		return nil, fmt.Errorf("unknown controller type %q for %s", conf.Type, name)
	}
}

func (r *Rig) buildMotors(configs map[string]MotorConfig) error {
	r.Motors = make(map[string]*motor.Motor, len(configs))

	for name, conf := range configs {
		freq := conf.Frequency
		if freq == 0 {
			freq = DefaultMotorFrequency
		}

		pos, err := r.channel(conf.Positive, freq)
		if err != nil {
			return fmt.Errorf("motor %s: %v", name, err)
		}
		neg, err := r.channel(conf.Negative, freq)
		if err != nil {
			return fmt.Errorf("motor %s: %v", name, err)
		}

		m := motor.New(pos, neg)
		if conf.Decay == "slow" {
			m.SetDecayMode(motor.SlowDecay)
		}
		r.Motors[name] = m
	}
	return nil
}

func (r *Rig) buildServos(configs map[string]ServoConfig) error {
	r.Servos = make(map[string]*servo.Servo, len(configs))
	r.ContinuousServos = make(map[string]*servo.ContinuousServo)

	for name, conf := range configs {
		freq := conf.Frequency
		if freq == 0 {
			freq = DefaultServoFrequency
		}

		out, err := r.channel(conf.Channel, freq)
		if err != nil {
			return fmt.Errorf("servo %s: %v", name, err)
		}

		minPulse, maxPulse := conf.MinPulse, conf.MaxPulse
		if minPulse == 0 {
			minPulse = servo.DefaultMinPulse
		}
		if maxPulse == 0 {
			maxPulse = servo.DefaultMaxPulse
		}

		if conf.Continuous {
			c := servo.NewContinuous(out)
			c.SetPulseWidthRange(minPulse, maxPulse)
			r.ContinuousServos[name] = c
			continue
		}

		s := servo.New(out)
		s.SetPulseWidthRange(minPulse, maxPulse)
		if conf.ActuationRange != 0 {
			s.ActuationRange = conf.ActuationRange
		}
		r.Servos[name] = s
	}
	return nil
}

func (r *Rig) buildSteppers(configs map[string]StepperConfig) error {
	r.Steppers = make(map[string]*stepper.Stepper, len(configs))

	for name, conf := range configs {
		freq := conf.Frequency
		if freq == 0 {
			freq = DefaultStepperFrequency
		}

		var coils [4]pwm.Output
		for i, ref := range []ChannelRef{conf.AIn1, conf.AIn2, conf.BIn1, conf.BIn2} {
			out, err := r.channel(ref, freq)
			if err != nil {
				return fmt.Errorf("stepper %s: %v", name, err)
			}
			coils[i] = out
		}

		s, err := stepper.New(coils[0], coils[1], coils[2], coils[3], conf.Microsteps)
		if err != nil {
			return fmt.Errorf("stepper %s: %v", name, err)
		}
		r.Steppers[name] = s
	}
	return nil
}

func (r *Rig) channel(ref ChannelRef, freq uint) (pwm.Output, error) {
	ctrl, ok := r.controllers[ref.Controller]
	if !ok {
		return nil, fmt.Errorf("no controller %q", ref.Controller)
	}

	out, err := ctrl.output(ref.Channel)
	if err != nil {
		return nil, err
	}

	if err = out.SetFrequency(freq); err != nil {
		return nil, err
	}
	return out, nil
}

//---
// Device operations
//---

func (r *Rig) SetThrottle(name string, value float64) error {
	if m, ok := r.Motors[name]; ok {
		return m.SetThrottle(value)
	}
	if c, ok := r.ContinuousServos[name]; ok {
		return c.SetThrottle(value)
	}
	return errors.DeviceNameError{Name: name}
}

func (r *Rig) CoastMotor(name string) error {
	if m, ok := r.Motors[name]; ok {
		return m.Coast()
	}
	if c, ok := r.ContinuousServos[name]; ok {
		return c.Disable()
	}
	return errors.DeviceNameError{Name: name}
}

func (r *Rig) SetAngle(name string, angle float64) error {
	s, ok := r.Servos[name]
	if !ok {
		return errors.DeviceNameError{Name: name}
	}
	return s.SetAngle(angle)
}

func (r *Rig) DisableServo(name string) error {
	s, ok := r.Servos[name]
	if !ok {
		return errors.DeviceNameError{Name: name}
	}
	return s.Disable()
}

// CalibrateServo reconfigures the pulse width mapping of a servo at runtime.
func (r *Rig) CalibrateServo(name string, minPulse, maxPulse int, actuationRange float64) error {
	if s, ok := r.Servos[name]; ok {
		s.SetPulseWidthRange(minPulse, maxPulse)
		if actuationRange != 0 {
			s.ActuationRange = actuationRange
		}
		return nil
	}
	if c, ok := r.ContinuousServos[name]; ok {
		c.SetPulseWidthRange(minPulse, maxPulse)
		return nil
	}
	return errors.DeviceNameError{Name: name}
}

// Step performs count steps, negative counts step backward. Returns the
// stepper's microstep counter after the final step.
func (r *Rig) Step(name string, count int, style stepper.Style) (pos int, err error) {
	s, ok := r.Steppers[name]
	if !ok {
		return 0, errors.DeviceNameError{Name: name}
	}

	direction := stepper.Forward
	if count < 0 {
		direction = stepper.Backward
		count = -count
	}

	pos = s.Microstep()
	for i := 0; i < count; i++ {
		pos, err = s.OneStep(direction, style)
		if err != nil {
			return pos, err
		}
	}
	return pos, nil
}

func (r *Rig) ReleaseStepper(name string) error {
	s, ok := r.Steppers[name]
	if !ok {
		return errors.DeviceNameError{Name: name}
	}
	return s.Release()
}

func (r *Rig) GetState() (state State) {
	state.Motors = make(map[string]MotorState, len(r.Motors)+len(r.ContinuousServos))
	for name, m := range r.Motors {
		throttle, running := m.Throttle()
		state.Motors[name] = MotorState{
			Throttle: throttle,
			Running:  running,
			Decay:    m.DecayMode().String(),
		}
	}
	for name, c := range r.ContinuousServos {
		throttle, running := c.Throttle()
		state.Motors[name] = MotorState{Throttle: throttle, Running: running}
	}

	state.Servos = make(map[string]ServoState, len(r.Servos))
	for name, s := range r.Servos {
		angle, enabled := s.Angle()
		state.Servos[name] = ServoState{Angle: angle, Enabled: enabled}
	}

	state.Steppers = make(map[string]StepperState, len(r.Steppers))
	for name, s := range r.Steppers {
		state.Steppers[name] = StepperState{Microstep: s.Microstep()}
	}

	return state
}

// AllStop coasts every motor and releases every stepper; servos are
// disabled. Used on shutdown.
func (r *Rig) AllStop() error {
	for name := range r.Motors {
		if err := r.CoastMotor(name); err != nil {
			return err
		}
	}
	for name := range r.ContinuousServos {
		if err := r.CoastMotor(name); err != nil {
			return err
		}
	}
	for name := range r.Servos {
		if err := r.DisableServo(name); err != nil {
			return err
		}
	}
	for name := range r.Steppers {
		if err := r.ReleaseStepper(name); err != nil {
			return err
		}
	}
	return nil
}

//---
// controller adapters
//---

type sysfsController struct {
	chip    int
	outputs map[int]pwm.Output
}

func (c *sysfsController) output(chn int) (pwm.Output, error) {
	if out, ok := c.outputs[chn]; ok {
		return out, nil
	}
	out, err := pwm.NewSysfsOutput(c.chip, chn)
	if err != nil {
		return nil, err
	}
	c.outputs[chn] = out
	return out, nil
}

type pcaController struct {
	pca *pwm.PCA9685
}

func (c *pcaController) output(chn int) (pwm.Output, error) {
	return c.pca.Channel(chn)
}

type mcuController struct {
	node *mcu.Node
}

func (c *mcuController) output(chn int) (pwm.Output, error) {
	if chn < 0 || chn > 0xFF {
		return nil, fmt.Errorf("no channel %d", chn)
	}
	return c.node.Channel(uint8(chn))
}
