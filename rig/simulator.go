package rig

import (
	"fmt"

	"github.com/openactuator/motorkit/rig/pwm"
)

// The simulator builds the same Rig from the same config, but every
// controller hands out FakeOutputs. Lets the daemon, shell and tests run
// without hardware attached.

type fakeController struct {
	name    string
	outputs map[int]*pwm.FakeOutput
}

func newFakeController(name string) *fakeController {
	return &fakeController{
		name:    name,
		outputs: make(map[int]*pwm.FakeOutput),
	}
}

func (c *fakeController) output(chn int) (pwm.Output, error) {
	if out, ok := c.outputs[chn]; ok {
		return out, nil
	}
	out := pwm.NewFakeOutput(fmt.Sprintf("%s:%d", c.name, chn))
	c.outputs[chn] = out
	return out, nil
}

// NewRigSimulator assembles the rig on fake outputs, ignoring the configured
// controller types.
func NewRigSimulator(config *Config) (*Rig, error) {
	return newRig(config, func(name string, conf ControllerConfig) (controller, error) {
		return newFakeController(name), nil
	})
}

// Output exposes the fake output behind a channel ref for inspection in
// tests. Returns nil when the rig is not simulated or the channel was never
// handed out.
func (r *Rig) Output(ref ChannelRef) *pwm.FakeOutput {
	ctrl, ok := r.controllers[ref.Controller].(*fakeController)
	if !ok {
		return nil
	}
	return ctrl.outputs[ref.Channel]
}
