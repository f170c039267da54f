package pwm

import (
	"fmt"
	"sync"
)

// PCA9685 16 channel 12 bit PWM expander over I2C.
// All channels share one prescaler, so SetFrequency on any channel view
// retunes the whole device.

const (
	pcaRegMode1    = 0x00
	pcaRegPrescale = 0xFE
	pcaRegLED0     = 0x06 // LED0_ON_L, 4 registers per channel

	pcaMode1Sleep   = 0x10
	pcaMode1AutoInc = 0x20
	pcaMode1Restart = 0x80

	pcaOscillator = 25000000
	pcaChannels   = 16

	// prescale is 8 bit with a hardware minimum of 3
	PCA9685MinFrequency = 24
	PCA9685MaxFrequency = 1526
)

// I2CBus is the register level access the PCA9685 needs. DevBus implements it
// on /dev/i2c-N; tests provide mocks.
type I2CBus interface {
	WriteReg(addr uint8, reg uint8, data []byte) error
	ReadReg(addr uint8, reg uint8, buf []byte) error
}

type PCA9685 struct {
	bus  I2CBus
	addr uint8
	freq uint
	duty [pcaChannels]uint16
	lock sync.Mutex
}

func NewPCA9685(bus I2CBus, addr uint8) (p *PCA9685, err error) {
	p = &PCA9685{
		bus:  bus,
		addr: addr,
	}

	// wake from sleep with the register pointer auto-incrementing
	err = p.bus.WriteReg(p.addr, pcaRegMode1, []byte{pcaMode1AutoInc})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Channel returns an Output view over one of the 16 channels.
func (p *PCA9685) Channel(chn int) (Output, error) {
	if chn < 0 || chn >= pcaChannels {
		return nil, fmt.Errorf("pca9685 0x%02X: no channel %d", p.addr, chn)
	}
	return &pcaChannel{controller: p, chn: chn}, nil
}

func (p *PCA9685) setFrequency(hz uint) error {
	if hz < PCA9685MinFrequency || hz > PCA9685MaxFrequency {
		return fmt.Errorf("pca9685 0x%02X: frequency %dHz outside %d-%dHz",
			p.addr, hz, PCA9685MinFrequency, PCA9685MaxFrequency)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	prescale := uint8(float64(pcaOscillator)/(4096*float64(hz)) + 0.5 - 1)

	// the prescaler can only be written while the oscillator sleeps
	if err := p.bus.WriteReg(p.addr, pcaRegMode1, []byte{pcaMode1AutoInc | pcaMode1Sleep}); err != nil {
		return err
	}
	if err := p.bus.WriteReg(p.addr, pcaRegPrescale, []byte{prescale}); err != nil {
		return err
	}
	if err := p.bus.WriteReg(p.addr, pcaRegMode1, []byte{pcaMode1AutoInc | pcaMode1Restart}); err != nil {
		return err
	}

	p.freq = hz
	return nil
}

func (p *PCA9685) setDuty(chn int, duty uint16) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	var on, off uint16
	switch duty {
	case 0:
		off = 0x1000 // full off bit
	case MaxDuty:
		on = 0x1000 // full on bit
	default:
		off = duty >> 4
	}

	reg := uint8(pcaRegLED0 + 4*chn)
	data := []byte{byte(on), byte(on >> 8), byte(off), byte(off >> 8)}
	if err := p.bus.WriteReg(p.addr, reg, data); err != nil {
		return err
	}

	p.duty[chn] = duty
	return nil
}

type pcaChannel struct {
	controller *PCA9685
	chn        int
}

func (c *pcaChannel) SetFrequency(hz uint) error {
	return c.controller.setFrequency(hz)
}

func (c *pcaChannel) Frequency() uint {
	c.controller.lock.Lock()
	defer c.controller.lock.Unlock()
	return c.controller.freq
}

func (c *pcaChannel) SetDuty(duty uint16) error {
	return c.controller.setDuty(c.chn, duty)
}

func (c *pcaChannel) Duty() uint16 {
	c.controller.lock.Lock()
	defer c.controller.lock.Unlock()
	return c.controller.duty[c.chn]
}
