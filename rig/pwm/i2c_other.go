// +build !linux

package pwm

import "errors"

// DevBus requires the linux i2c-dev interface. This stub keeps the package
// building on development machines; the simulator covers everything else.
type DevBus struct{}

func OpenDevBus(dev string) (*DevBus, error) {
	return nil, errors.New("i2c-dev is only available on linux")
}

func (b *DevBus) WriteReg(addr uint8, reg uint8, data []byte) error {
	return errors.New("i2c-dev is only available on linux")
}

func (b *DevBus) ReadReg(addr uint8, reg uint8, buf []byte) error {
	return errors.New("i2c-dev is only available on linux")
}

func (b *DevBus) Close() error {
	return nil
}
