package pwm

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const i2cSlave = 0x0703

// DevBus is an I2CBus over a /dev/i2c-N character device.
type DevBus struct {
	fd   *os.File
	lock sync.Mutex
}

func OpenDevBus(dev string) (*DevBus, error) {
	fd, err := os.OpenFile(dev, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	return &DevBus{fd: fd}, nil
}

func (b *DevBus) connect(addr uint8) error {
	return unix.IoctlSetInt(int(b.fd.Fd()), i2cSlave, int(addr))
}

func (b *DevBus) WriteReg(addr uint8, reg uint8, data []byte) error {
	buf := append([]byte{reg}, data...)

	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.connect(addr); err != nil {
		return err
	}
	n, err := b.fd.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("i2c 0x%02X: short write %d/%d", addr, n, len(buf))
	}
	return nil
}

func (b *DevBus) ReadReg(addr uint8, reg uint8, buf []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.connect(addr); err != nil {
		return err
	}
	if _, err := b.fd.Write([]byte{reg}); err != nil {
		return err
	}
	_, err := b.fd.Read(buf)
	return err
}

func (b *DevBus) Close() error {
	return b.fd.Close()
}
