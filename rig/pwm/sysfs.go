package pwm

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const sysfsRoot = "/sys/class/pwm"

// SysfsOutput drives a single channel of a kernel pwmchip through the sysfs
// interface. The chip must already be bound by the platform; the channel is
// exported on creation if necessary.
type SysfsOutput struct {
	chip, channel int
	base          string
	freq          uint
	duty          uint16
	lock          sync.Mutex
}

func NewSysfsOutput(chip, channel int) (out *SysfsOutput, err error) {
	out = &SysfsOutput{
		chip:    chip,
		channel: channel,
		base:    filepath.Join(sysfsRoot, fmt.Sprintf("pwmchip%d", chip), fmt.Sprintf("pwm%d", channel)),
	}

	if _, err = os.Stat(out.base); os.IsNotExist(err) {
		export := filepath.Join(sysfsRoot, fmt.Sprintf("pwmchip%d", chip), "export")
		err = ioutil.WriteFile(export, []byte(strconv.Itoa(channel)), 0644)
		if err != nil {
			return nil, err
		}
	}

	if err = out.writeAttr("enable", "1"); err != nil {
		return nil, err
	}

	// pick up an existing period so Frequency is usable before SetFrequency
	if ns, aerr := out.readAttr("period"); aerr == nil && ns > 0 {
		out.freq = uint(1e9 / ns)
	}

	return out, nil
}

func (s *SysfsOutput) SetFrequency(hz uint) error {
	if hz == 0 {
		return fmt.Errorf("pwmchip%d/pwm%d: frequency must be non-zero", s.chip, s.channel)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	period := uint64(1e9) / uint64(hz)
	if err := s.writeAttr("period", strconv.FormatUint(period, 10)); err != nil {
		return err
	}
	s.freq = hz

	// keep the duty fraction stable across the frequency change
	return s.writeDuty(s.duty)
}

func (s *SysfsOutput) Frequency() uint {
	return s.freq
}

func (s *SysfsOutput) SetDuty(duty uint16) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.writeDuty(duty); err != nil {
		return err
	}
	s.duty = duty
	return nil
}

func (s *SysfsOutput) Duty() uint16 {
	return s.duty
}

// Close disables the channel but leaves it exported.
func (s *SysfsOutput) Close() error {
	return s.writeAttr("enable", "0")
}

func (s *SysfsOutput) writeDuty(duty uint16) error {
	if s.freq == 0 {
		return fmt.Errorf("pwmchip%d/pwm%d: set a frequency before writing duty", s.chip, s.channel)
	}
	period := uint64(1e9) / uint64(s.freq)
	ns := period * uint64(duty) / MaxDuty
	return s.writeAttr("duty_cycle", strconv.FormatUint(ns, 10))
}

func (s *SysfsOutput) writeAttr(name, value string) error {
	return ioutil.WriteFile(filepath.Join(s.base, name), []byte(value), 0644)
}

func (s *SysfsOutput) readAttr(name string) (uint64, error) {
	raw, err := ioutil.ReadFile(filepath.Join(s.base, name))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
}
