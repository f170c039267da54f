package mcu

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// Msg is one frame of the line protocol spoken by the motor controller
// firmware: "CMD CHANNEL VALUE" in ASCII, one frame per line. The firmware
// acknowledges each frame by echoing it; some responses carry a trailing
// text payload (the version string).
type Msg struct {
	Cmd     uint16
	Channel uint8
	Value   uint32
	Data    string
}

func (m Msg) encode() []byte {
	return []byte(fmt.Sprintf("%04X %d %d\n", m.Cmd, m.Channel, m.Value))
}

func parseMsg(line string) (msg Msg, err error) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 4)
	if len(parts) < 3 {
		return msg, fmt.Errorf("malformed frame %q", line)
	}

	_, err = fmt.Sscanf(strings.Join(parts[:3], " "), "%04X %d %d", &msg.Cmd, &msg.Channel, &msg.Value)
	if err != nil {
		return msg, fmt.Errorf("malformed frame %q: %v", line, err)
	}

	if len(parts) == 4 {
		msg.Data = parts[3]
	}
	return msg, nil
}

type PortInterface interface {
	SendMsg(msg Msg) error
	AddListener(rx chan Msg)
}

// SerialPort connects to the controller over a tty.
type SerialPort struct {
	port serial.Port
	lock sync.Mutex
	rx   chan Msg
	open bool
}

func OpenSerialPort(device string) (p *SerialPort, err error) {
	p = new(SerialPort)
	p.port, err = serial.Open(&serial.Config{
		Address:  device,
		BaudRate: 115200,
		Timeout:  500 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	p.open = true
	go p.reader()

	return p, nil
}

func (p *SerialPort) AddListener(rx chan Msg) {
	p.rx = rx
}

func (p *SerialPort) SendMsg(msg Msg) error {
	raw := msg.encode()

	p.lock.Lock()
	defer p.lock.Unlock()

	_, err := p.port.Write(raw)
	return err
}

func (p *SerialPort) reader() {
	scanner := bufio.NewScanner(p.port)
	for p.open && scanner.Scan() {
		msg, err := parseMsg(scanner.Text())
		if err != nil {
			continue // firmware debug output shares the line
		}
		if p.rx != nil {
			p.rx <- msg
		}
	}
}

func (p *SerialPort) Close() error {
	p.open = false
	return p.port.Close()
}
