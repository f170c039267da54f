package mcu

import (
	"fmt"
	"sync"

	"github.com/Masterminds/semver"
	"github.com/openactuator/motorkit/rig/pwm"
)

const (
	NODE_VERSION  = "~0.1.0"
	NODE_CHANNELS = 16
)

// Node is a PWM controller board attached over a serial line. Every channel
// write is acknowledged by the firmware; the command machinery in cmds.go
// handles retries and routing.
type Node struct {
	bus        PortInterface
	lock       *sync.Mutex
	pending    sync.WaitGroup
	cmdLock    sync.Mutex
	pendingCmd map[uint16]NodeCommand
	rx         chan Msg
}

func NewNode(bus PortInterface) (n *Node, err error) {
	n = &Node{
		bus:        bus,
		lock:       new(sync.Mutex),
		pendingCmd: make(map[uint16]NodeCommand),
		rx:         make(chan Msg),
	}

	// the listener must be in place before the first frame goes out
	bus.AddListener(n.rx)
	go n.listen()

	// check the firmware version is acceptable
	resp, err := newCMDVersion(n).Process()
	if err != nil {
		return
	}

	versionString := resp.Data
	semVer, err := semver.NewVersion(versionString)
	if err != nil {
		if versionString == "DEV" {
			// a direct dev build, consider it safe for now
			return n, nil
		}
		// a bare commit build or garbage, refuse to drive it
		return nil, fmt.Errorf("unable to use controller: unparseable version %q", versionString)
	}

	semVerConstraint, err := semver.NewConstraint(NODE_VERSION)
	if err != nil {
		return
	}

	if !semVerConstraint.Check(semVer) {
		return nil, fmt.Errorf("unable to use controller: received version %s - require %s", versionString, NODE_VERSION)
	}

	return
}

func (n *Node) SendMsg(msg Msg) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.bus.SendMsg(msg)
}

// AllStop drops every channel on the controller in a single frame.
func (n *Node) AllStop() (err error) {
	n.abortPending()

	stopCmd := &BaseCommand{
		node: n,
		msg: Msg{
			Cmd: CMD_ALLSTOP,
		},
	}

	_, err = stopCmd.Process()
	return
}

// Channel returns a pwm.Output view over one firmware channel.
func (n *Node) Channel(chn uint8) (pwm.Output, error) {
	if chn >= NODE_CHANNELS {
		return nil, fmt.Errorf("controller has no channel %d", chn)
	}
	return &Channel{node: n, chn: chn}, nil
}

func (n *Node) register(cmd NodeCommand) {
	n.cmdLock.Lock()
	defer n.cmdLock.Unlock()
	n.pendingCmd[cmd.ID()] = cmd
}

func (n *Node) unregister(cmd NodeCommand) {
	n.cmdLock.Lock()
	defer n.cmdLock.Unlock()
	delete(n.pendingCmd, cmd.ID())
}

func (n *Node) listen() {
	for msg := range n.rx {
		n.routeACK(msg)
	}
}

func (n *Node) abortPending() {
	n.cmdLock.Lock()
	defer n.cmdLock.Unlock()
	for _, cmd := range n.pendingCmd {
		cmd.Abort()
	}
}

func (n *Node) routeACK(msg Msg) {
	id := msg.Cmd
	switch msg.Cmd {
	case CMD_SET_FREQ, CMD_SET_DUTY:
		id |= uint16(msg.Channel)
	}

	n.cmdLock.Lock()
	cmd, ok := n.pendingCmd[id]
	n.cmdLock.Unlock()

	if ok {
		cmd.Ack(msg)
	}
}

// Channel implements pwm.Output on one controller channel.
type Channel struct {
	node *Node
	chn  uint8
	freq uint
	duty uint16
}

func (c *Channel) SetFrequency(hz uint) error {
	if _, err := newCMDSetFreq(c.node, c.chn, hz).Process(); err != nil {
		return err
	}

	c.freq = hz
	return nil
}

func (c *Channel) Frequency() uint {
	return c.freq
}

func (c *Channel) SetDuty(duty uint16) error {
	if _, err := newCMDSetDuty(c.node, c.chn, duty).Process(); err != nil {
		return err
	}

	c.duty = duty
	return nil
}

func (c *Channel) Duty() uint16 {
	return c.duty
}
