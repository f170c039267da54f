package mcu

import (
	"errors"
	"time"
)

const (
	CMD_ALLSTOP  = 0x0000
	CMD_SET_FREQ = 0x0010
	CMD_SET_DUTY = 0x0020
	CMD_VERSION  = 0x03E0

	CMD_MAX_RETRIES = 5
	CMD_TIMEOUT     = 5 * time.Millisecond
)

var (
	ERR_MAX_RETRIES = errors.New("CMD_MAX_RETRIES reached while attempting to send")
	ERR_SEND_ABORT  = errors.New("send has been aborted")
)

type NodeCommand interface {
	ID() uint16
	Process() (resp Msg, err error)
	Ack(msg Msg)
	Msg() Msg
	Abort() error
}

type BaseCommand struct {
	node  *Node
	cmd   NodeCommand // outer command when embedded
	msg   Msg
	ack   chan Msg
	abort chan struct{}
}

// outer resolves the command whose Msg and ID go on the wire. Method calls
// through the embedded base dispatch statically, so derived commands hand
// themselves back in via the cmd field.
func (c *BaseCommand) outer() NodeCommand {
	if c.cmd != nil {
		return c.cmd
	}
	return c
}

// Sends the current command and waits for the firmware to echo it back.
// Unacknowledged frames are resent after CMD_TIMEOUT up to CMD_MAX_RETRIES.
// Can be canceled by closing the abort channel.
// Returns the acknowledgement for upstream processing should it be necessary.
func (c *BaseCommand) Process() (resp Msg, err error) {
	c.node.pending.Add(1)
	defer c.node.pending.Done()

	// frame first: ID reads the framed message on commands without their
	// own id, then register the callback with the node
	cmd := c.outer()
	msg := cmd.Msg()
	c.node.register(cmd)
	defer c.node.unregister(cmd)

	if c.ack == nil {
		c.ack = make(chan Msg)
	}

	if c.abort == nil {
		c.abort = make(chan struct{})
	}

	// attempt initial sending
	err = c.node.SendMsg(msg)
	if err != nil {
		return resp, err
	}

	for i := 1; i < CMD_MAX_RETRIES; i++ {
		select {
		case resp := <-c.ack:
			if c.verify(resp) {
				return resp, nil
			}

		case <-c.abort:
			return resp, ERR_SEND_ABORT

		case <-time.After(CMD_TIMEOUT):
			err = c.node.SendMsg(msg)
			if err != nil {
				return resp, err
			}
		}
	}

	// we have exhausted MAX_RETRIES
	return resp, ERR_MAX_RETRIES
}

func (c *BaseCommand) verify(msg Msg) bool {
	return msg.Channel == c.msg.Channel && msg.Value == c.msg.Value
}

func (c *BaseCommand) ID() uint16 {
	return c.Msg().Cmd
}

func (c *BaseCommand) Msg() Msg {
	return c.msg
}

func (c *BaseCommand) Abort() error {
	if c.abort == nil {
		return errors.New("send not yet attempted")
	}

	close(c.abort)
	return nil
}

func (c *BaseCommand) Ack(msg Msg) {
	c.ack <- msg
}

// Retunes the carrier frequency of a single channel. ID is composed from the
// command code and the channel so commands to different channels can be in
// flight together.
type CMDSetFreq struct {
	*BaseCommand
	channel uint8
	hz      uint
}

func newCMDSetFreq(node *Node, channel uint8, hz uint) *CMDSetFreq {
	cmd := &CMDSetFreq{channel: channel, hz: hz}
	cmd.BaseCommand = &BaseCommand{node: node, cmd: cmd}
	return cmd
}

func (c *CMDSetFreq) ID() uint16 {
	return CMD_SET_FREQ | uint16(c.channel)
}

func (c *CMDSetFreq) Msg() (msg Msg) {
	c.msg.Cmd = CMD_SET_FREQ
	c.msg.Channel = c.channel
	c.msg.Value = uint32(c.hz)

	return c.msg
}

// Sets the 16 bit duty value of a single channel.
type CMDSetDuty struct {
	*BaseCommand
	channel uint8
	duty    uint16
}

func newCMDSetDuty(node *Node, channel uint8, duty uint16) *CMDSetDuty {
	cmd := &CMDSetDuty{channel: channel, duty: duty}
	cmd.BaseCommand = &BaseCommand{node: node, cmd: cmd}
	return cmd
}

func (c *CMDSetDuty) ID() uint16 {
	return CMD_SET_DUTY | uint16(c.channel)
}

func (c *CMDSetDuty) Msg() (msg Msg) {
	c.msg.Cmd = CMD_SET_DUTY
	c.msg.Channel = c.channel
	c.msg.Value = uint32(c.duty)

	return c.msg
}

// Requests the firmware version string.
type CMDVersion struct {
	*BaseCommand
}

func newCMDVersion(node *Node) *CMDVersion {
	cmd := &CMDVersion{}
	cmd.BaseCommand = &BaseCommand{node: node, cmd: cmd}
	return cmd
}

func (c *CMDVersion) Msg() (msg Msg) {
	c.msg.Cmd = CMD_VERSION

	return c.msg
}
