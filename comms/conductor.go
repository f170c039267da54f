package comms

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openactuator/motorkit/rig"
	"github.com/openactuator/motorkit/rig/stepper"
)

// FRAMERATE is how many state snapshots per second are pushed to connected
// clients.
const FRAMERATE = 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Cmd is one control message from a client.
type Cmd struct {
	Cmd   string  `json:"cmd"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int     `json:"count,omitempty"`
	Style string  `json:"style,omitempty"`
}

// Conductor fans rig state out to websocket clients and feeds their commands
// back into the device.
type Conductor struct {
	Device rig.Device

	clients map[*websocket.Conn]bool
	lock    sync.Mutex
}

func NewConductor(device rig.Device) *Conductor {
	return &Conductor{
		Device:  device,
		clients: make(map[*websocket.Conn]bool),
	}
}

func (c *Conductor) ProcessCommand(cmd Cmd) error {
	switch cmd.Cmd {
	case "throttle":
		return c.Device.SetThrottle(cmd.Name, cmd.Value)

	case "coast":
		return c.Device.CoastMotor(cmd.Name)

	case "angle":
		return c.Device.SetAngle(cmd.Name, cmd.Value)

	case "disable":
		return c.Device.DisableServo(cmd.Name)

	case "step":
		style, err := ParseStyle(cmd.Style)
		if err != nil {
			return err
		}
		_, err = c.Device.Step(cmd.Name, cmd.Count, style)
		return err

	case "release":
		return c.Device.ReleaseStepper(cmd.Name)

	default:
		return fmt.Errorf("unable to process command %q", cmd.Cmd)
	}
}

// ParseStyle maps the wire names of step styles onto stepper styles.
func ParseStyle(style string) (stepper.Style, error) {
	switch style {
	case "", "single":
		return stepper.StyleSingle, nil
	case "double":
		return stepper.StyleDouble, nil
	case "interleave":
		return stepper.StyleInterleave, nil
	case "microstep":
		return stepper.StyleMicrostep, nil
	}
	return 0, fmt.Errorf("unknown step style %q", style)
}

// ServeHTTP upgrades the request and pumps commands until the client goes
// away. Register it on the router behind the auth middleware.
func (c *Conductor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("upgrade:", err)
		return
	}
	defer conn.Close()

	c.addClient(conn)
	defer c.removeClient(conn)

	for {
		var cmd Cmd
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}

		if err := c.ProcessCommand(cmd); err != nil {
			c.writeError(conn, err)
		}
	}
}

// UpdateClients pushes state snapshots to every connected client forever.
// Run it in a goroutine.
func (c *Conductor) UpdateClients() {
	for {
		state := c.Device.GetState()

		c.lock.Lock()
		for conn := range c.clients {
			if err := conn.WriteJSON(state); err != nil {
				conn.Close()
				delete(c.clients, conn)
			}
		}
		c.lock.Unlock()

		time.Sleep(time.Second / FRAMERATE)
	}
}

// writeError reports a failed command back to one client. Connection writes
// share the broadcast lock; gorilla connections support one writer at a time.
func (c *Conductor) writeError(conn *websocket.Conn, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	conn.WriteJSON(map[string]string{"error": err.Error()})
}

func (c *Conductor) addClient(conn *websocket.Conn) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.clients[conn] = true
}

func (c *Conductor) removeClient(conn *websocket.Conn) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.clients, conn)
}
