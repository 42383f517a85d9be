// SPDX-License-Identifier: MIT

package daemon

import (
	"fmt"
	"net"

	"github.com/ManuGH/chuck/internal/config"
	"github.com/ManuGH/chuck/internal/dmx"
)

// Deps lets callers hand the manager resources it would otherwise open from
// the configuration. Every field is optional.
type Deps struct {
	// Conn is the controller command socket. When nil, the manager listens on
	// Config.Listen.
	Conn *net.UDPConn

	// Port is the DMX output. When nil, the configured driver is opened.
	Port dmx.Port

	// HTTPListener serves the status surface. When nil, the manager listens on
	// Config.HTTP.Listen unless that is empty.
	HTTPListener net.Listener
}

// openPort opens the output driver named by c.Driver.
func openPort(c config.DMXConfig) (dmx.Port, error) {
	switch c.Driver {
	case config.DriverNull, "":
		return &dmx.NullPort{}, nil
	case config.DriverEnttec:
		p, err := dmx.OpenEnttec(c.Device)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.DriverArtNet:
		p, err := dmx.OpenArtNet(c.ArtNetTarget, uint16(c.Universe)) // #nosec G115 -- universe range is validated by config
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// listenCommands binds the controller command socket.
func listenCommands(addr string) (*net.UDPConn, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return conn, nil
}
