// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pin extends gpio.PinIO with the function and input polarity control of the
// MCP23017.
type Pin interface {
	gpio.PinIO
	pin.PinFunc
	// SetPolarityInverted if set to true, GPIO register bit reflects the
	// opposite logic state of the input pin.
	SetPolarityInverted(p bool) error
	// IsPolarityInverted returns true if the pin reads inverted.
	IsPolarityInverted() (bool, error)
}

// Chip is one MCP23017 on the bus seen as periph pins and connections.
type Chip struct {
	Pins  [][]Pin     // Pins is structured as [port][pin].
	Conns []conn.Conn // Conns holds one half duplex connection per port.

	dev  *Dev
	addr uint16
	name string
}

// Chip returns the pins of the device at addr and registers them in gpioreg.
// Pin names are MCP23017_<addr>_P<port>_<pin>, e.g. MCP23017_20_PB_3.
//
// Only one Chip per address can be open at a time; Close it before calling
// Chip again for the same address.
func (d *Dev) Chip(addr uint16) (*Chip, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	c := &Chip{dev: d, addr: addr, name: "MCP23017_" + strconv.FormatUint(uint64(addr), 16)}
	for _, p := range []Port{PortA, PortB} {
		pt := &port{chip: c, port: p, name: c.name + "_P" + p.String()}
		pins := make([]Pin, 8)
		for i := range pins {
			pins[i] = &portpin{port: pt, pinbit: uint8(i)}
		}
		c.Pins = append(c.Pins, pins)
		c.Conns = append(c.Conns, pt)
	}
	var done []Pin
	for _, pins := range c.Pins {
		for _, p := range pins {
			if err := gpioreg.Register(p); err != nil {
				for _, r := range done {
					_ = gpioreg.Unregister(r.Name())
				}
				return nil, fmt.Errorf("mcp23017: %w", err)
			}
			done = append(done, p)
		}
	}
	return c, nil
}

// Addr returns the device address.
func (c *Chip) Addr() uint16 {
	return c.addr
}

func (c *Chip) String() string {
	return c.name
}

// Close removes the pins from gpioreg.
func (c *Chip) Close() error {
	for _, port := range c.Pins {
		for _, pin := range port {
			if err := gpioreg.Unregister(pin.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

type port struct {
	chip *Chip
	port Port
	name string
}

// Tx writes w to the port, or reads the port into r, one byte at a time.
// Only half duplex is supported so it is an error to pass both buffers.
func (p *port) Tx(w, r []byte) error {
	switch {
	case len(w) > 0 && len(r) > 0:
		return fmt.Errorf("mcp23017: only conn.Half duplex is supported")
	case len(w) > 0:
		for _, b := range w {
			if err := p.chip.dev.WritePort(p.port, b, p.chip.addr); err != nil {
				return err
			}
		}
	case len(r) > 0:
		for i := range r {
			v, err := p.chip.dev.ReadPort(p.port, p.chip.addr)
			if err != nil {
				return err
			}
			r[i] = v
		}
	}
	return nil
}

func (p *port) Duplex() conn.Duplex {
	return conn.Half
}

func (p *port) String() string {
	return p.name
}

type portpin struct {
	port   *port
	pinbit uint8
}

func (p *portpin) update(r Register, set bool) error {
	return p.port.chip.dev.updateBit(r, p.port.port, p.pinbit, set, p.port.chip.addr)
}

func (p *portpin) bit(r Register) (bool, error) {
	return p.port.chip.dev.getBit(r, p.port.port, p.pinbit, p.port.chip.addr)
}

func (p *portpin) String() string {
	return p.Name()
}

func (p *portpin) Halt() error {
	// High impedance input.
	return p.In(gpio.Float, gpio.NoEdge)
}

func (p *portpin) Name() string {
	return p.port.name + "_" + strconv.Itoa(int(p.pinbit))
}

func (p *portpin) Number() int {
	return int(p.pinbit)
}

func (p *portpin) Function() string {
	return string(p.Func())
}

func (p *portpin) In(pull gpio.Pull, edge gpio.Edge) error {
	// Nothing is written unless the whole request can be honored.
	if pull == gpio.PullDown {
		return fmt.Errorf("mcp23017: PullDown %w", ErrNotSupported)
	}
	if edge != gpio.NoEdge {
		return fmt.Errorf("mcp23017: edge detection %w", ErrNotSupported)
	}
	switch pull {
	case gpio.PullUp:
		if err := p.update(GPPU, true); err != nil {
			return err
		}
	case gpio.Float:
		if err := p.update(GPPU, false); err != nil {
			return err
		}
	}
	return p.update(IODIR, true)
}

func (p *portpin) Read() gpio.Level {
	v, _ := p.bit(GPIO)
	return gpio.Level(v)
}

func (p *portpin) WaitForEdge(timeout time.Duration) bool {
	return false
}

func (p *portpin) Pull() gpio.Pull {
	v, err := p.bit(GPPU)
	if err != nil {
		return gpio.PullNoChange
	}
	if v {
		return gpio.PullUp
	}
	return gpio.Float
}

func (p *portpin) DefaultPull() gpio.Pull {
	return gpio.Float
}

func (p *portpin) Out(l gpio.Level) error {
	if err := p.update(IODIR, false); err != nil {
		return err
	}
	return p.update(GPIO, bool(l))
}

func (p *portpin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return fmt.Errorf("mcp23017: PWM %w", ErrNotSupported)
}

func (p *portpin) Func() pin.Func {
	v, err := p.bit(IODIR)
	if err != nil {
		return pin.FuncNone
	}
	if v {
		return gpio.IN
	}
	return gpio.OUT
}

func (p *portpin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

func (p *portpin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.update(IODIR, true)
	case gpio.OUT:
		return p.update(IODIR, false)
	}
	return errors.New("mcp23017: function not supported: " + string(f))
}

func (p *portpin) SetPolarityInverted(inv bool) error {
	return p.update(IPOL, inv)
}

func (p *portpin) IsPolarityInverted() (bool, error) {
	return p.bit(IPOL)
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ Pin = &portpin{}
var _ conn.Conn = &port{}
