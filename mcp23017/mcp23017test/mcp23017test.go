// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017test implements an in-memory MCP23017 population usable as
// an i2c.Bus in tests.
package mcp23017test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/expander/mcp23017"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// ErrNack is returned for transactions to an address with no device.
var ErrNack = errors.New("mcp23017test: no device acknowledged")

type regs struct {
	port  [2][11]uint8
	iocon uint8
	// Levels applied to the pins from outside.
	inputs [2]uint8
	ptr    uint8
}

// Chip simulates MCP23017 devices sharing one bus. The zero value has no
// devices; use New.
type Chip struct {
	mu   sync.Mutex
	devs map[uint16]*regs
}

// New returns a bus with a powered-on MCP23017 at each of addrs.
func New(addrs ...uint16) *Chip {
	c := &Chip{devs: map[uint16]*regs{}}
	for _, a := range addrs {
		c.devs[a] = newRegs()
	}
	return c
}

func newRegs() *regs {
	r := &regs{}
	r.port[0][mcp23017.IODIR] = 0xFF
	r.port[1][mcp23017.IODIR] = 0xFF
	return r
}

// SetInputs sets the external level applied to the pins of port p.
func (c *Chip) SetInputs(addr uint16, p mcp23017.Port, v uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mustDev(addr).inputs[p] = v
}

// Register returns the raw content of logical register r, bypassing the bus.
func (c *Chip) Register(addr uint16, r mcp23017.Register, p mcp23017.Port) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.mustDev(addr)
	if r == mcp23017.IOCON {
		return d.iocon
	}
	if r == mcp23017.GPIO {
		return d.gpio(p)
	}
	return d.port[p][r]
}

func (c *Chip) mustDev(addr uint16) *regs {
	d, ok := c.devs[addr]
	if !ok {
		panic(fmt.Sprintf("mcp23017test: no device simulated at 0x%02x", addr))
	}
	return d
}

func (c *Chip) String() string {
	return "mcp23017test"
}

// SetSpeed implements i2c.Bus.
func (c *Chip) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. The first written byte sets the register pointer;
// further written bytes and read bytes advance it unless IOCON.SEQOP is set.
func (c *Chip) Tx(addr uint16, w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.devs[addr]
	if !ok {
		return fmt.Errorf("%w at 0x%02x", ErrNack, addr)
	}
	if len(w) > 0 {
		d.ptr = w[0]
		for _, b := range w[1:] {
			d.write(d.ptr, b)
			d.advance()
		}
	}
	for i := range r {
		r[i] = d.read(d.ptr)
		d.advance()
	}
	return nil
}

func (d *regs) addressMap() mcp23017.AddressMap {
	if d.iocon&mcp23017.IOCONBank != 0 {
		return mcp23017.Bank1
	}
	return mcp23017.Bank0
}

func (d *regs) advance() {
	if d.iocon&mcp23017.IOCONSeqop != 0 {
		return
	}
	m := d.addressMap()
	for i := 0; i < 0x20; i++ {
		d.ptr = (d.ptr + 1) & 0x1F
		if _, _, ok := m.Lookup(d.ptr); ok {
			return
		}
	}
}

func (d *regs) gpio(p mcp23017.Port) uint8 {
	dir := d.port[p][mcp23017.IODIR]
	in := d.inputs[p] ^ d.port[p][mcp23017.IPOL]
	return d.port[p][mcp23017.OLAT]&^dir | in&dir
}

func (d *regs) read(a uint8) uint8 {
	r, p, ok := d.addressMap().Lookup(a)
	if !ok {
		return 0
	}
	switch r {
	case mcp23017.IOCON:
		return d.iocon
	case mcp23017.GPIO:
		return d.gpio(p)
	}
	return d.port[p][r]
}

func (d *regs) write(a, v uint8) {
	r, p, ok := d.addressMap().Lookup(a)
	if !ok {
		return
	}
	switch r {
	case mcp23017.IOCON:
		d.iocon = v
	case mcp23017.GPIO:
		d.port[p][mcp23017.OLAT] = v
	case mcp23017.INTF, mcp23017.INTCAP:
	default:
		d.port[p][r] = v
	}
}

var _ i2c.Bus = &Chip{}
