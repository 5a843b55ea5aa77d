// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import "fmt"

// Register is a logical MCP23017 register. Its bus address depends on the
// port and on the AddressMap in use.
type Register uint8

// Default bits are all zero, except IODIR which powers up as 0xFF.
const (
	IODIR   Register = iota // 1: input 0: output
	IPOL                    // 1: GPIO reflects the inverted pin state
	GPINTEN                 // 1: interrupt-on-change enabled
	DEFVAL                  // compare value for interrupt-on-change
	INTCON                  // 1: compare against DEFVAL 0: against previous value
	IOCON                   // configuration, shared by both ports
	GPPU                    // 1: 100kΩ pull-up enabled
	INTF                    // read only
	INTCAP                  // read only
	GPIO                    // reads the pins, writes OLAT
	OLAT                    // output latches

	numRegisters = int(OLAT) + 1
)

var registerNames = [numRegisters]string{
	"IODIR", "IPOL", "GPINTEN", "DEFVAL", "INTCON", "IOCON",
	"GPPU", "INTF", "INTCAP", "GPIO", "OLAT",
}

func (r Register) String() string {
	if int(r) < numRegisters {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// ParseRegister returns the Register with the given name, e.g. "GPIO".
func ParseRegister(name string) (Register, error) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("mcp23017: %w %q", ErrInvalidRegister, name)
}

// Writable reports whether the chip accepts writes to r.
func (r Register) Writable() bool {
	return r != INTF && r != INTCAP && int(r) < numRegisters
}

// Port selects one of the two 8-bit GPIO banks.
type Port uint8

const (
	PortA Port = 0
	PortB Port = 1
)

func (p Port) String() string {
	switch p {
	case PortA:
		return "A"
	case PortB:
		return "B"
	}
	return fmt.Sprintf("Port(%d)", uint8(p))
}

func (p Port) valid() bool {
	return p == PortA || p == PortB
}

// ParsePort accepts "A", "B", "a", "b", "0" and "1".
func ParsePort(s string) (Port, error) {
	switch s {
	case "A", "a", "0":
		return PortA, nil
	case "B", "b", "1":
		return PortB, nil
	}
	return 0, fmt.Errorf("mcp23017: %w %q", ErrInvalidPort, s)
}

// AddressMap selects how register addresses are laid out on the chip. It
// must match the IOCON.BANK bit currently programmed into the device.
type AddressMap uint8

const (
	// Bank0 pairs the A/B registers, IODIRA at 0x00 and IODIRB at 0x01. This is
	// the power-on layout.
	Bank0 AddressMap = iota
	// Bank1 segregates port A at 0x00-0x0A and port B at 0x10-0x1A.
	Bank1
)

func (m AddressMap) String() string {
	switch m {
	case Bank0:
		return "bank0"
	case Bank1:
		return "bank1"
	}
	return fmt.Sprintf("AddressMap(%d)", uint8(m))
}

// Address returns the bus address of register r for port p.
func (m AddressMap) Address(r Register, p Port) (uint8, error) {
	if !p.valid() {
		return 0, fmt.Errorf("mcp23017: %w %d", ErrInvalidPort, p)
	}
	if int(r) >= numRegisters {
		return 0, fmt.Errorf("mcp23017: %w %d", ErrInvalidRegister, r)
	}
	switch m {
	case Bank0:
		if r == IOCON {
			// IOCONB mirrors IOCONA.
			return 0x0A, nil
		}
		return uint8(r)<<1 | uint8(p), nil
	case Bank1:
		return uint8(p)<<4 | uint8(r), nil
	}
	return 0, fmt.Errorf("mcp23017: unknown address map %d", m)
}

// Lookup is the inverse of Address. ok is false for unmapped addresses.
func (m AddressMap) Lookup(addr uint8) (r Register, p Port, ok bool) {
	switch m {
	case Bank0:
		if addr > 0x15 {
			return 0, 0, false
		}
		return Register(addr >> 1), Port(addr & 1), true
	case Bank1:
		r, p = Register(addr&0x0F), Port(addr>>4)
		if int(r) >= numRegisters || !p.valid() {
			return 0, 0, false
		}
		return r, p, true
	}
	return 0, 0, false
}

// RegisterAddress is Bank0.Address without the error, for use with
// constant arguments. It panics on an invalid port or register.
func RegisterAddress(r Register, p Port) uint8 {
	a, err := Bank0.Address(r, p)
	if err != nil {
		panic(err)
	}
	return a
}

// IOCON bits.
const (
	_            = uint8(1 << iota)
	IOCONIntPol  // 1: INT pins active-high
	IOCONOdr     // 1: INT pins open-drain, overrides INTPOL
	IOCONHaen    // MCP23S17 only
	IOCONDisslw  // 1: SDA slew rate control disabled
	IOCONSeqop   // 1: address pointer does not increment
	IOCONMirror  // 1: INTA and INTB are OR'ed
	IOCONBank    // 1: Bank1 address map
)

// Common port values.
const (
	AllInput    uint8 = 0xFF
	AllOutput   uint8 = 0x00
	AllInverted uint8 = 0xFF
	AllNormal   uint8 = 0x00
	AllPullUp   uint8 = 0xFF
	NoPullUp    uint8 = 0x00
)

// powerOnDefaults holds the reset value of every register.
var powerOnDefaults = [numRegisters]uint8{IODIR: 0xFF}
