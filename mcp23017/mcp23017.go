// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GermanBionicSystems/expander/transport"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// MinAddress is the device address with A2..A0 tied to ground.
	MinAddress uint16 = 0x20
	// MaxAddress is the device address with A2..A0 tied to VDD.
	MaxAddress uint16 = 0x27
)

var (
	// ErrShortRead is returned when the device sends fewer bytes than
	// requested.
	ErrShortRead       = errors.New("short read")
	ErrInvalidAddress  = errors.New("invalid device address")
	ErrInvalidPort     = errors.New("invalid port")
	ErrInvalidPin      = errors.New("invalid pin")
	ErrInvalidRegister = errors.New("invalid register")
	ErrNotSupported    = errors.New("not supported")
)

// Opts holds the driver configuration.
type Opts struct {
	// Map must match the IOCON.BANK bit of every chip driven by the Dev.
	Map AddressMap
}

// DefaultOpts is the power-on configuration of the chip.
var DefaultOpts = Opts{Map: Bank0}

// BusConfig selects the I²C bus opened by Open.
type BusConfig struct {
	// Bus is the name or number of the bus, "" for the first one.
	Bus string
	// SCL and SDA, when set, must match the names of the bus' pins.
	SCL string
	SDA string
	// Frequency is applied to the bus when non zero.
	Frequency physic.Frequency
}

// Dev is a handle to the MCP23017 chips on one bus.
type Dev struct {
	mu   sync.Mutex
	t    transport.Transport
	opts Opts
}

// New returns a Dev issuing its transactions on t. opts may be nil.
func New(t transport.Transport, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Dev{t: t, opts: *opts}
}

// NewI2C returns a Dev on a periph I²C bus.
func NewI2C(bus i2c.Bus, opts *Opts) *Dev {
	return New(transport.NewI2C(bus), opts)
}

// Open initializes periph, opens the bus described by cfg and returns a Dev on
// it. cfg may be nil to use the default bus.
func Open(cfg *BusConfig, opts *Opts) (*Dev, error) {
	bus, err := OpenBus(cfg)
	if err != nil {
		return nil, err
	}
	return NewI2C(bus, opts), nil
}

// OpenBus initializes periph and opens the bus described by cfg.
func OpenBus(cfg *BusConfig) (i2c.BusCloser, error) {
	if cfg == nil {
		cfg = &BusConfig{}
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("mcp23017: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("mcp23017: %w", err)
	}
	if err := checkBus(bus, cfg); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return bus, nil
}

func checkBus(bus i2c.BusCloser, cfg *BusConfig) error {
	if cfg.Frequency != 0 {
		if err := bus.SetSpeed(cfg.Frequency); err != nil {
			return fmt.Errorf("mcp23017: %w", err)
		}
	}
	if cfg.SCL == "" && cfg.SDA == "" {
		return nil
	}
	p, ok := bus.(i2c.Pins)
	if !ok {
		return fmt.Errorf("mcp23017: %s does not report its pins", bus)
	}
	if cfg.SCL != "" && p.SCL().Name() != cfg.SCL {
		return fmt.Errorf("mcp23017: %s SCL is %s, not %s", bus, p.SCL(), cfg.SCL)
	}
	if cfg.SDA != "" && p.SDA().Name() != cfg.SDA {
		return fmt.Errorf("mcp23017: %s SDA is %s, not %s", bus, p.SDA(), cfg.SDA)
	}
	return nil
}

// Map returns the address map in use.
func (d *Dev) Map() AddressMap {
	return d.opts.Map
}

// Close closes the underlying transport.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("mcp23017{%v, %s}", d.t, d.opts.Map)
}

// ReadRegister reads the register at bus address reg.
func (d *Dev) ReadRegister(reg uint8, addr uint16) (uint8, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg, addr)
}

// WriteRegister writes value to the register at bus address reg.
func (d *Dev) WriteRegister(reg, value uint8, addr uint16) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(reg, value, addr)
}

// Read reads logical register r of port p.
func (d *Dev) Read(r Register, p Port, addr uint16) (uint8, error) {
	reg, err := d.resolve(r, p, addr)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg, addr)
}

// Write writes value to logical register r of port p.
func (d *Dev) Write(r Register, p Port, value uint8, addr uint16) error {
	reg, err := d.resolve(r, p, addr)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(reg, value, addr)
}

// SetDirection writes mask to IODIR. A 1 bit makes the pin an input.
func (d *Dev) SetDirection(p Port, mask uint8, addr uint16) error {
	return d.Write(IODIR, p, mask, addr)
}

// SetPolarity writes mask to IPOL. A 1 bit inverts the pin as read from
// GPIO.
func (d *Dev) SetPolarity(p Port, mask uint8, addr uint16) error {
	return d.Write(IPOL, p, mask, addr)
}

// SetPullUp writes mask to GPPU. A 1 bit enables the internal pull-up of an
// input pin.
func (d *Dev) SetPullUp(p Port, mask uint8, addr uint16) error {
	return d.Write(GPPU, p, mask, addr)
}

// ReadPort returns the logic levels of the 8 pins of p.
func (d *Dev) ReadPort(p Port, addr uint16) (uint8, error) {
	return d.Read(GPIO, p, addr)
}

// WritePort drives the output pins of p. The chip stores value in OLAT.
func (d *Dev) WritePort(p Port, value uint8, addr uint16) error {
	return d.Write(GPIO, p, value, addr)
}

// ReadLatch returns the output latches of p.
func (d *Dev) ReadLatch(p Port, addr uint16) (uint8, error) {
	return d.Read(OLAT, p, addr)
}

// ReadPinBit returns the state of one pin as either 0 or 1<<pin.
func (d *Dev) ReadPinBit(p Port, pin uint8, addr uint16) (uint8, error) {
	if pin > 7 {
		return 0, fmt.Errorf("mcp23017: %w %d", ErrInvalidPin, pin)
	}
	v, err := d.ReadPort(p, addr)
	if err != nil {
		return 0, err
	}
	return v & (1 << pin), nil
}

// SetPinBit drives one output pin high, leaving the other pins untouched.
func (d *Dev) SetPinBit(p Port, pin uint8, addr uint16) error {
	return d.updateBit(GPIO, p, pin, true, addr)
}

// ClearPinBit drives one output pin low, leaving the other pins untouched.
func (d *Dev) ClearPinBit(p Port, pin uint8, addr uint16) error {
	return d.updateBit(GPIO, p, pin, false, addr)
}

// Reset writes the power-on value to every writable register of both ports:
// all pins inputs, no pull-ups, no inversion, no interrupts.
func (d *Dev) Reset(addr uint16) error {
	if err := checkAddr(addr); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range []Port{PortA, PortB} {
		for r := Register(0); int(r) < numRegisters; r++ {
			// IOCON is left alone so the address map stays valid.
			if !r.Writable() || r == IOCON || r == GPIO {
				continue
			}
			reg, _ := d.opts.Map.Address(r, p)
			if err := d.writeRegister(reg, powerOnDefaults[r], addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateBit performs a read-modify-write of a single bit under the lock.
func (d *Dev) updateBit(r Register, p Port, pin uint8, set bool, addr uint16) error {
	if pin > 7 {
		return fmt.Errorf("mcp23017: %w %d", ErrInvalidPin, pin)
	}
	reg, err := d.resolve(r, p, addr)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(reg, addr)
	if err != nil {
		return err
	}
	if set {
		v |= 1 << pin
	} else {
		v &^= 1 << pin
	}
	return d.writeRegister(reg, v, addr)
}

func (d *Dev) getBit(r Register, p Port, pin uint8, addr uint16) (bool, error) {
	v, err := d.Read(r, p, addr)
	return v&(1<<pin) != 0, err
}

func (d *Dev) resolve(r Register, p Port, addr uint16) (uint8, error) {
	if err := checkAddr(addr); err != nil {
		return 0, err
	}
	return d.opts.Map.Address(r, p)
}

func (d *Dev) readRegister(reg uint8, addr uint16) (uint8, error) {
	d.t.BeginTransaction(addr)
	if err := d.t.WriteByte(reg); err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	if err := d.t.EndTransaction(); err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	r, err := d.t.RequestBytes(addr, 1)
	if err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	if len(r) < 1 {
		return 0, fmt.Errorf("mcp23017: register 0x%02x of 0x%02x: %w", reg, addr, ErrShortRead)
	}
	return r[0], nil
}

func (d *Dev) writeRegister(reg, value uint8, addr uint16) error {
	d.t.BeginTransaction(addr)
	if err := d.t.WriteByte(reg); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	if err := d.t.WriteByte(value); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	if err := d.t.EndTransaction(); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	return nil
}

func checkAddr(addr uint16) error {
	if addr < MinAddress || addr > MaxAddress {
		return fmt.Errorf("mcp23017: %w 0x%x", ErrInvalidAddress, addr)
	}
	return nil
}
