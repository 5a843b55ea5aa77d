// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package transport

import (
	"fmt"

	"github.com/d2r2/go-i2c"
	logger "github.com/d2r2/go-logger"
)

// D2r2 adapts github.com/d2r2/go-i2c to Transport. go-i2c binds a file handle
// to a single slave address, so one handle is opened per address on first
// use.
type D2r2 struct {
	bus  int
	devs map[uint16]*i2c.I2C

	cur    *i2c.I2C
	curErr error
	buf    []byte
	active bool
}

// NewD2r2 returns a Transport on /dev/i2c-<bus>. No file is opened until the
// first transaction.
func NewD2r2(bus int) (*D2r2, error) {
	// go-i2c logs every transfer at debug level.
	if err := logger.ChangePackageLogLevel("i2c", logger.InfoLevel); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	return &D2r2{bus: bus, devs: map[uint16]*i2c.I2C{}}, nil
}

func (t *D2r2) dev(addr uint16) (*i2c.I2C, error) {
	if d, ok := t.devs[addr]; ok {
		return d, nil
	}
	if addr > 0x7F {
		return nil, fmt.Errorf("transport: 10 bit address 0x%x not supported", addr)
	}
	d, err := i2c.NewI2C(uint8(addr), t.bus)
	if err != nil {
		return nil, fmt.Errorf("transport: open i2c-%d@0x%02x: %w", t.bus, addr, err)
	}
	t.devs[addr] = d
	return d, nil
}

func (t *D2r2) BeginTransaction(addr uint16) {
	t.buf = t.buf[:0]
	t.active = true
	// An open failure is reported by EndTransaction.
	t.cur, t.curErr = t.dev(addr)
}

func (t *D2r2) WriteByte(b byte) error {
	if !t.active {
		return ErrNoTransaction
	}
	t.buf = append(t.buf, b)
	return nil
}

func (t *D2r2) EndTransaction() error {
	if !t.active {
		return ErrNoTransaction
	}
	t.active = false
	if t.curErr != nil {
		return t.curErr
	}
	n, err := t.cur.WriteBytes(t.buf)
	if err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	if n != len(t.buf) {
		return fmt.Errorf("transport: wrote %d bytes, expected %d", n, len(t.buf))
	}
	return nil
}

func (t *D2r2) RequestBytes(addr uint16, count int) ([]byte, error) {
	d, err := t.dev(addr)
	if err != nil {
		return nil, err
	}
	r := make([]byte, count)
	n, err := d.ReadBytes(r)
	if err != nil {
		return nil, fmt.Errorf("transport: read: %w", err)
	}
	return r[:n], nil
}

// Close closes every per-address handle.
func (t *D2r2) Close() error {
	var first error
	for addr, d := range t.devs {
		if err := d.Close(); err != nil && first == nil {
			first = err
		}
		delete(t.devs, addr)
	}
	return first
}

func (t *D2r2) String() string {
	return fmt.Sprintf("i2c-%d", t.bus)
}

var _ Transport = &D2r2{}
