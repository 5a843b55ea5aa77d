// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport provides the byte-level I²C transaction interface used by
// register drivers, and adapters from concrete bus implementations onto it.
//
// A write transaction is bracketed by BeginTransaction and EndTransaction:
//
//	START, addr+W, b0, b1, ..., STOP
//
// A read is a separate RequestBytes call:
//
//	START, addr+R, r0, ..., STOP
package transport

import (
	"errors"
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"
)

// ErrNoTransaction is returned when WriteByte or EndTransaction is called
// without a matching BeginTransaction.
var ErrNoTransaction = errors.New("transport: no transaction in progress")

// Transport is an I²C master able to issue write and read transactions.
//
// Implementations are not required to be safe for concurrent use; callers
// serialize access.
type Transport interface {
	// BeginTransaction starts buffering a write to the device at addr.
	BeginTransaction(addr uint16)
	// WriteByte queues b for the current transaction.
	WriteByte(b byte) error
	// EndTransaction sends the queued bytes and releases the bus.
	EndTransaction() error
	// RequestBytes reads up to count bytes from addr. A device may return
	// fewer bytes than requested; the returned slice is then shorter.
	RequestBytes(addr uint16, count int) ([]byte, error)
}

// I2C adapts a periph i2c.Bus to Transport.
type I2C struct {
	bus    i2c.Bus
	addr   uint16
	buf    []byte
	active bool
}

// NewI2C returns a Transport sending its transactions over bus.
func NewI2C(bus i2c.Bus) *I2C {
	return &I2C{bus: bus, buf: make([]byte, 0, 4)}
}

func (t *I2C) BeginTransaction(addr uint16) {
	t.addr = addr
	t.buf = t.buf[:0]
	t.active = true
}

func (t *I2C) WriteByte(b byte) error {
	if !t.active {
		return ErrNoTransaction
	}
	t.buf = append(t.buf, b)
	return nil
}

func (t *I2C) EndTransaction() error {
	if !t.active {
		return ErrNoTransaction
	}
	t.active = false
	if err := t.bus.Tx(t.addr, t.buf, nil); err != nil {
		return fmt.Errorf("transport: write to 0x%02x: %w", t.addr, err)
	}
	return nil
}

func (t *I2C) RequestBytes(addr uint16, count int) ([]byte, error) {
	r := make([]byte, count)
	if err := t.bus.Tx(addr, nil, r); err != nil {
		return nil, fmt.Errorf("transport: read from 0x%02x: %w", addr, err)
	}
	return r, nil
}

// Close closes the underlying bus if it supports it.
func (t *I2C) Close() error {
	if c, ok := t.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *I2C) String() string {
	return t.bus.String()
}

var _ Transport = &I2C{}
