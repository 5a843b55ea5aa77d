// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23017

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/expander/transport"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

const address uint16 = 0x20

func TestWriteRegister(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: address, W: []byte{0x0A, 0x20}},
		},
		DontPanic: true,
	}
	dev := NewI2C(pb, nil)
	if err := dev.WriteRegister(0x0A, 0x20, address); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadRegister(t *testing.T) {
	// The register pointer is set in one transaction and read in another.
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x23, W: []byte{0x13}},
			{Addr: 0x23, R: []byte{0xA5}},
		},
		DontPanic: true,
	}
	dev := NewI2C(pb, nil)
	v, err := dev.ReadRegister(0x13, 0x23)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xA5 {
		t.Errorf("got 0x%02x, want 0xa5", v)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPortOperations(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: address, W: []byte{0x00, 0x0F}}, // IODIRA
			{Addr: address, W: []byte{0x03, 0x80}}, // IPOLB
			{Addr: address, W: []byte{0x0C, 0x0F}}, // GPPUA
			{Addr: address, W: []byte{0x12, 0xF0}}, // GPIOA
			{Addr: address, W: []byte{0x13}},       // GPIOB
			{Addr: address, R: []byte{0x5A}},
			{Addr: address, W: []byte{0x15}}, // OLATB
			{Addr: address, R: []byte{0x33}},
		},
		DontPanic: true,
	}
	dev := NewI2C(pb, nil)
	if err := dev.SetDirection(PortA, 0x0F, address); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetPolarity(PortB, 0x80, address); err != nil {
		t.Fatal(err)
	}
	if err := dev.SetPullUp(PortA, 0x0F, address); err != nil {
		t.Fatal(err)
	}
	if err := dev.WritePort(PortA, 0xF0, address); err != nil {
		t.Fatal(err)
	}
	v, err := dev.ReadPort(PortB, address)
	if err != nil || v != 0x5A {
		t.Errorf("ReadPort = 0x%02x, %v", v, err)
	}
	v, err = dev.ReadLatch(PortB, address)
	if err != nil || v != 0x33 {
		t.Errorf("ReadLatch = 0x%02x, %v", v, err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestSetClearPinBit(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// set bit 3 of port B
			{Addr: address, W: []byte{0x13}},
			{Addr: address, R: []byte{0x81}},
			{Addr: address, W: []byte{0x13, 0x89}},
			// clear bit 7 of port A
			{Addr: address, W: []byte{0x12}},
			{Addr: address, R: []byte{0xFF}},
			{Addr: address, W: []byte{0x12, 0x7F}},
		},
		DontPanic: true,
	}
	dev := NewI2C(pb, nil)
	if err := dev.SetPinBit(PortB, 3, address); err != nil {
		t.Fatal(err)
	}
	if err := dev.ClearPinBit(PortA, 7, address); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadPinBit(t *testing.T) {
	tests := []struct {
		port uint8
		want uint8
	}{
		{0x08, 0x08},
		{0xF7, 0x00},
		{0xFF, 0x08},
		{0x00, 0x00},
	}
	for _, tc := range tests {
		pb := &i2ctest.Playback{
			Ops: []i2ctest.IO{
				{Addr: address, W: []byte{0x12}},
				{Addr: address, R: []byte{tc.port}},
			},
			DontPanic: true,
		}
		dev := NewI2C(pb, nil)
		got, err := dev.ReadPinBit(PortA, 3, address)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("ReadPinBit(A, 3) on 0x%02x = 0x%02x, want 0x%02x", tc.port, got, tc.want)
		}
	}
}

func TestBank1Map(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: address, W: []byte{0x10, 0x00}}, // IODIRB
			{Addr: address, W: []byte{0x19, 0x01}}, // GPIOB
		},
		DontPanic: true,
	}
	dev := NewI2C(pb, &Opts{Map: Bank1})
	if dev.Map() != Bank1 {
		t.Errorf("Map() = %s", dev.Map())
	}
	if err := dev.SetDirection(PortB, AllOutput, address); err != nil {
		t.Fatal(err)
	}
	if err := dev.WritePort(PortB, 0x01, address); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReset(t *testing.T) {
	var ops []i2ctest.IO
	for _, a := range []byte{0x00, 0x02, 0x04, 0x06, 0x08, 0x0C, 0x14, 0x01, 0x03, 0x05, 0x07, 0x09, 0x0D, 0x15} {
		v := byte(0)
		if a <= 0x01 {
			v = 0xFF
		}
		ops = append(ops, i2ctest.IO{Addr: address, W: []byte{a, v}})
	}
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev := NewI2C(pb, nil)
	if err := dev.Reset(address); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestInvalidArguments(t *testing.T) {
	// No transaction may reach the bus.
	pb := &i2ctest.Playback{DontPanic: true}
	dev := NewI2C(pb, nil)

	if err := dev.SetDirection(PortA, 0, 0x28); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("address 0x28: %v", err)
	}
	if _, err := dev.ReadRegister(0x12, 0x1F); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("address 0x1f: %v", err)
	}
	if err := dev.WritePort(Port(2), 0, address); !errors.Is(err, ErrInvalidPort) {
		t.Errorf("port 2: %v", err)
	}
	if err := dev.SetPinBit(PortA, 8, address); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("pin 8: %v", err)
	}
	if err := dev.ClearPinBit(PortA, 9, address); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("pin 9: %v", err)
	}
	if _, err := dev.ReadPinBit(PortB, 8, address); !errors.Is(err, ErrInvalidPin) {
		t.Errorf("pin 8: %v", err)
	}
	if err := dev.Reset(0x40); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("address 0x40: %v", err)
	}
	if _, err := dev.Chip(0x00); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("address 0x00: %v", err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

// shortTransport answers every read with no data.
type shortTransport struct {
	writes [][]byte
}

func (s *shortTransport) BeginTransaction(addr uint16) {
	s.writes = append(s.writes, nil)
}

func (s *shortTransport) WriteByte(b byte) error {
	i := len(s.writes) - 1
	s.writes[i] = append(s.writes[i], b)
	return nil
}

func (s *shortTransport) EndTransaction() error {
	return nil
}

func (s *shortTransport) RequestBytes(addr uint16, count int) ([]byte, error) {
	return nil, nil
}

func TestShortRead(t *testing.T) {
	st := &shortTransport{}
	dev := New(st, nil)
	if _, err := dev.ReadPort(PortA, address); !errors.Is(err, ErrShortRead) {
		t.Errorf("ReadPort: %v, want ErrShortRead", err)
	}
	if _, err := dev.ReadPinBit(PortA, 0, address); !errors.Is(err, ErrShortRead) {
		t.Errorf("ReadPinBit: %v, want ErrShortRead", err)
	}
	// A failed read must not be followed by a write back.
	if err := dev.SetPinBit(PortA, 0, address); !errors.Is(err, ErrShortRead) {
		t.Errorf("SetPinBit: %v, want ErrShortRead", err)
	}
	for _, w := range st.writes {
		if len(w) != 1 {
			t.Errorf("unexpected write % x", w)
		}
	}
}

func TestBusError(t *testing.T) {
	// The playback has no ops left, so every Tx fails.
	pb := &i2ctest.Playback{DontPanic: true}
	dev := NewI2C(pb, nil)
	if err := dev.WritePort(PortA, 1, address); err == nil {
		t.Error("expected an error")
	}
	if _, err := dev.ReadPort(PortA, address); err == nil {
		t.Error("expected an error")
	}
}

func TestClose(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	dev := New(transport.NewI2C(pb), nil)
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	if s := dev.String(); s == "" {
		t.Error("empty String()")
	}
}
