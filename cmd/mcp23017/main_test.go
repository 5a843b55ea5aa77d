// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/GermanBionicSystems/expander/mcp23017"
	"github.com/GermanBionicSystems/expander/mcp23017/mcp23017test"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestParseRegister(t *testing.T) {
	bank0 := mcp23017.NewI2C(mcp23017test.New(), nil)
	bank1 := mcp23017.NewI2C(mcp23017test.New(), &mcp23017.Opts{Map: mcp23017.Bank1})
	tests := []struct {
		dev  *mcp23017.Dev
		in   string
		want uint8
	}{
		{bank0, "0x12", 0x12},
		{bank0, "21", 21},
		{bank0, "gpio", 0x12},
		{bank0, "GPIOB", 0x13},
		{bank0, "olatb", 0x15},
		{bank0, "IOCON", 0x0A},
		{bank1, "GPIOB", 0x19},
		{bank1, "IODIRA", 0x00},
	}
	for _, tc := range tests {
		got, err := parseRegister(tc.dev, tc.in)
		if err != nil {
			t.Errorf("parseRegister(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseRegister(%q) = 0x%02x, want 0x%02x", tc.in, got, tc.want)
		}
	}
	for _, in := range []string{"", "FOO", "GPIOC", "0x100"} {
		if _, err := parseRegister(bank0, in); err == nil {
			t.Errorf("parseRegister(%q) should fail", in)
		}
	}
}

func TestRun(t *testing.T) {
	sim := mcp23017test.New(0x21)
	log, _ := test.NewNullLogger()
	r := &runner{dev: mcp23017.NewI2C(sim, nil), addr: 0x21, log: log}

	cmds := [][]string{
		{"dir", "B", "0x0F"},
		{"put", "B", "0x10"},
		{"set", "B", "7"},
		{"clear", "B", "4"},
		{"pullup", "A", "0xFF"},
		{"pol", "A", "0x01"},
		{"write", "DEFVALB", "0x42"},
	}
	for _, c := range cmds {
		if err := r.run(c[0], c[1:]); err != nil {
			t.Fatalf("%v: %v", c, err)
		}
	}
	if got := sim.Register(0x21, mcp23017.OLAT, mcp23017.PortB); got != 0x80 {
		t.Errorf("OLATB = 0x%02x, want 0x80", got)
	}
	if got := sim.Register(0x21, mcp23017.GPPU, mcp23017.PortA); got != 0xFF {
		t.Errorf("GPPUA = 0x%02x", got)
	}
	if got := sim.Register(0x21, mcp23017.IPOL, mcp23017.PortA); got != 0x01 {
		t.Errorf("IPOLA = 0x%02x", got)
	}
	if got := sim.Register(0x21, mcp23017.DEFVAL, mcp23017.PortB); got != 0x42 {
		t.Errorf("DEFVALB = 0x%02x", got)
	}
	for _, c := range [][]string{{"get", "B"}, {"bit", "B", "7"}, {"read", "GPIOB"}, {"reset"}} {
		if err := r.run(c[0], c[1:]); err != nil {
			t.Fatalf("%v: %v", c, err)
		}
	}
	if got := sim.Register(0x21, mcp23017.IODIR, mcp23017.PortB); got != 0xFF {
		t.Errorf("IODIRB after reset = 0x%02x", got)
	}

	bad := [][]string{
		{"frob"},
		{"dir", "C", "0"},
		{"set", "A", "8"},
		{"get"},
		{"write", "GPIO"},
		{"put", "A", "0x100"},
	}
	for _, c := range bad {
		if err := r.run(c[0], c[1:]); err == nil {
			t.Errorf("%v should fail", c)
		}
	}
}

func TestDeviceFlags(t *testing.T) {
	a, m, err := deviceFlags(0x27, 1)
	if err != nil || a != 0x27 || m != mcp23017.Bank1 {
		t.Errorf("deviceFlags(0x27, 1) = 0x%x, %s, %v", a, m, err)
	}
	bad := []struct {
		addr uint
		bank int
	}{
		{0x10020, 0},
		{0x1f, 0},
		{0x28, 0},
		{0x20, 256},
		{0x20, -1},
		{0x20, 2},
	}
	for _, tc := range bad {
		if _, _, err := deviceFlags(tc.addr, tc.bank); err == nil {
			t.Errorf("deviceFlags(0x%x, %d) should fail", tc.addr, tc.bank)
		}
	}
}

func TestNewTransport(t *testing.T) {
	if _, err := newTransport("usb", &mcp23017.BusConfig{}); err == nil {
		t.Error("unknown driver should fail")
	}
	if _, err := newTransport("d2r2", &mcp23017.BusConfig{Bus: "i2c-1"}); err == nil {
		t.Error("non numeric bus should fail with d2r2")
	}
}
