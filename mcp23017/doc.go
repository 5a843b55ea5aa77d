// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017 provides a register level driver for the Microchip
// MCP23017 16-bit I²C I/O expander.
//
// A single Dev drives every MCP23017 on a bus; each operation takes the 7-bit
// device address (0x20-0x27, selected by the A2..A0 strap pins) as its last
// argument.
//
// Pin level access through periph's gpio.PinIO is available via Dev.Chip.
// Interrupt-on-change is not supported.
//
// # Concurrency
//
// A Dev serializes its own operations, so SetPinBit and ClearPinBit are
// atomic with respect to other calls on the same Dev. Anything else talking
// to the same chips must be serialized by the caller.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
package mcp23017
