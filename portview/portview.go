// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package portview renders the pin state of an MCP23017 on a terminal using
// ANSI color codes, one colored block per pin.
package portview

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/expander/mcp23017"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Snapshot is the state of the 16 pins of one chip.
type Snapshot struct {
	Addr   uint16
	Dir    [2]uint8 // IODIR, 1 is input
	Level  [2]uint8 // GPIO
	PullUp [2]uint8 // GPPU
}

// Take reads a Snapshot of the chip at addr.
func Take(d *mcp23017.Dev, addr uint16) (Snapshot, error) {
	s := Snapshot{Addr: addr}
	for _, p := range []mcp23017.Port{mcp23017.PortA, mcp23017.PortB} {
		var err error
		if s.Dir[p], err = d.Read(mcp23017.IODIR, p, addr); err != nil {
			return s, err
		}
		if s.PullUp[p], err = d.Read(mcp23017.GPPU, p, addr); err != nil {
			return s, err
		}
		if s.Level[p], err = d.ReadPort(p, addr); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Opts represents the options available for a View.
type Opts struct {
	Palette *ansi256.Palette
	// Plain disables colors; each pin is printed as one of "i", "I", "o", "O"
	// (lower case low, upper case high) or "p"/"P" for inputs with pull-up.
	Plain bool

	_ struct{}
}

// Colors used for the pins.
var (
	OutputHigh = color.NRGBA{0xFF, 0x40, 0x00, 0xFF}
	OutputLow  = color.NRGBA{0x40, 0x10, 0x00, 0xFF}
	InputHigh  = color.NRGBA{0x00, 0xFF, 0x40, 0xFF}
	InputLow   = color.NRGBA{0x00, 0x40, 0x10, 0xFF}
)

// View writes Snapshots to a terminal.
type View struct {
	w       io.Writer
	palette ansi256.Palette
	plain   bool

	buf bytes.Buffer
}

// New returns a View that displays on stdout.
func New(opts *Opts) *View {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a View writing to w.
func NewWriter(w io.Writer, opts *Opts) *View {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &View{w: w, palette: *p, plain: opts.Plain}
}

func (v *View) String() string {
	return "PortView"
}

// Render redraws the current line with s. Port A pins 0 to 7 come first,
// followed by port B.
func (v *View) Render(s Snapshot) error {
	// This code is designed to minimize the amount of memory allocated per call.
	v.buf.Reset()
	if v.plain {
		_, _ = fmt.Fprintf(&v.buf, "\r0x%02x ", s.Addr)
	} else {
		_, _ = fmt.Fprintf(&v.buf, "\r\033[0m0x%02x ", s.Addr)
	}
	for p := 0; p < 2; p++ {
		for pin := uint(0); pin < 8; pin++ {
			in := s.Dir[p]>>pin&1 != 0
			high := s.Level[p]>>pin&1 != 0
			pull := s.PullUp[p]>>pin&1 != 0
			if v.plain {
				_ = v.buf.WriteByte(glyph(in, high, pull))
			} else {
				_, _ = io.WriteString(&v.buf, v.palette.Block(pinColor(in, high)))
			}
		}
		if p == 0 {
			_ = v.buf.WriteByte(' ')
		}
	}
	if !v.plain {
		_, _ = v.buf.WriteString("\033[0m ")
	}
	_, err := v.buf.WriteTo(v.w)
	return err
}

// Halt ends the current line and resets the terminal colors.
func (v *View) Halt() error {
	s := "\n"
	if !v.plain {
		s = "\n\033[0m"
	}
	_, err := io.WriteString(v.w, s)
	return err
}

func pinColor(in, high bool) color.NRGBA {
	switch {
	case in && high:
		return InputHigh
	case in:
		return InputLow
	case high:
		return OutputHigh
	}
	return OutputLow
}

func glyph(in, high, pull bool) byte {
	c := byte('o')
	if in {
		c = 'i'
		if pull {
			c = 'p'
		}
	}
	if high {
		c -= 'a' - 'A'
	}
	return c
}

var _ fmt.Stringer = &View{}
