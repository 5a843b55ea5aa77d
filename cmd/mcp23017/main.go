// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// mcp23017 reads and writes the registers of MCP23017 I/O expanders.
//
// Usage:
//
//	mcp23017 [flags] <command> [args]
//
// Commands:
//
//	read REG            read a register, by name (GPIO) or address (0x12)
//	write REG VAL       write a register
//	dir P MASK          set the direction of port P, 1 bits are inputs
//	pol P MASK          set the input polarity of port P
//	pullup P MASK       set the pull-ups of port P
//	get P               read port P
//	put P VAL           write port P
//	bit P N             read pin N of port P
//	set P N             drive pin N of port P high
//	clear P N           drive pin N of port P low
//	reset               restore the power-on register values
//	view                print the state of all pins
//	watch               print the state of all pins until interrupted
//
// REG names refer to port A unless suffixed with B, e.g. GPIOB.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/expander/mcp23017"
	"github.com/GermanBionicSystems/expander/portview"
	"github.com/GermanBionicSystems/expander/transport"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// parseRegister accepts a numeric address or a register name with an optional
// A/B suffix.
func parseRegister(d *mcp23017.Dev, s string) (uint8, error) {
	if v, err := parseUint8(s); err == nil {
		return v, nil
	}
	name := strings.ToUpper(s)
	p := mcp23017.PortA
	if r, err := mcp23017.ParseRegister(name); err == nil {
		return d.Map().Address(r, p)
	}
	if n := len(name); n > 1 {
		if port, err := mcp23017.ParsePort(name[n-1:]); err == nil {
			r, err := mcp23017.ParseRegister(name[:n-1])
			if err != nil {
				return 0, err
			}
			return d.Map().Address(r, port)
		}
	}
	_, err := mcp23017.ParseRegister(name)
	return 0, err
}

func newTransport(driver string, cfg *mcp23017.BusConfig) (transport.Transport, error) {
	switch driver {
	case "periph":
		bus, err := mcp23017.OpenBus(cfg)
		if err != nil {
			return nil, err
		}
		return transport.NewI2C(bus), nil
	case "d2r2":
		n, err := strconv.Atoi(cfg.Bus)
		if err != nil {
			return nil, errors.New("-bus must be a bus number with -driver d2r2")
		}
		t, err := transport.NewD2r2(n)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown driver %q", driver)
}

// deviceFlags validates -addr and -bank before they are narrowed.
func deviceFlags(addr uint, bank int) (uint16, mcp23017.AddressMap, error) {
	if addr < uint(mcp23017.MinAddress) || addr > uint(mcp23017.MaxAddress) {
		return 0, 0, fmt.Errorf("invalid -addr 0x%x, must be 0x%02x-0x%02x", addr, mcp23017.MinAddress, mcp23017.MaxAddress)
	}
	if bank != int(mcp23017.Bank0) && bank != int(mcp23017.Bank1) {
		return 0, 0, fmt.Errorf("invalid -bank %d, must be 0 or 1", bank)
	}
	return uint16(addr), mcp23017.AddressMap(bank), nil
}

type runner struct {
	dev  *mcp23017.Dev
	addr uint16
	log  logrus.FieldLogger
}

func (r *runner) port(args []string, n int) (mcp23017.Port, error) {
	if len(args) != n {
		return 0, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return mcp23017.ParsePort(args[0])
}

func (r *runner) run(cmd string, args []string) error {
	switch cmd {
	case "read":
		if len(args) != 1 {
			return errors.New("usage: read REG")
		}
		reg, err := parseRegister(r.dev, args[0])
		if err != nil {
			return err
		}
		v, err := r.dev.ReadRegister(reg, r.addr)
		if err != nil {
			return err
		}
		fmt.Printf("0x%02x\n", v)
		return nil
	case "write":
		if len(args) != 2 {
			return errors.New("usage: write REG VAL")
		}
		reg, err := parseRegister(r.dev, args[0])
		if err != nil {
			return err
		}
		v, err := parseUint8(args[1])
		if err != nil {
			return err
		}
		return r.dev.WriteRegister(reg, v, r.addr)
	case "dir", "pol", "pullup", "put":
		p, err := r.port(args, 2)
		if err != nil {
			return err
		}
		v, err := parseUint8(args[1])
		if err != nil {
			return err
		}
		switch cmd {
		case "dir":
			return r.dev.SetDirection(p, v, r.addr)
		case "pol":
			return r.dev.SetPolarity(p, v, r.addr)
		case "pullup":
			return r.dev.SetPullUp(p, v, r.addr)
		}
		return r.dev.WritePort(p, v, r.addr)
	case "get":
		p, err := r.port(args, 1)
		if err != nil {
			return err
		}
		v, err := r.dev.ReadPort(p, r.addr)
		if err != nil {
			return err
		}
		fmt.Printf("0x%02x\n", v)
		return nil
	case "bit", "set", "clear":
		p, err := r.port(args, 2)
		if err != nil {
			return err
		}
		n, err := parseUint8(args[1])
		if err != nil {
			return err
		}
		switch cmd {
		case "set":
			return r.dev.SetPinBit(p, n, r.addr)
		case "clear":
			return r.dev.ClearPinBit(p, n, r.addr)
		}
		v, err := r.dev.ReadPinBit(p, n, r.addr)
		if err != nil {
			return err
		}
		if v != 0 {
			fmt.Println(1)
		} else {
			fmt.Println(0)
		}
		return nil
	case "reset":
		return r.dev.Reset(r.addr)
	case "view":
		return r.view(0)
	case "watch":
		return r.view(100 * time.Millisecond)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (r *runner) view(interval time.Duration) error {
	v := portview.New(&portview.Opts{Plain: !isatty.IsTerminal(os.Stdout.Fd())})
	defer v.Halt()
	s, err := portview.Take(r.dev, r.addr)
	if err != nil {
		return err
	}
	if err := v.Render(s); err != nil || interval == 0 {
		return err
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-t.C:
			s, err := portview.Take(r.dev, r.addr)
			if err != nil {
				r.log.WithError(err).Warn("snapshot failed")
				continue
			}
			if err := v.Render(s); err != nil {
				return err
			}
		}
	}
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use, name or number")
	driver := flag.String("driver", "periph", "bus driver: periph or d2r2")
	addr := flag.Uint("addr", uint(mcp23017.MinAddress), "device address, 0x20-0x27")
	bank := flag.Int("bank", 0, "register address map of the chip, 0 or 1")
	var hz physic.Frequency
	flag.Var(&hz, "hz", "I²C bus speed (periph only)")
	verbose := flag.Bool("v", false, "log every bus transaction")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if flag.NArg() == 0 {
		return errors.New("missing command, see -help")
	}
	a, m, err := deviceFlags(*addr, *bank)
	if err != nil {
		return err
	}
	opts := &mcp23017.Opts{Map: m}

	t, err := newTransport(*driver, &mcp23017.BusConfig{Bus: *busName, Frequency: hz})
	if err != nil {
		return err
	}
	if *verbose {
		t = transport.Trace(t, log)
	}
	dev := mcp23017.New(t, opts)
	defer dev.Close()
	log.WithField("dev", dev).Debug("opened")
	return (&runner{dev: dev, addr: a, log: log}).run(flag.Arg(0), flag.Args()[1:])
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp23017: %s.\n", err)
		os.Exit(1)
	}
}
