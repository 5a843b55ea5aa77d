// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type tracer struct {
	t    Transport
	log  logrus.FieldLogger
	addr uint16
	w    []byte
}

// Trace returns a Transport that logs every completed transaction to log at
// debug level before handing it to t.
func Trace(t Transport, log logrus.FieldLogger) Transport {
	return &tracer{t: t, log: log}
}

func (tr *tracer) BeginTransaction(addr uint16) {
	tr.addr = addr
	tr.w = tr.w[:0]
	tr.t.BeginTransaction(addr)
}

func (tr *tracer) WriteByte(b byte) error {
	tr.w = append(tr.w, b)
	return tr.t.WriteByte(b)
}

func (tr *tracer) EndTransaction() error {
	err := tr.t.EndTransaction()
	entry := tr.log.WithFields(logrus.Fields{
		"addr": fmt.Sprintf("0x%02x", tr.addr),
		"w":    fmt.Sprintf("% x", tr.w),
	})
	if err != nil {
		entry.WithError(err).Warn("i2c write failed")
	} else {
		entry.Debug("i2c write")
	}
	return err
}

func (tr *tracer) RequestBytes(addr uint16, count int) ([]byte, error) {
	r, err := tr.t.RequestBytes(addr, count)
	entry := tr.log.WithFields(logrus.Fields{
		"addr":  fmt.Sprintf("0x%02x", addr),
		"count": count,
		"r":     fmt.Sprintf("% x", r),
	})
	if err != nil {
		entry.WithError(err).Warn("i2c read failed")
	} else {
		entry.Debug("i2c read")
	}
	return r, err
}

func (tr *tracer) String() string {
	if s, ok := tr.t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", tr.t)
}

func (tr *tracer) Close() error {
	if c, ok := tr.t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
