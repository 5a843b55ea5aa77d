// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux

package transport

import "errors"

// D2r2 is only available on linux.
type D2r2 struct {
	Transport
}

// NewD2r2 always fails on this platform.
func NewD2r2(bus int) (*D2r2, error) {
	return nil, errors.New("transport: go-i2c requires linux")
}

func (t *D2r2) Close() error {
	return nil
}
