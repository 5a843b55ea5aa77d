// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package expander is a container for the MCP23017 I/O expander driver and
// its tooling.
//
// The driver lives in mcp23017, the bus transactions it issues go through
// transport, and cmd/mcp23017 exposes both on the command line.
package expander
