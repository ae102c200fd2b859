// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package dap decodes the identification registers of an ARM debug port.
package dap

// DebugPort addresses the debug port itself rather than an access port.
const DebugPort = 0xFFFF

// debug port register addresses as understood by the probe
const (
	RegIDCode   = 0x0
	RegSelect   = 0x2
	RegTargetID = 0x4
)

// BankTargetID is written to RegSelect before TARGETID can be read.
const BankTargetID = 0x2

// debug port flavours encoded in the IDCODE revision field
const (
	RevisionSwDp   = 0x3
	RevisionJtagDp = 0x4
)

// part numbers of supported debug port implementations
const (
	PartNumberDp  = 0xBA00
	PartNumberDp2 = 0xBA02
)
