// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package dap

import (
	"errors"
	"fmt"
)

var ErrUnexpectedIDCode = errors.New("the IDCODE register has not-expected contents")

// IDFields are the sub fields shared by the IDCODE and TARGETID registers.
//
//	revision | part number | designer | reserved
//	4 bit    | 16 bit      | 11 bit   | 1 bit
type IDFields struct {
	Revision   uint8
	PartNumber uint16
	Designer   uint16
	Reserved   uint8
}

// Decode splits a raw identification register value into its fields.
func Decode(value uint32) IDFields {
	return IDFields{
		Revision:   uint8(value >> 28),
		PartNumber: uint16(value >> 12),
		Designer:   uint16((value >> 1) & 0x07FF),
		Reserved:   uint8(value & 0x01),
	}
}

// Encode packs the fields back into a register value. Out of range
// fields are masked to their width.
func (f IDFields) Encode() uint32 {
	return uint32(f.Revision&0x0F)<<28 |
		uint32(f.PartNumber)<<12 |
		uint32(f.Designer&0x07FF)<<1 |
		uint32(f.Reserved&0x01)
}

// Protocol names the debug port flavour announced by an IDCODE.
func (f IDFields) Protocol() string {
	switch f.Revision {
	case RevisionJtagDp:
		return "JTAG-DP"
	case RevisionSwDp:
		return "SW-DP"
	default:
		return "Unknown Protocol"
	}
}

// ValidateIDCode checks that a decoded IDCODE belongs to a supported
// debug port implementation.
func ValidateIDCode(f IDFields) error {
	if f.Reserved != 1 {
		return fmt.Errorf("%w: reserved bit is %d", ErrUnexpectedIDCode, f.Reserved)
	}

	if f.Revision != RevisionSwDp && f.Revision != RevisionJtagDp {
		return fmt.Errorf("%w: unknown protocol revision 0x%x", ErrUnexpectedIDCode, f.Revision)
	}

	if f.PartNumber != PartNumberDp && f.PartNumber != PartNumberDp2 {
		return fmt.Errorf("%w: unknown part number 0x%04x", ErrUnexpectedIDCode, f.PartNumber)
	}

	return nil
}
