// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package dap

import "fmt"

// designers maps 11 bit JEP106 designer codes (continuation count in the
// upper four bits, identity in the lower seven) to names.
var designers = map[uint16]string{
	0x015: "NXP Semiconductors",
	0x017: "Texas Instruments",
	0x01F: "Atmel",
	0x020: "STMicroelectronics",
	0x144: "Nordic Semiconductor",
	0x23B: "ARM Ltd",
	0x493: "Raspberry Pi",
}

// DesignerName returns the manufacturer for a JEP106 designer code.
func DesignerName(code uint16) (string, bool) {
	name, ok := designers[code&0x07FF]
	if !ok {
		return fmt.Sprintf("Unknown (0x%03x)", code), false
	}

	return name, true
}
