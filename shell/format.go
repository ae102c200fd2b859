// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/bbnote/probemeister/dap"
	"github.com/bbnote/probemeister/probe"
)

const wordsPerRow = 4

// FormatDump writes words as rows of four, each row prefixed with the
// address of its first word. Addresses wrap around at 32 bits.
func FormatDump(w io.Writer, base uint32, words []uint32) {
	var row strings.Builder

	for i, word := range words {
		if i%wordsPerRow == 0 {
			row.Reset()
			fmt.Fprintf(&row, "0x%08x:", base+4*uint32(i))
		}

		fmt.Fprintf(&row, " %08x", word)

		if i%wordsPerRow == wordsPerRow-1 || i == len(words)-1 {
			fmt.Fprintln(w, row.String())
		}
	}
}

// FormatProbeList writes one line per enumerated probe under a heading.
func FormatProbeList(w io.Writer, probes []probe.Descriptor) {
	fmt.Fprintln(w, "The following debug probes were found:")

	for i, p := range probes {
		fmt.Fprintf(w, "[%d]: PID = 0x%04x, version = %s\n", i, p.ProductID, p.VersionName)
	}
}

// FormatVersion writes the hardware and JTAG firmware version of a probe.
func FormatVersion(w io.Writer, version probe.Version) {
	fmt.Fprintln(w, "Device information:")
	fmt.Fprintf(w, "Hardware Version: %d\n", version.Hardware)
	fmt.Fprintf(w, "JTAG Version: %d\n", version.JTAG)
}

// FormatTargetID writes the decoded fields of the TARGETID register.
func FormatTargetID(w io.Writer, f dap.IDFields) {
	name, _ := dap.DesignerName(f.Designer)

	fmt.Fprintln(w, "Target Identification Register (TARGETID):")
	fmt.Fprintf(w, "\tRevision = 0x%x, Part Number = 0x%04x, Designer = 0x%03x (%s)\n",
		f.Revision, f.PartNumber, f.Designer, name)
}

// FormatIDCode writes the decoded fields of the IDCODE register.
func FormatIDCode(w io.Writer, f dap.IDFields) {
	name, _ := dap.DesignerName(f.Designer)

	fmt.Fprintln(w, "\nIdentification Code Register (IDCODE):")
	fmt.Fprintf(w, "\tProtocol = %s,\n", f.Protocol())
	fmt.Fprintf(w, "\tPart Number = 0x%04x,\n", f.PartNumber)
	fmt.Fprintf(w, "\tJEDEC Manufacturer ID = %x (%s)\n", f.Designer, name)
}

var disconnectedHelp = []string{
	"\tconnect <n>\t- connect to the debugging probe with index n",
	"\tlist\t\t- list the connected debugging probes",
	"\thelp\t\t- show this help",
	"\texit\t\t- exit",
	"\tquit\t\t- exit",
}

var connectedHelp = []string{
	"\tdisconnect\t- disconnect from the debugging probe",
	"\tdump <loc> [n]\t- dump n words of data at hex address loc from the target",
	"\tinfo\t\t- show information about the connected probe and target",
	"\treset\t\t- reset the target",
	"\thelp\t\t- show this help",
	"\texit\t\t- exit",
	"\tquit\t\t- exit",
}

// FormatHelp lists the commands of the given state only.
func FormatHelp(w io.Writer, state State) {
	lines := disconnectedHelp

	if state == StateConnected {
		lines = connectedHelp
	}

	fmt.Fprintln(w, "The following commands are available:")

	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
