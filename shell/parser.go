// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ParseInput turns the result of one line read into a command. An interrupt
// or the end of input exits; any other read error is reported and ignored.
func ParseInput(w io.Writer, line string, err error, state State) Command {
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return Exit{}
		}

		fmt.Fprintf(w, "Error: %v\n", err)
		return Continue{}
	}

	return Parse(w, line, state)
}

// Parse interprets line in the vocabulary of state. Lines that cannot be
// interpreted produce a diagnostic on w and Continue.
func Parse(w io.Writer, line string, state State) Command {
	fields := strings.Fields(line)

	if len(fields) == 0 {
		return Continue{}
	}

	keyword, args := fields[0], fields[1:]

	switch keyword {
	case "exit", "quit":
		return Exit{}
	case "help":
		return Help{}
	}

	if state == StateDisconnected {
		switch keyword {
		case "connect":
			return parseConnect(w, args)
		case "list":
			return List{}
		}
	} else {
		switch keyword {
		case "dump":
			return parseDump(w, args)
		case "info":
			return Info{}
		case "reset":
			return Reset{}
		case "disconnect":
			return Disconnect{}
		}
	}

	fmt.Fprintf(w, "Sorry, I don't know what '%s' is, try 'help'?\n", line)

	return Continue{}
}

func parseConnect(w io.Writer, args []string) Command {
	switch {
	case len(args) == 0:
		fmt.Fprintln(w, "Need to supply probe id")
		return Continue{}

	case len(args) > 1:
		fmt.Fprintln(w, "Usage: connect <n>")
		return Continue{}
	}

	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(w, "Invalid probe id '%s'\n", args[0])
		return Continue{}
	}

	return Connect{ID: uint8(id)}
}

func parseDump(w io.Writer, args []string) Command {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(w, "Usage: dump <loc> [n]")
		return Continue{}
	}

	var words uint32 = 1

	if len(args) == 2 {
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(w, "Cannot parse '%s' as number of words, will use 1 instead\n", args[1])
		} else {
			words = uint32(n)
		}
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(args[0], "0x"), "0X")

	address, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		fmt.Fprintf(w, "Cannot parse '%s' as address\n", args[0])
		return Continue{}
	}

	return Dump{Address: uint32(address), Words: words}
}
