// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package shell implements the interactive probemeister command shell: the
// command parser, the session state machine, report formatting and the
// read-eval-print loop with its persistent line history.
package shell

// State is the connection state of a Session.
type State uint8

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}

	return "disconnected"
}

// Command is a parsed line of user input. The set of commands is closed;
// only the types in this file implement it.
type Command interface {
	command()
}

// Connect opens and attaches the probe at enumeration index ID.
type Connect struct {
	ID uint8
}

// List prints all connected probes.
type List struct{}

// Help prints the commands available in the current state.
type Help struct{}

// Exit ends the shell.
type Exit struct{}

// Continue does nothing. It is produced by blank lines and by lines that
// were rejected with a diagnostic.
type Continue struct{}

// Dump prints Words 32-bit words of target memory starting at Address.
type Dump struct {
	Address uint32
	Words   uint32
}

// Info prints the probe version and the debug port identification registers.
type Info struct{}

// Reset resets the target.
type Reset struct{}

// Disconnect closes the connected probe.
type Disconnect struct{}

func (Connect) command()    {}
func (List) command()       {}
func (Help) command()       {}
func (Exit) command()       {}
func (Continue) command()   {}
func (Dump) command()       {}
func (Info) command()       {}
func (Reset) command()      {}
func (Disconnect) command() {}
