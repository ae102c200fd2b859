// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"errors"
	"fmt"
	"io"

	"github.com/bbnote/probemeister/dap"
	"github.com/bbnote/probemeister/probe"
)

const disconnectedPrompt = "(Not connected) >> "

// Session owns at most one open probe. It is Connected while it holds one.
type Session struct {
	enumerator probe.Enumerator
	protocol   probe.Protocol
	out        io.Writer

	probe probe.Probe
}

func NewSession(enumerator probe.Enumerator, protocol probe.Protocol, out io.Writer) *Session {
	return &Session{
		enumerator: enumerator,
		protocol:   protocol,
		out:        out,
	}
}

func (s *Session) State() State {
	if s.probe != nil {
		return StateConnected
	}

	return StateDisconnected
}

func (s *Session) Prompt() string {
	if s.probe != nil {
		return s.probe.Name() + " >> "
	}

	return disconnectedPrompt
}

// Execute runs cmd and reports whether the shell should exit. Failures are
// reported on the session output and never end the session.
func (s *Session) Execute(cmd Command) bool {
	switch c := cmd.(type) {
	case Exit:
		return true

	case Continue:

	case Help:
		FormatHelp(s.out, s.State())

	case List:
		s.list()

	case Connect:
		s.connect(c.ID)

	case Disconnect:
		s.disconnect()

	case Dump:
		s.dump(c.Address, c.Words)

	case Info:
		s.info()

	case Reset:
		s.reset()

	default:
		logger.Warnf("unhandled command %T", cmd)
	}

	return false
}

// Close releases the connected probe, if any.
func (s *Session) Close() error {
	if s.probe == nil {
		return nil
	}

	err := s.probe.Close()
	s.probe = nil

	return err
}

func (s *Session) list() {
	probes, err := s.enumerator.Enumerate()

	if err != nil {
		s.reportf("Error: could not enumerate probes: %v", err)
		return
	}

	FormatProbeList(s.out, probes)
}

func (s *Session) connect(id uint8) {
	if s.probe != nil {
		s.reportf("Already connected to %s, disconnect first", s.probe.Name())
		return
	}

	p, err := s.enumerator.Open(id)

	if errors.Is(err, probe.ErrNotFound) {
		s.reportf("The probe device with the given id '%d' was not found", id)
		return
	} else if err != nil {
		s.reportf("Error: could not open probe %d: %v", id, err)
		return
	}

	if err = p.Attach(s.protocol); err != nil {
		if closeErr := p.Close(); closeErr != nil {
			logger.Warn("could not close probe after failed attach: ", closeErr)
		}

		s.reportf("Error: could not attach to target using %s: %v", s.protocol, err)
		return
	}

	logger.Infof("connected to %s using %s", p.Name(), s.protocol)

	s.probe = p
}

func (s *Session) disconnect() {
	if s.probe == nil {
		return
	}

	name := s.probe.Name()

	if err := s.Close(); err != nil {
		logger.Warnf("error while closing %s: %v", name, err)
	}

	logger.Infof("disconnected from %s", name)
}

func (s *Session) dump(address uint32, words uint32) {
	if !s.requireProbe() || words == 0 {
		return
	}

	data, err := s.probe.ReadBlock(address, words)

	if err != nil {
		s.reportf("Failed to read block from target: %v", err)
		return
	}

	FormatDump(s.out, address, data)
}

func (s *Session) info() {
	if !s.requireProbe() {
		return
	}

	if err := s.showInfo(); err != nil {
		s.reportf("Error: %v", err)
	}
}

// showInfo prints the probe version and the TARGETID and IDCODE registers,
// stopping at the first failure.
func (s *Session) showInfo() error {
	version, err := s.probe.Version()
	if err != nil {
		return fmt.Errorf("could not get version: %w", err)
	}

	FormatVersion(s.out, version)

	// TARGETID lives in bank 2 of the debug port
	if err = s.probe.WriteRegister(dap.DebugPort, dap.RegSelect, dap.BankTargetID); err != nil {
		return fmt.Errorf("could not select TARGETID bank: %w", err)
	}

	value, err := s.probe.ReadRegister(dap.DebugPort, dap.RegTargetID)
	if err != nil {
		return fmt.Errorf("could not read TARGETID: %w", err)
	}

	FormatTargetID(s.out, dap.Decode(value))

	value, err = s.probe.ReadRegister(dap.DebugPort, dap.RegIDCode)
	if err != nil {
		return fmt.Errorf("could not read IDCODE: %w", err)
	}

	idCode := dap.Decode(value)

	FormatIDCode(s.out, idCode)

	return dap.ValidateIDCode(idCode)
}

func (s *Session) reset() {
	if !s.requireProbe() {
		return
	}

	if err := s.probe.Reset(); err != nil {
		s.reportf("Error: could not reset target: %v", err)
	}
}

func (s *Session) requireProbe() bool {
	if s.probe == nil {
		s.reportf("Not connected to a probe, try 'connect <n>'")
		return false
	}

	return true
}

func (s *Session) reportf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}
