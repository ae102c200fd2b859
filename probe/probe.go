// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// Package probe defines the capability a debug session consumes from an
// attached debug probe. Implementations talk to real hardware (see the
// gostlink package); tests substitute fakes.
package probe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no probe exists at the requested index.
	ErrNotFound = errors.New("probe not found")
	// ErrUnsupported is returned for probes or protocols the driver cannot serve.
	ErrUnsupported = errors.New("not supported by probe")
	// ErrNotAttached is returned by target accesses before Attach succeeded.
	ErrNotAttached = errors.New("probe is not attached to a target")
)

// Protocol is the wire protocol used between probe and target.
type Protocol uint8

const (
	ProtocolSwd Protocol = iota
	ProtocolJtag
)

func (p Protocol) String() string {
	switch p {
	case ProtocolSwd:
		return "SWD"
	case ProtocolJtag:
		return "JTAG"
	default:
		return fmt.Sprintf("Protocol(%d)", uint8(p))
	}
}

// ParseProtocol accepts "swd" or "jtag" in any letter case.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "swd":
		return ProtocolSwd, nil
	case "jtag":
		return ProtocolJtag, nil
	default:
		return ProtocolSwd, fmt.Errorf("unknown protocol '%s'", s)
	}
}

// Descriptor identifies an enumerated probe.
type Descriptor struct {
	ProductID   uint16
	VersionName string
	Serial      string
}

// Version holds the firmware versions reported by a probe.
type Version struct {
	Hardware int
	JTAG     int
}

// Probe is an opened debug probe. A Probe is owned by exactly one session.
type Probe interface {
	// Name returns a display name used in prompts.
	Name() string
	// Attach connects to the target using the given wire protocol.
	Attach(protocol Protocol) error
	Version() (Version, error)
	ReadRegister(port uint16, addr uint16) (uint32, error)
	WriteRegister(port uint16, addr uint16, value uint32) error
	// ReadBlock reads count consecutive 32-bit words starting at addr.
	ReadBlock(addr uint32, count uint32) ([]uint32, error)
	Reset() error
	// Close releases the probe. The Probe must not be used afterwards.
	Close() error
}

// Enumerator lists attached probes and opens one of them by index.
type Enumerator interface {
	Enumerate() ([]Descriptor, error)
	Open(index uint8) (Probe, error)
}
