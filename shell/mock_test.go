// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package shell

import (
	"io"

	"github.com/bbnote/probemeister/probe"
	"github.com/stretchr/testify/mock"
)

// ---------------------------------------------------------------------------
// mockProbe
// ---------------------------------------------------------------------------

type mockProbe struct{ mock.Mock }

func (p *mockProbe) Name() string                         { return p.Called().String(0) }
func (p *mockProbe) Attach(protocol probe.Protocol) error { return p.Called(protocol).Error(0) }
func (p *mockProbe) Version() (probe.Version, error) {
	ret := p.Called()
	return ret.Get(0).(probe.Version), ret.Error(1)
}
func (p *mockProbe) ReadRegister(port uint16, addr uint16) (uint32, error) {
	ret := p.Called(port, addr)
	return ret.Get(0).(uint32), ret.Error(1)
}
func (p *mockProbe) WriteRegister(port uint16, addr uint16, value uint32) error {
	return p.Called(port, addr, value).Error(0)
}
func (p *mockProbe) ReadBlock(addr uint32, count uint32) ([]uint32, error) {
	ret := p.Called(addr, count)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]uint32), ret.Error(1)
}
func (p *mockProbe) Reset() error { return p.Called().Error(0) }
func (p *mockProbe) Close() error { return p.Called().Error(0) }

// ---------------------------------------------------------------------------
// mockEnumerator
// ---------------------------------------------------------------------------

type mockEnumerator struct{ mock.Mock }

func (e *mockEnumerator) Enumerate() ([]probe.Descriptor, error) {
	ret := e.Called()
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]probe.Descriptor), ret.Error(1)
}
func (e *mockEnumerator) Open(index uint8) (probe.Probe, error) {
	ret := e.Called(index)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(probe.Probe), ret.Error(1)
}

// ---------------------------------------------------------------------------
// scriptedReader
// ---------------------------------------------------------------------------

// scriptedReader returns the queued lines in order and io.EOF afterwards.
type scriptedReader struct {
	lines   []string
	prompts []string
	saved   []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}

	line := r.lines[0]
	r.lines = r.lines[1:]

	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func (r *scriptedReader) SaveHistory(content string) error {
	r.saved = append(r.saved, content)
	return nil
}
