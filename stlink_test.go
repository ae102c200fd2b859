// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"errors"
	"testing"
	"time"

	"github.com/bbnote/probemeister/probe"
	"github.com/boljen/go-bitmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoints records every command written to the probe and answers
// reads from a queue of canned responses.
type fakeEndpoints struct {
	writes    [][]byte
	responses [][]byte
}

func (f *fakeEndpoints) Write(buf []byte) (int, error) {
	f.writes = append(f.writes, append([]byte(nil), buf...))
	return len(buf), nil
}

func (f *fakeEndpoints) Read(buf []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}

	response := f.responses[0]
	f.responses = f.responses[1:]

	return copy(buf, response), nil
}

func (f *fakeEndpoints) queue(responses ...[]byte) {
	f.responses = append(f.responses, responses...)
}

func newTestStLink(api stLinkApiVersion, flags ...int) (*StLink, *fakeEndpoints) {
	ep := &fakeEndpoints{}

	h := newStLink(Config{})
	h.rxEndpoint = ep
	h.txEndpoint = ep
	h.version.jtagApi = api
	h.version.flags = bitmap.New(flagCount)

	for _, flag := range flags {
		h.version.flags.Set(flag, true)
	}

	h.stMode = StLinkModeDebugSwd
	h.attached = true

	return h, ep
}

func noRetryDelay(t *testing.T) {
	saved := retryDelay
	retryDelay = func(int) time.Duration { return 0 }
	t.Cleanup(func() { retryDelay = saved })
}

func statusOk() []byte {
	return []byte{debugErrorOk, 0x00}
}

func TestUsbParseVersionV2(t *testing.T) {
	h, ep := newTestStLink(jTagApiV1)

	// V2 J37 S7
	ep.queue([]byte{0x29, 0x47, 0x83, 0x04, 0x48, 0x37})

	require.NoError(t, h.usbParseVersion())

	require.Len(t, ep.writes, 1)
	assert.Len(t, ep.writes[0], cmdSizeV2)
	assert.Equal(t, byte(cmdGetVersion), ep.writes[0][0])

	assert.Equal(t, 2, h.version.stlink)
	assert.Equal(t, 37, h.version.jtag)
	assert.Equal(t, 7, h.version.swim)
	assert.Equal(t, jTagApiV2, h.version.jtagApi)
	assert.EqualValues(t, stLinkV2Pid, h.pid)
	assert.EqualValues(t, stLinkVid, h.vid)

	for _, flag := range []int{flagHasTrace, flagHasGetLastRwStatus2, flagHasSwdSetFreq, flagHasJtagSetFreq,
		flagHasDapReg, flagHasApInit, flagHasDpBankSel} {
		assert.True(t, h.version.flags.Get(flag), "flag %d", flag)
	}

	assert.False(t, h.version.flags.Get(flagQuirkJtagDpRead))
}

func TestUsbParseVersionV21MassStorage(t *testing.T) {
	h, ep := newTestStLink(jTagApiV1)

	// V2-1 firmware line reporting M25 S7 in the jtag/swim fields
	ep.queue([]byte{0x26, 0x47, 0x83, 0x04, 0x4b, 0x37})

	require.NoError(t, h.usbParseVersion())

	assert.Equal(t, 2, h.version.stlink)
	assert.Equal(t, 0, h.version.jtag)
	assert.Equal(t, 7, h.version.swim)
	assert.False(t, h.version.flags.Get(flagHasTrace))
}

func TestFeatureFlags(t *testing.T) {
	tests := []struct {
		name   string
		stlink int
		jtag   int
		set    []int
		unset  []int
	}{
		{"V1", 1, 13, nil, []int{flagHasTrace, flagHasDapReg}},
		{"V2J23", 2, 23, []int{flagHasTrace, flagHasSwdSetFreq}, []int{flagHasDapReg, flagHasJtagSetFreq}},
		{"V2J24", 2, 24, []int{flagHasDapReg, flagHasJtagSetFreq, flagQuirkJtagDpRead}, []int{flagHasApInit}},
		{"V2J31", 2, 31, []int{flagQuirkJtagDpRead, flagHasApInit}, []int{flagHasDpBankSel}},
		{"V2J32", 2, 32, []int{flagHasDpBankSel}, []int{flagQuirkJtagDpRead}},
		{"V3J1", 3, 1, []int{flagHasDapReg, flagHasApInit}, []int{flagHasDpBankSel, flagHasSwdSetFreq}},
		{"V3J2", 3, 2, []int{flagHasDpBankSel}, []int{flagQuirkJtagDpRead, flagHasJtagSetFreq}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags := featureFlags(tc.stlink, tc.jtag)

			for _, flag := range tc.set {
				assert.True(t, flags.Get(flag), "flag %d", flag)
			}

			for _, flag := range tc.unset {
				assert.False(t, flags.Get(flag), "flag %d", flag)
			}
		})
	}
}

func TestJtagApiFor(t *testing.T) {
	assert.Equal(t, jTagApiV1, jtagApiFor(1, 10))
	assert.Equal(t, jTagApiV2, jtagApiFor(1, 11))
	assert.Equal(t, jTagApiV2, jtagApiFor(2, 0))
	assert.Equal(t, jTagApiV3, jtagApiFor(3, 0))
}

func TestFirmwareVersionString(t *testing.T) {
	assert.Equal(t, "V2J37", firmwareVersion{stlink: 2, jtag: 37, swim: 7}.String())
	assert.Equal(t, "V2J0M25", firmwareVersion{stlink: 2, msd: 25, swim: 7}.String())
	assert.Equal(t, "V3J7B3", firmwareVersion{stlink: 3, jtag: 7, bridge: 3}.String())
}

func TestUsbParseVersionOldV2(t *testing.T) {
	h, ep := newTestStLink(jTagApiV1)

	// V2 J14 S0
	ep.queue([]byte{0x23, 0x80, 0x83, 0x04, 0x48, 0x37})

	require.NoError(t, h.usbParseVersion())

	assert.Equal(t, 14, h.version.jtag)
	assert.True(t, h.version.flags.Get(flagHasTrace))
	assert.False(t, h.version.flags.Get(flagHasGetLastRwStatus2))
	assert.False(t, h.version.flags.Get(flagHasDapReg))
}

func TestVersionV3(t *testing.T) {
	h, ep := newTestStLink(jTagApiV1)

	ep.queue(
		[]byte{0x30, 0x00, 0x83, 0x04, 0x4f, 0x37},
		[]byte{3, 0, 7, 0, 0, 0, 0, 0, 0x83, 0x04, 0x4f, 0x37},
	)

	version, err := h.Version()
	require.NoError(t, err)

	assert.Equal(t, probe.Version{Hardware: 3, JTAG: 7}, version)
	assert.Equal(t, jTagApiV3, h.version.jtagApi)
	assert.True(t, h.version.flags.Get(flagHasDpBankSel))
	assert.False(t, h.version.flags.Get(flagHasSwdSetFreq))

	require.Len(t, ep.writes, 2)
	assert.Equal(t, byte(debugApiV3GetVersionEx), ep.writes[1][0])
	assert.Equal(t, "ST-Link V3S", h.Name())
}

func TestReadRegister(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2, flagHasDapReg)

	ep.queue([]byte{debugErrorOk, 0, 0, 0, 0x77, 0x04, 0xa0, 0x3b})

	value, err := h.ReadRegister(0xFFFF, 0x0)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x3BA00477), value)
	require.Len(t, ep.writes, 1)
	assert.Equal(t, []byte{cmdDebug, debugApiV2ReadDebugAccessPortRegister, 0xff, 0xff, 0x00, 0x00}, ep.writes[0][:6])
}

func TestReadRegisterFaults(t *testing.T) {
	t.Run("not attached", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2, flagHasDapReg)
		h.attached = false

		_, err := h.ReadRegister(0xFFFF, 0x4)
		assert.ErrorIs(t, err, probe.ErrNotAttached)
		assert.Empty(t, ep.writes)
	})

	t.Run("old firmware", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)

		_, err := h.ReadRegister(0xFFFF, 0x4)
		assert.ErrorIs(t, err, probe.ErrUnsupported)
		assert.Empty(t, ep.writes)
	})

	t.Run("fault status", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2, flagHasDapReg)
		ep.queue([]byte{swdDebugPortFault, 0, 0, 0, 0, 0, 0, 0})

		_, err := h.ReadRegister(0xFFFF, 0x4)

		var usbErr *UsbError
		require.ErrorAs(t, err, &usbErr)
		assert.Equal(t, ErrorFail, usbErr.UsbErrorCode)
	})
}

func TestReadRegisterOpensAccessPortOnce(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2, flagHasDapReg, flagHasApInit)

	ep.queue(
		statusOk(),
		[]byte{debugErrorOk, 0, 0, 0, 0x11, 0x00, 0x77, 0x24},
		[]byte{debugErrorOk, 0, 0, 0, 0x11, 0x00, 0x77, 0x24},
	)

	for i := 0; i < 2; i++ {
		value, err := h.ReadRegister(0, 0xFC)
		require.NoError(t, err)
		assert.Equal(t, uint32(0x24770011), value)
	}

	require.Len(t, ep.writes, 3)
	assert.Equal(t, []byte{cmdDebug, debugApiV2InitAccessPort, 0x00}, ep.writes[0][:3])
	assert.Equal(t, debugApiV2ReadDebugAccessPortRegister, int(ep.writes[1][1]))
	assert.Equal(t, debugApiV2ReadDebugAccessPortRegister, int(ep.writes[2][1]))
}

func TestWriteRegister(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2, flagHasDapReg, flagHasDpBankSel)

	ep.queue(statusOk())

	require.NoError(t, h.WriteRegister(0xFFFF, 0x2, 0x2))

	require.Len(t, ep.writes, 1)
	assert.Equal(t, []byte{cmdDebug, debugApiV2WriteDebugAccessPortRegister,
		0xff, 0xff, 0x02, 0x00, 0x02, 0x00, 0x00, 0x00}, ep.writes[0][:10])
}

func TestWriteRegisterBankSelectNeedsFirmwareSupport(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2, flagHasDapReg)

	err := h.WriteRegister(0xFFFF, 0x2, 0x2)
	assert.ErrorIs(t, err, probe.ErrUnsupported)
	assert.Empty(t, ep.writes)

	// bank 0 and access port writes are not banked
	ep.queue(statusOk(), statusOk())

	require.NoError(t, h.WriteRegister(0xFFFF, 0x2, 0x0))
	require.NoError(t, h.WriteRegister(0, 0x2, 0x2))
	assert.Len(t, ep.writes, 2)
}

func TestReset(t *testing.T) {
	t.Run("nrst pulse", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)
		ep.queue(statusOk())

		require.NoError(t, h.Reset())
		require.Len(t, ep.writes, 1)
		assert.Equal(t, []byte{cmdDebug, debugApiV2DriveNrst, nrstDrivePulse}, ep.writes[0][:3])
	})

	t.Run("falls back to system reset", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)
		ep.queue([]byte{debugErrorFault, 0}, statusOk())

		require.NoError(t, h.Reset())
		require.Len(t, ep.writes, 2)
		assert.Equal(t, byte(debugApiV2ResetSys), ep.writes[1][1])
	})

	t.Run("both fail", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)
		ep.queue([]byte{debugErrorFault, 0}, []byte{debugErrorFault, 0})

		assert.Error(t, h.Reset())
	})

	t.Run("not attached", func(t *testing.T) {
		h, _ := newTestStLink(jTagApiV2)
		h.attached = false

		assert.ErrorIs(t, h.Reset(), probe.ErrNotAttached)
	})
}

func TestCmdAllowRetry(t *testing.T) {
	noRetryDelay(t)

	h, ep := newTestStLink(jTagApiV2)

	ep.queue([]byte{swdAccessPortWait, 0}, []byte{swdDebugPortWait, 0}, statusOk())

	ctx := h.initTransfer()
	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2ResetSys)

	require.NoError(t, h.usbCmdAllowRetry(ctx, 2))
	assert.Len(t, ep.writes, 3)
}

func TestCmdAllowRetryGivesUp(t *testing.T) {
	noRetryDelay(t)

	h, ep := newTestStLink(jTagApiV2)

	for i := 0; i <= maximumWaitRetries; i++ {
		ep.queue([]byte{swdAccessPortWait, 0})
	}

	ctx := h.initTransfer()
	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2ResetSys)

	err := h.usbCmdAllowRetry(ctx, 2)
	assert.True(t, isWaitError(err))
	assert.Len(t, ep.writes, maximumWaitRetries+1)
}

func TestVersionNameForPid(t *testing.T) {
	assert.Equal(t, "V2", versionNameForPid(stLinkV2Pid))
	assert.Equal(t, "V2-1", versionNameForPid(stLinkV21NoMsdPid))
	assert.Equal(t, "V3E", versionNameForPid(stLinkV3EPid))
	assert.Equal(t, "unknown", versionNameForPid(0x1234))
}
