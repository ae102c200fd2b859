// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"testing"

	"github.com/bbnote/probemeister/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBlockSingleChunk(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2)

	ep.queue([]byte{0x01, 0x00, 0x00, 0x00, 0x78, 0x56, 0x34, 0x12}, statusOk())

	words, err := h.ReadBlock(0x20000000, 2)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0x00000001, 0x12345678}, words)

	require.Len(t, ep.writes, 2)
	assert.Equal(t, []byte{cmdDebug, debugReadMem32Bit, 0x00, 0x00, 0x00, 0x20, 0x08, 0x00}, ep.writes[0][:8])
	assert.Equal(t, []byte{cmdDebug, debugApiV2GetLastRWStatus}, ep.writes[1][:2])
}

func TestReadBlockUsesExtendedStatus(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2, flagHasGetLastRwStatus2)

	ep.queue([]byte{0xaa, 0xbb, 0xcc, 0xdd}, append(statusOk(), make([]byte, 10)...))

	words, err := h.ReadBlock(0x08000000, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0xddccbbaa}, words)
	assert.Equal(t, byte(debugApiV2GetLastRWStatus2), ep.writes[1][1])
}

func TestReadBlockSplitsOnAutoIncrementBoundary(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2)

	ep.queue(
		[]byte{1, 0, 0, 0, 2, 0, 0, 0}, statusOk(),
		[]byte{3, 0, 0, 0, 4, 0, 0, 0}, statusOk(),
	)

	words, err := h.ReadBlock(0x3F8, 4)
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 2, 3, 4}, words)

	require.Len(t, ep.writes, 4)
	assert.Equal(t, []byte{0xf8, 0x03, 0x00, 0x00, 0x08, 0x00}, ep.writes[0][2:8])
	assert.Equal(t, []byte{0x00, 0x04, 0x00, 0x00, 0x08, 0x00}, ep.writes[2][2:8])
}

func TestReadBlockRetriesOnWait(t *testing.T) {
	noRetryDelay(t)

	h, ep := newTestStLink(jTagApiV2)

	ep.queue(
		[]byte{0, 0, 0, 0}, []byte{swdAccessPortWait, 0},
		[]byte{0xef, 0xbe, 0xad, 0xde}, statusOk(),
	)

	words, err := h.ReadBlock(0x1000, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0xdeadbeef}, words)
	assert.Len(t, ep.writes, 4)
}

func TestReadBlockRejectsCountsBeyondAddressSpace(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2)

	ep.queue([]byte{0x01, 0x02, 0x03, 0x04}, statusOk())

	assert.NotPanics(t, func() {
		words, err := h.ReadBlock(0x20000000, 0x40000001)
		assert.Error(t, err)
		assert.Nil(t, words)
	})

	assert.NotPanics(t, func() {
		_, err := h.ReadBlock(0xFFFFFFFC, 2)
		assert.Error(t, err)
	})

	assert.NotPanics(t, func() {
		_, err := h.ReadBlock(0, 0x40000000)
		assert.Error(t, err)
	})

	assert.Empty(t, ep.writes)
}

func TestReadBlockLastWordOfAddressSpace(t *testing.T) {
	h, ep := newTestStLink(jTagApiV2)

	ep.queue([]byte{0x78, 0x56, 0x34, 0x12}, statusOk())

	words, err := h.ReadBlock(0xFFFFFFFC, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint32{0x12345678}, words)
}

func TestReadBlockFaults(t *testing.T) {
	t.Run("not attached", func(t *testing.T) {
		h, _ := newTestStLink(jTagApiV2)
		h.attached = false

		_, err := h.ReadBlock(0x1000, 1)
		assert.ErrorIs(t, err, probe.ErrNotAttached)
	})

	t.Run("unaligned", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)

		_, err := h.ReadBlock(0x1002, 1)
		assert.Error(t, err)
		assert.Empty(t, ep.writes)
	})

	t.Run("fault status", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)
		ep.queue([]byte{0, 0, 0, 0}, []byte{swdAccessPortFault, 0})

		_, err := h.ReadBlock(0x1000, 1)
		assert.Error(t, err)
	})

	t.Run("zero words", func(t *testing.T) {
		h, ep := newTestStLink(jTagApiV2)

		words, err := h.ReadBlock(0x1000, 0)
		require.NoError(t, err)
		assert.Empty(t, words)
		assert.Empty(t, ep.writes)
	})
}

func TestMaxBlockSize(t *testing.T) {
	h, _ := newTestStLink(jTagApiV2)

	assert.Equal(t, uint32(1024), h.maxBlockSize(0x20000000))
	assert.Equal(t, uint32(8), h.maxBlockSize(0x200003F8))

	h.maxMemPacket = 1 << 12
	assert.Equal(t, uint32(4096-0x3F8), h.maxBlockSize(0x200003F8))
}

func TestUsbReadMem32Alignment(t *testing.T) {
	h, _ := newTestStLink(jTagApiV2)

	_, err := h.usbReadMem32(0x1001, 4)

	var usbErr *UsbError
	require.ErrorAs(t, err, &usbErr)
	assert.Equal(t, ErrorTargetUnalignedAccess, usbErr.UsbErrorCode)
}
