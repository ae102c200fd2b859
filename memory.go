// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package gostlink

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/bbnote/probemeister/probe"
)

func (h *StLink) usbReadMem32(addr uint32, len uint16) ([]byte, error) {
	/* data must be a multiple of 4 and word aligned */
	if ((len % 4) > 0) || ((addr % 4) > 0) {
		return nil, newUsbError("invalid data alignment", ErrorTargetUnalignedAccess)
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugReadMem32Bit)
	ctx.cmdBuf.WriteUint32LE(addr)
	ctx.cmdBuf.WriteUint16LE(len)

	if err := h.usbTransferNoErrCheck(ctx, uint32(len)); err != nil {
		return nil, err
	}

	buffer := make([]byte, len)
	copy(buffer, ctx.DataBytes())

	if err := h.usbGetReadWriteStatus(); err != nil {
		return nil, err
	}

	return buffer, nil
}

// maxBlockSize is the number of bytes readable from address before the TAR
// auto increment wraps.
func (h *StLink) maxBlockSize(address uint32) uint32 {
	maxTarBlock := h.maxMemPacket - (address & (h.maxMemPacket - 1))

	if maxTarBlock == 0 {
		maxTarBlock = 4
	}

	return maxTarBlock
}

// ReadBlock reads count 32-bit words starting at the word aligned address.
func (h *StLink) ReadBlock(addr uint32, count uint32) ([]uint32, error) {
	if !h.attached {
		return nil, probe.ErrNotAttached
	}

	if addr%4 != 0 {
		return nil, fmt.Errorf("address 0x%08x is not word aligned", addr)
	}

	if count > math.MaxUint32/4 || count > (math.MaxUint32-addr)/4+1 {
		return nil, fmt.Errorf("%d words at 0x%08x run past the end of the address space", count, addr)
	}

	remaining := count * 4
	data := make([]byte, 0, remaining)
	retries := 0

	for remaining > 0 {
		bytesToRead := h.maxBlockSize(addr)

		if bytesToRead > remaining {
			bytesToRead = remaining
		}

		if bytesToRead > dataBufferSize {
			bytesToRead = dataBufferSize
		}

		chunk, err := h.usbReadMem32(addr, uint16(bytesToRead))

		if isWaitError(err) && retries < maximumWaitRetries {
			delay := retryDelay(retries)

			retries++
			logger.Debugf("memory read at 0x%08x answered with wait, retry %d", addr, retries)
			time.Sleep(delay)

			continue
		}

		if err != nil {
			return nil, fmt.Errorf("could not read %d bytes at 0x%08x: %w", bytesToRead, addr, err)
		}

		data = append(data, chunk...)

		addr += bytesToRead
		remaining -= bytesToRead
		retries = 0
	}

	words := make([]uint32, count)

	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}

	return words, nil
}
