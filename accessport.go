// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package gostlink

import (
	"errors"
	"fmt"

	"github.com/bbnote/probemeister/probe"
)

// debugPortSelector is the port value addressing the debug port instead of an access port.
const debugPortSelector = 0xFFFF

// DP SELECT register and its DPBANKSEL field
const (
	dpSelectRegister = 0x2
	dpBankSelectMask = 0xF
)

func (h *StLink) usbOpenAccessPort(apsel uint16) error {
	/* nothing to do on old versions */
	if !h.version.flags.Get(flagHasApInit) {
		return nil
	}

	if apsel > debugAccessPortSelectionMaximum {
		return fmt.Errorf("access port %d out of range", apsel)
	}

	if h.openedAps.Get(int(apsel)) {
		return nil
	}

	if err := h.usbInitAccessPort(byte(apsel)); err != nil {
		return err
	}

	logger.Debugf("AP %d enabled", apsel)
	h.openedAps.Set(int(apsel), true)

	return nil
}

func (h *StLink) usbInitAccessPort(apNum byte) error {
	if !h.version.flags.Get(flagHasApInit) {
		return errors.New("could not find access port command")
	}

	logger.Debugf("init ap_num = %d", apNum)

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2InitAccessPort)
	ctx.cmdBuf.WriteByte(apNum)

	if err := h.usbTransferErrCheck(ctx, 2); err != nil {
		return fmt.Errorf("could not init access port %d: %w", apNum, err)
	}

	return nil
}

func (h *StLink) checkDapAccess(port uint16) error {
	if !h.attached {
		return probe.ErrNotAttached
	}

	if !h.version.flags.Get(flagHasDapReg) {
		return fmt.Errorf("%w: DAP register access needs newer firmware", probe.ErrUnsupported)
	}

	if port != debugPortSelector {
		return h.usbOpenAccessPort(port)
	}

	return nil
}

// ReadRegister reads a debug port (port 0xFFFF) or access port register.
func (h *StLink) ReadRegister(port uint16, addr uint16) (uint32, error) {
	if err := h.checkDapAccess(port); err != nil {
		return 0, err
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2ReadDebugAccessPortRegister)
	ctx.cmdBuf.WriteUint16LE(port)
	ctx.cmdBuf.WriteUint16LE(addr)

	var err error

	/* JTAG DP reads report a bogus status on some V2 firmwares */
	if port == debugPortSelector && h.stMode == StLinkModeDebugJtag && h.version.flags.Get(flagQuirkJtagDpRead) {
		err = h.usbTransferNoErrCheck(ctx, 8)
	} else {
		err = h.usbTransferErrCheck(ctx, 8)
	}

	if err != nil {
		return 0, fmt.Errorf("could not read register 0x%x of port 0x%04x: %w", addr, port, err)
	}

	value := convertToUint32(ctx.DataBytes()[4:], littleEndian)

	logger.Tracef("read register port 0x%04x addr 0x%x: 0x%08x", port, addr, value)

	return value, nil
}

// WriteRegister writes a debug port (port 0xFFFF) or access port register.
func (h *StLink) WriteRegister(port uint16, addr uint16, value uint32) error {
	if err := h.checkDapAccess(port); err != nil {
		return err
	}

	/* banked DP registers need V2J32 or V3J2 */
	if port == debugPortSelector && addr == dpSelectRegister && value&dpBankSelectMask != 0 &&
		!h.version.flags.Get(flagHasDpBankSel) {
		return fmt.Errorf("%w: DP bank selection needs newer firmware", probe.ErrUnsupported)
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2WriteDebugAccessPortRegister)
	ctx.cmdBuf.WriteUint16LE(port)
	ctx.cmdBuf.WriteUint16LE(addr)
	ctx.cmdBuf.WriteUint32LE(value)

	if err := h.usbTransferErrCheck(ctx, 2); err != nil {
		return fmt.Errorf("could not write register 0x%x of port 0x%04x: %w", addr, port, err)
	}

	logger.Tracef("wrote register port 0x%04x addr 0x%x: 0x%08x", port, addr, value)

	return nil
}
