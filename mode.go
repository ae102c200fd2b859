// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"errors"
)

func (h *StLink) usbModeEnter(stMode StLinkMode) error {
	var rxSize uint32 = 0
	/* on api V2 we are able the read the latest command
	 * status
	 */
	if h.version.jtagApi != jTagApiV1 {
		rxSize = 2
	}

	ctx := h.initTransfer()

	switch stMode {
	case StLinkModeDebugJtag:
		ctx.cmdBuf.WriteByte(cmdDebug)

		if h.version.jtagApi == jTagApiV1 {
			ctx.cmdBuf.WriteByte(debugApiV1Enter)
		} else {
			ctx.cmdBuf.WriteByte(debugApiV2Enter)
		}

		ctx.cmdBuf.WriteByte(debugEnterJTagNoReset)

	case StLinkModeDebugSwd:
		ctx.cmdBuf.WriteByte(cmdDebug)

		if h.version.jtagApi == jTagApiV1 {
			ctx.cmdBuf.WriteByte(debugApiV1Enter)
		} else {
			ctx.cmdBuf.WriteByte(debugApiV2Enter)
		}

		ctx.cmdBuf.WriteByte(debugEnterSwdNoReset)

	default:
		return errors.New("cannot enter requested usb mode")
	}

	return h.usbCmdAllowRetry(ctx, rxSize)
}

func (h *StLink) usbCurrentMode() (byte, error) {

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdGetCurrentMode)

	err := h.usbTransferNoErrCheck(ctx, 2)

	if err != nil {
		return 0, err
	} else {
		return ctx.DataBytes()[0], nil
	}
}

func (h *StLink) usbInitMode(connectUnderReset bool, initialInterfaceSpeed uint32) error {

	mode, err := h.usbCurrentMode()

	if err != nil {
		logger.Error("could not get usb mode")
		return err
	}

	logger.Tracef("device usb mode before switching: %s (0x%02x)", usbModeToString(mode), mode)

	var stLinkMode StLinkMode

	switch mode {
	case deviceModeDFU:
		stLinkMode = StLinkModeDfu

	case deviceModeDebug:
		stLinkMode = StLinkModeDebugSwd

	case deviceModeSwim:
		stLinkMode = StLinkModeDebugSwim

	case deviceModeMass:
		stLinkMode = StLinkModeMass

	default:
		stLinkMode = StLinkModeUnknown
	}

	if stLinkMode != StLinkModeUnknown {
		if err = h.usbLeaveMode(stLinkMode); err != nil {
			logger.Warn("error occurred while trying to leave mode: ", err)
		}
	}

	mode, err = h.usbCurrentMode()

	if err != nil {
		logger.Error("could not get usb mode")
		return err
	}

	logger.Tracef("device usb mode after mode exit: %s (0x%02x)", usbModeToString(mode), mode)

	/* we check the target voltage here as an aid to debugging connection problems.
	 * the stlink requires the target Vdd to be connected for reliable debugging.
	 * this cmd is supported in all modes except DFU
	 */
	if mode != deviceModeDFU {
		voltage, err := h.TargetVoltage()

		if err != nil {
			logger.Debug(err)
			// attempt to continue as it is not a catastrophic failure
		} else if voltage < minimumTargetVoltage {
			logger.Warn("target voltage may be too low for reliable debugging")
		}
	}

	stLinkMode = h.stMode

	if stLinkMode != StLinkModeDebugSwd && stLinkMode != StLinkModeDebugJtag {
		return errors.New("selected mode (transport) not supported")
	}

	if initialInterfaceSpeed > 0 {
		if _, err := h.SetSpeed(initialInterfaceSpeed, false); err != nil {
			logger.Warn("could not set interface speed: ", err)
		}
	}

	// preliminary SRST assert:
	//  We want SRST is asserted before activating debug signals (mode_enter).
	//  As the required mode has not been set, the adapter may not know what pin to use.

	if connectUnderReset {
		logger.Trace("assert RST line 1")

		// do not check the return status here, we will
		// proceed and enter the desired mode below
		// and try asserting srst again.
		h.usbAssertSrst(nrstDriveLow)
	}

	logger.Tracef("entering usb mode %d", stLinkMode)
	err = h.usbModeEnter(stLinkMode)

	if err != nil {
		return err
	}

	if connectUnderReset {
		logger.Trace("assert RST line 2")
		err = h.usbAssertSrst(nrstDriveLow)
		if err != nil {
			return err
		}

		logger.Trace("release RST line")
		if err = h.usbAssertSrst(nrstDriveHigh); err != nil {
			return err
		}
	}

	mode, err = h.usbCurrentMode()

	if err != nil {
		return err
	}

	logger.Tracef("device usb mode after mode enter: %s (0x%02x)", usbModeToString(mode), mode)

	return nil
}

func (h *StLink) usbLeaveMode(mode StLinkMode) error {
	ctx := h.initTransfer()

	switch mode {
	case StLinkModeDebugJtag, StLinkModeDebugSwd:
		ctx.cmdBuf.WriteByte(cmdDebug)
		ctx.cmdBuf.WriteByte(debugExit)

	case StLinkModeDebugSwim:
		ctx.cmdBuf.WriteByte(cmdSwim)
		ctx.cmdBuf.WriteByte(swimExit)

	case StLinkModeDfu:
		ctx.cmdBuf.WriteByte(cmdDfu)
		ctx.cmdBuf.WriteByte(dfuExit)

	case StLinkModeMass:
		return errors.New("cannot leave mass storage mode")
	default:
		return errors.New("unknown stlink mode")
	}

	err := h.usbTransferNoErrCheck(ctx, 0)

	return err
}
