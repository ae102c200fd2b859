// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"fmt"
	"time"

	"github.com/bbnote/probemeister/probe"
)

// retryDelay is the back-off before the n-th retry of a command answered with WAIT.
var retryDelay = func(retry int) time.Duration {
	return time.Duration(1<<retry) * time.Millisecond
}

/** Issue an STLINK command via USB transfer, with retries on any wait status responses.

  Works for commands where the STLINK_DEBUG status is returned in the first
  byte of the response packet.
*/
func (h *StLink) usbCmdAllowRetry(ctx *transferCtx, size uint32) error {
	var retries int = 0

	for {
		err := h.usbTransferNoErrCheck(ctx, size)
		if err != nil {
			return err
		}

		if size == 0 {
			return nil
		}

		err = h.usbErrorCheck(ctx)

		if isWaitError(err) && retries < maximumWaitRetries {
			delay := retryDelay(retries)

			retries++
			logger.Debugf("cmdAllowRetry ERROR_WAIT, retry %d, delaying %s", retries, delay)
			time.Sleep(delay)

			continue
		}

		return err
	}
}

func (h *StLink) usbAssertSrst(srst byte) error {
	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2DriveNrst)
	ctx.cmdBuf.WriteByte(srst)

	return h.usbCmdAllowRetry(ctx, 2)
}

func (h *StLink) usbResetSys() error {
	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV2ResetSys)

	return h.usbCmdAllowRetry(ctx, 2)
}

// Reset pulses the target NRST line. Probes that cannot drive NRST
// request a system reset through the debug port instead.
func (h *StLink) Reset() error {
	if !h.attached {
		return probe.ErrNotAttached
	}

	err := h.usbAssertSrst(nrstDrivePulse)

	if err == nil {
		logger.Debug("target reset by NRST pulse")
		return nil
	}

	logger.Debug("NRST pulse failed, requesting system reset: ", err)

	if err = h.usbResetSys(); err != nil {
		return fmt.Errorf("could not reset target: %w", err)
	}

	return nil
}
