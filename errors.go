// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"errors"
	"fmt"
)

type UsbErrorCode int

const (
	ErrorOK                    UsbErrorCode = 0
	ErrorWait                  UsbErrorCode = -1
	ErrorFail                  UsbErrorCode = -2
	ErrorTargetUnalignedAccess UsbErrorCode = -3
	ErrorCommandNotFound       UsbErrorCode = -4
)

// UsbError is a status reported by the ST-Link in response to a command.
type UsbError struct {
	errorString  string
	UsbErrorCode UsbErrorCode
}

func (e *UsbError) Error() string {
	return e.errorString
}

func newUsbError(msg string, code UsbErrorCode) error {
	return &UsbError{msg, code}
}

/**
  Converts an STLINK status code held in the first byte of a response
  to an gostlink library error.
*/
func (h *StLink) usbErrorCheck(ctx *transferCtx) error {
	data := ctx.DataBytes()

	if len(data) == 0 {
		return newUsbError("empty STLINK status response", ErrorFail)
	}

	switch data[0] {
	case debugErrorOk:
		return nil

	case debugErrorFault:
		return newUsbError(fmt.Sprintf("SWD fault response (0x%x)", debugErrorFault), ErrorFail)

	case swdAccessPortWait:
		return newUsbError(fmt.Sprintf("wait status SWD_AP_WAIT (0x%x)", swdAccessPortWait), ErrorWait)

	case swdDebugPortWait:
		return newUsbError(fmt.Sprintf("wait status SWD_DP_WAIT (0x%x)", swdDebugPortWait), ErrorWait)

	case jTagGetIdCodeError:
		return newUsbError("STLINK_JTAG_GET_IDCODE_ERROR", ErrorFail)

	case jTagWriteError:
		return newUsbError("Write error", ErrorFail)

	case jTagWriteVerifyError:
		logger.Debug("write verify error, ignoring")
		return nil

	case swdAccessPortFault:
		return newUsbError("STLINK_SWD_AP_FAULT", ErrorFail)

	case swdAccessPortError:
		return newUsbError("STLINK_SWD_AP_ERROR", ErrorFail)

	case swdAccessPortParityError:
		return newUsbError("STLINK_SWD_AP_PARITY_ERROR", ErrorFail)

	case swdDebugPortFault:
		return newUsbError("STLINK_SWD_DP_FAULT", ErrorFail)

	case swdDebugPortError:
		return newUsbError("STLINK_SWD_DP_ERROR", ErrorFail)

	case swdDebugPortParityError:
		return newUsbError("STLINK_SWD_DP_PARITY_ERROR", ErrorFail)

	case swdAccessPortWDataError:
		return newUsbError("STLINK_SWD_AP_WDATA_ERROR", ErrorFail)

	case swdAccessPortStickyError:
		return newUsbError("STLINK_SWD_AP_STICKY_ERROR", ErrorFail)

	case swdAccessPortStickOrRunError:
		return newUsbError("STLINK_SWD_AP_STICKYORUN_ERROR", ErrorFail)

	case badAccessPortError:
		return newUsbError("STLINK_BAD_AP_ERROR", ErrorFail)

	default:
		return newUsbError(fmt.Sprintf("unknown/unexpected STLINK status code 0x%x", data[0]), ErrorFail)
	}
}

func isWaitError(err error) bool {
	var usbErr *UsbError

	return errors.As(err, &usbErr) && usbErr.UsbErrorCode == ErrorWait
}
