// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import "github.com/google/gousb"

func idExists(slice []gousb.ID, item gousb.ID) bool {
	for _, element := range slice {
		if element == item {
			return true
		}
	}

	return false
}

// versionNameForPid names the ST-Link hardware generation behind a product id.
func versionNameForPid(pid gousb.ID) string {
	switch pid {
	case stLinkV1Pid:
		return "V1"
	case stLinkV2Pid:
		return "V2"
	case stLinkV21Pid, stLinkV21NoMsdPid:
		return "V2-1"
	case stLinkV3UsbLoaderPid:
		return "V3 loader"
	case stLinkV3EPid:
		return "V3E"
	case stLinkV3SPid:
		return "V3S"
	case stLinkV32VcpPid:
		return "V3 2VCP"
	default:
		return "unknown"
	}
}

func usbModeToString(mode byte) string {
	switch mode {
	case deviceModeDFU:
		return "DFU"
	case deviceModeMass:
		return "mass storage"
	case deviceModeDebug:
		return "debug"
	case deviceModeSwim:
		return "swim"
	case deviceModeBootloader:
		return "bootloader"
	default:
		return "unknown"
	}
}
