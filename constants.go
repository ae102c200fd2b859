// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package gostlink

type StLinkMode uint8 // stlink debug modes

const (
	StLinkModeUnknown StLinkMode = iota
	StLinkModeDfu
	StLinkModeMass
	StLinkModeDebugJtag
	StLinkModeDebugSwd
	StLinkModeDebugSwim
)

// StLink property flags, bit positions inside the version flag bitmap
const (
	flagHasTrace = iota
	flagHasSwdSetFreq
	flagHasJtagSetFreq
	flagHasGetLastRwStatus2
	flagHasDapReg
	flagQuirkJtagDpRead
	flagHasApInit
	flagHasDpBankSel

	flagCount
)

// target voltage is measured by the same firmware revision that brought trace
const flagHasTargetVolt = flagHasTrace

type stLinkApiVersion uint8 // api versions of stlinks

const (
	jTagApiV1 stLinkApiVersion = 1
	jTagApiV2 stLinkApiVersion = 2
	jTagApiV3 stLinkApiVersion = 3
)

// usb endpoint numbers, direction is implied by the gousb endpoint type
const (
	usbRxEndpointNo = 1

	usbTxEndpointNo       = 2
	usbTxEndpointNoApi2v1 = 1
)

// stlink internal device mode numbers
const (
	deviceModeDFU        = 0x00
	deviceModeMass       = 0x01
	deviceModeDebug      = 0x02
	deviceModeSwim       = 0x03
	deviceModeBootloader = 0x04
)

const (
	debugErrorOk                 = 0x80
	debugErrorFault              = 0x81
	jTagGetIdCodeError           = 0x09
	jTagWriteError               = 0x0c
	jTagWriteVerifyError         = 0x0d
	swdAccessPortWait            = 0x10
	swdAccessPortFault           = 0x11
	swdAccessPortError           = 0x12
	swdAccessPortParityError     = 0x13
	swdDebugPortWait             = 0x14
	swdDebugPortFault            = 0x15
	swdDebugPortError            = 0x16
	swdDebugPortParityError      = 0x17
	swdAccessPortWDataError      = 0x18
	swdAccessPortStickyError     = 0x19
	swdAccessPortStickOrRunError = 0x1a
	badAccessPortError           = 0x1d
)

const (
	stLinkVid = 0x0483

	stLinkV1Pid          = 0x3744
	stLinkV2Pid          = 0x3748
	stLinkV21Pid         = 0x374B
	stLinkV21NoMsdPid    = 0x3752
	stLinkV3UsbLoaderPid = 0x374D
	stLinkV3EPid         = 0x374E
	stLinkV3SPid         = 0x374F
	stLinkV32VcpPid      = 0x3753
)

const (
	cmdGetVersion       = 0xF1
	cmdDebug            = 0xF2
	cmdDfu              = 0xF3
	cmdSwim             = 0xF4
	cmdGetCurrentMode   = 0xF5
	cmdGetTargetVoltage = 0xF7
)

const (
	debugReadMem32Bit = 0x07

	debugEnterSwdNoReset  = 0xa3
	debugEnterJTagNoReset = 0xa4
	debugApiV1Enter       = 0x20
	debugExit             = 0x21
	debugApiV2Enter       = 0x30
	debugApiV2ResetSys    = 0x32

	debugApiV2GetLastRWStatus              = 0x3B
	debugApiV2DriveNrst                    = 0x3C
	debugApiV2GetLastRWStatus2             = 0x3E
	debugApiV2SwdSetFreq                   = 0x43
	debugApiV2JTagSetFreq                  = 0x44
	debugApiV2ReadDebugAccessPortRegister  = 0x45
	debugApiV2WriteDebugAccessPortRegister = 0x46
	debugApiV2InitAccessPort               = 0x4B

	debugApiV3SetComFreq   = 0x61
	debugApiV3GetComFreq   = 0x62
	debugApiV3GetVersionEx = 0xFB
)

// arguments of debugApiV2DriveNrst
const (
	nrstDriveLow   = 0x00
	nrstDriveHigh  = 0x01
	nrstDrivePulse = 0x02
)

const (
	dfuExit = 0x07
)

const (
	swimExit = 0x01
)

const (
	maximumWaitRetries              = 8
	debugAccessPortSelectionMaximum = 255

	cpuIdBaseRegister = 0xE000ED00

	dataBufferSize = 4096
	cmdSizeV2      = 16

	v3MaxFreqNb = 10

	minimumTargetVoltage = 1.5
)
