// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

// Package gostlink drives ST-Link debug probes over USB and exposes them
// through the probe capability interfaces.
package gostlink

import (
	"fmt"

	"github.com/bbnote/probemeister/probe"
	"github.com/boljen/go-bitmap"
	"github.com/google/gousb"
)

type stLinkVersion struct {
	stlink  int
	jtag    int
	swim    int
	jtagApi stLinkApiVersion
	flags   bitmap.Bitmap // one bit for each supported feature, see flagHas*
}

// StLink is an opened ST-Link probe.
type StLink struct {
	libUsbDevice    *gousb.Device
	libUsbConfig    *gousb.Config
	libUsbInterface *gousb.Interface

	rxEndpoint endpointReader
	txEndpoint endpointWriter

	maxMemPacket uint32
	stMode       StLinkMode
	version      stLinkVersion
	openedAps    bitmap.Bitmap

	vid    gousb.ID
	pid    gousb.ID
	serial string

	initialSpeed      uint32
	connectUnderReset bool
	attached          bool
}

var _ probe.Probe = (*StLink)(nil)

func newStLink(config Config) *StLink {
	return &StLink{
		stMode:            StLinkModeUnknown,
		openedAps:         bitmap.New(debugAccessPortSelectionMaximum + 1),
		maxMemPacket:      1 << 10,
		initialSpeed:      config.InitialSpeed,
		connectUnderReset: config.ConnectUnderReset,
	}
}

// openStLink takes ownership of device; it is closed on every error path.
func openStLink(device *gousb.Device, config Config) (*StLink, error) {
	var err error

	h := newStLink(config)
	h.libUsbDevice = device
	h.pid = device.Desc.Product
	h.vid = device.Desc.Vendor
	h.serial, _ = device.SerialNumber()

	if h.pid == stLinkV1Pid {
		h.closeUsb()
		return nil, fmt.Errorf("%w: ST-Link/V1 mass storage transport", probe.ErrUnsupported)
	}

	if err = device.SetAutoDetach(true); err != nil {
		logger.Debug("could not enable kernel driver auto detach: ", err)
	}

	h.libUsbConfig, err = device.Config(1)
	if err != nil {
		h.closeUsb()
		logger.Debug(err)
		return nil, fmt.Errorf("could not request configuration #1 for st-link debugger: %w", err)
	}

	h.libUsbInterface, err = h.libUsbConfig.Interface(0, 0)
	if err != nil {
		h.closeUsb()
		logger.Debug(err)
		return nil, fmt.Errorf("could not claim interface 0,0 for st-link debugger: %w", err)
	}

	txEndpointNo := usbTxEndpointNoApi2v1

	if h.pid == stLinkV2Pid {
		txEndpointNo = usbTxEndpointNo
	}

	if err = h.openEndpoints(usbRxEndpointNo, txEndpointNo); err != nil {
		h.closeUsb()
		return nil, err
	}

	if err = h.usbParseVersion(); err != nil {
		h.closeUsb()
		return nil, err
	}

	logger.Infof("opened ST-Link %s [%04x:%04x] serial %s", versionNameForPid(h.pid), uint16(h.vid), uint16(h.pid), h.serial)

	return h, nil
}

func (h *StLink) openEndpoints(rxNo int, txNo int) error {
	rx, err := h.libUsbInterface.InEndpoint(rxNo)
	if err != nil {
		return fmt.Errorf("could not open in endpoint %d: %w", rxNo, err)
	}

	tx, err := h.libUsbInterface.OutEndpoint(txNo)
	if err != nil {
		return fmt.Errorf("could not open out endpoint %d: %w", txNo, err)
	}

	h.rxEndpoint = rx
	h.txEndpoint = tx

	return nil
}

// Name returns the display name of the probe, e.g. "ST-Link V2-1".
func (h *StLink) Name() string {
	return "ST-Link " + versionNameForPid(h.pid)
}

// Version queries the firmware version from the probe.
func (h *StLink) Version() (probe.Version, error) {
	if err := h.usbParseVersion(); err != nil {
		return probe.Version{}, err
	}

	return probe.Version{Hardware: h.version.stlink, JTAG: h.version.jtag}, nil
}

// Attach enters the debug mode for the given protocol and prepares access
// port 0 for memory accesses.
func (h *StLink) Attach(protocol probe.Protocol) error {
	switch protocol {
	case probe.ProtocolSwd:
		if h.version.jtagApi == jTagApiV1 {
			return fmt.Errorf("%w: SWD with jtag api v1", probe.ErrUnsupported)
		}
		h.stMode = StLinkModeDebugSwd

	case probe.ProtocolJtag:
		if h.version.jtag == 0 {
			return fmt.Errorf("%w: JTAG transport", probe.ErrUnsupported)
		}
		h.stMode = StLinkModeDebugJtag

	default:
		return fmt.Errorf("%w: protocol %s", probe.ErrUnsupported, protocol)
	}

	if err := h.usbInitMode(h.connectUnderReset, h.initialSpeed); err != nil {
		return err
	}

	if err := h.usbOpenAccessPort(0); err != nil {
		return err
	}

	h.attached = true
	h.maxMemPacket = 1 << 10

	if cpuId, err := h.usbReadMem32(cpuIdBaseRegister, 4); err == nil {
		partNo := (convertToUint32(cpuId, littleEndian) >> 4) & 0xf

		if partNo == 4 || partNo == 3 {
			/* Cortex-M3/M4 has 4096 bytes autoincrement range */
			logger.Debug("set mem packet layout according to Cortex M3/M4")
			h.maxMemPacket = 1 << 12
		}
	}

	logger.Debugf("attached using %s, TAR autoincrement: %d", protocol, h.maxMemPacket)

	return nil
}

// Close leaves the debug mode and releases the USB device.
func (h *StLink) Close() error {
	if h.attached {
		if err := h.usbLeaveMode(h.stMode); err != nil {
			logger.Debug("could not leave debug mode: ", err)
		}
		h.attached = false
	}

	logger.Debugf("close ST-Link device [%04x:%04x]", uint16(h.vid), uint16(h.pid))

	return h.closeUsb()
}

func (h *StLink) closeUsb() error {
	var err error

	if h.libUsbInterface != nil {
		h.libUsbInterface.Close()
		h.libUsbInterface = nil
	}

	if h.libUsbConfig != nil {
		err = h.libUsbConfig.Close()
		h.libUsbConfig = nil
	}

	if h.libUsbDevice != nil {
		if devErr := h.libUsbDevice.Close(); err == nil {
			err = devErr
		}
		h.libUsbDevice = nil
	}

	return err
}

// TargetVoltage measures the target supply voltage.
func (h *StLink) TargetVoltage() (float32, error) {
	var adcResults [2]uint32

	if !h.version.flags.Get(flagHasTargetVolt) {
		return -1.0, fmt.Errorf("%w: voltage measurement", probe.ErrUnsupported)
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdGetTargetVoltage)

	err := h.usbTransferNoErrCheck(ctx, 8)

	if err != nil {
		return -1.0, err
	}

	/* convert result */
	adcResults[0] = ctx.dataBuf.ReadUint32LE()
	adcResults[1] = ctx.dataBuf.ReadUint32LE()

	var targetVoltage float32 = 0.0

	if adcResults[0] > 0 {
		targetVoltage = 2 * (float32(adcResults[1]) * (1.2 / float32(adcResults[0])))
	}

	logger.Debugf("target voltage: %f", targetVoltage)

	return targetVoltage, nil
}
