// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"fmt"
	"sort"

	"github.com/bbnote/probemeister/probe"
	"github.com/google/gousb"
)

var supportedVids = []gousb.ID{stLinkVid}
var supportedPids = []gousb.ID{stLinkV1Pid, stLinkV2Pid, stLinkV21Pid, stLinkV21NoMsdPid,
	stLinkV3UsbLoaderPid, stLinkV3EPid, stLinkV3SPid, stLinkV32VcpPid}

// endpointWriter and endpointReader are satisfied by gousb bulk endpoints.
type endpointWriter interface {
	Write(buf []byte) (int, error)
}

type endpointReader interface {
	Read(buf []byte) (int, error)
}

// Config holds the interface parameters applied when a probe is attached.
type Config struct {
	InitialSpeed      uint32 // kHz
	ConnectUnderReset bool
}

// Context owns the libusb context all ST-Links are enumerated and opened
// through. It implements probe.Enumerator.
type Context struct {
	usb    *gousb.Context
	config Config
}

var _ probe.Enumerator = (*Context)(nil)

func NewContext(config Config) *Context {
	usbCtx := gousb.NewContext()

	logger.Debug("initialized libusb...")

	return &Context{usb: usbCtx, config: config}
}

func (c *Context) Close() error {
	return c.usb.Close()
}

// Enumerate lists connected ST-Links ordered by bus and address. The
// position in the returned slice is the index accepted by Open.
func (c *Context) Enumerate() ([]probe.Descriptor, error) {
	devices, err := c.findDevices()

	if err != nil {
		return nil, err
	}

	defer closeDevices(devices)

	descriptors := make([]probe.Descriptor, 0, len(devices))

	for _, dev := range devices {
		serialNo, _ := dev.SerialNumber()

		descriptors = append(descriptors, probe.Descriptor{
			ProductID:   uint16(dev.Desc.Product),
			VersionName: versionNameForPid(dev.Desc.Product),
			Serial:      serialNo,
		})
	}

	return descriptors, nil
}

// Open opens the ST-Link at the given enumeration index.
func (c *Context) Open(index uint8) (probe.Probe, error) {
	devices, err := c.findDevices()

	if err != nil {
		return nil, err
	}

	if int(index) >= len(devices) {
		closeDevices(devices)
		return nil, fmt.Errorf("%w: no ST-Link at index %d", probe.ErrNotFound, index)
	}

	device := devices[index]

	for i, dev := range devices {
		if i != int(index) {
			dev.Close()
		}
	}

	stLink, err := openStLink(device, c.config)

	if err != nil {
		return nil, err
	}

	return stLink, nil
}

func (c *Context) findDevices() ([]*gousb.Device, error) {
	devices, err := c.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if idExists(supportedVids, desc.Vendor) && idExists(supportedPids, desc.Product) {
			logger.Debugf("found USB device [%04x:%04x] on bus %03d:%03d", uint16(desc.Vendor), uint16(desc.Product), desc.Bus, desc.Address)

			return true
		} else {
			return false
		}
	})

	if err != nil {
		closeDevices(devices)
		logger.Error("got error during usb device scan: ", err)
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Desc.Bus != devices[j].Desc.Bus {
			return devices[i].Desc.Bus < devices[j].Desc.Bus
		}
		return devices[i].Desc.Address < devices[j].Desc.Address
	})

	logger.Debugf("found %d matching devices based on vendor and product id list", len(devices))

	return devices, nil
}

func closeDevices(devices []*gousb.Device) {
	for _, dev := range devices {
		if dev != nil {
			dev.Close()
		}
	}
}

func usbWrite(endpoint endpointWriter, buffer []byte) (int, error) {
	bytesWritten, err := endpoint.Write(buffer)

	if err != nil {
		return -1, err
	} else {
		logger.Tracef("wrote %d bytes to endpoint", bytesWritten)
		return bytesWritten, nil
	}
}

func usbRead(endpoint endpointReader, buffer []byte) (int, error) {
	bytesRead, err := endpoint.Read(buffer)

	if err != nil {
		return -1, err
	} else {
		logger.Tracef("read %d bytes from in endpoint", bytesRead)
		return bytesRead, nil
	}
}
