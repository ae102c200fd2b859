// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"fmt"
	"strings"

	"github.com/boljen/go-bitmap"
	"github.com/google/gousb"
)

// firmwareFeature enables flag on probes of the given hardware generation
// whose JTAG firmware revision lies in [minJtag, maxJtag). A maxJtag of
// zero leaves the range open.
type firmwareFeature struct {
	stlink  int
	minJtag int
	maxJtag int
	flag    int
}

var firmwareFeatures = []firmwareFeature{
	{stlink: 2, minJtag: 13, flag: flagHasTrace},
	{stlink: 2, minJtag: 15, flag: flagHasGetLastRwStatus2},
	{stlink: 2, minJtag: 22, flag: flagHasSwdSetFreq},
	{stlink: 2, minJtag: 24, flag: flagHasJtagSetFreq},
	{stlink: 2, minJtag: 24, flag: flagHasDapReg},
	{stlink: 2, minJtag: 24, maxJtag: 32, flag: flagQuirkJtagDpRead},
	{stlink: 2, minJtag: 28, flag: flagHasApInit},
	{stlink: 2, minJtag: 32, flag: flagHasDpBankSel},

	// V3 sets its clock through the com frequency commands instead of
	// the SWD/JTAG frequency ones
	{stlink: 3, flag: flagHasTrace},
	{stlink: 3, flag: flagHasGetLastRwStatus2},
	{stlink: 3, flag: flagHasDapReg},
	{stlink: 3, flag: flagHasApInit},
	{stlink: 3, minJtag: 2, flag: flagHasDpBankSel},
}

func (f firmwareFeature) matches(stlink int, jtag int) bool {
	if f.stlink != stlink || jtag < f.minJtag {
		return false
	}

	return f.maxJtag == 0 || jtag < f.maxJtag
}

func featureFlags(stlink int, jtag int) bitmap.Bitmap {
	flags := bitmap.New(flagCount)

	for _, feature := range firmwareFeatures {
		if feature.matches(stlink, jtag) {
			flags.Set(feature.flag, true)
		}
	}

	return flags
}

func jtagApiFor(stlink int, jtag int) stLinkApiVersion {
	switch {
	case stlink == 3:
		return jTagApiV3
	case stlink == 2, stlink == 1 && jtag >= 11:
		return jTagApiV2
	default:
		return jTagApiV1
	}
}

// firmwareVersion holds the fields reported by GET_VERSION(_EX).
type firmwareVersion struct {
	stlink byte
	jtag   byte
	swim   byte
	msd    byte
	bridge byte
}

// decodeVersionWord splits the packed 16 bit GET_VERSION answer. On V2-1
// probes the second and third field carry either jtag/msd or msd/swim
// depending on the firmware line.
func decodeVersionWord(word uint16, pid gousb.ID) firmwareVersion {
	fw := firmwareVersion{stlink: byte((word >> 12) & 0x0f)}

	x := byte((word >> 6) & 0x3f)
	y := byte(word & 0x3f)

	switch {
	case pid != stLinkV21Pid && pid != stLinkV21NoMsdPid:
		fw.jtag, fw.swim = x, y
	case (x <= 22 && y == 7) || (x >= 25 && y >= 7 && y <= 12):
		fw.msd, fw.swim = x, y
	default:
		fw.jtag, fw.msd = x, y
	}

	return fw
}

func (fw firmwareVersion) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "V%d", fw.stlink)

	if fw.jtag > 0 || fw.msd > 0 {
		fmt.Fprintf(&sb, "J%d", fw.jtag)
	}

	if fw.msd > 0 {
		fmt.Fprintf(&sb, "M%d", fw.msd)
	}

	if fw.bridge > 0 {
		fmt.Fprintf(&sb, "B%d", fw.bridge)
	}

	return sb.String()
}

func (h *StLink) usbReadVersionEx() (firmwareVersion, error) {
	ctx := h.initTransfer()
	ctx.cmdBuf.WriteByte(debugApiV3GetVersionEx)

	if err := h.usbTransferNoErrCheck(ctx, 12); err != nil {
		return firmwareVersion{}, fmt.Errorf("could not read extended version: %w", err)
	}

	data := ctx.DataBytes()

	h.vid = gousb.ID(convertToUint16(data[8:], littleEndian))
	h.pid = gousb.ID(convertToUint16(data[10:], littleEndian))

	return firmwareVersion{stlink: data[0], swim: data[1], jtag: data[2], msd: data[3], bridge: data[4]}, nil
}

func (h *StLink) usbParseVersion() error {
	ctx := h.initTransfer()
	ctx.cmdBuf.WriteByte(cmdGetVersion)

	if err := h.usbTransferNoErrCheck(ctx, 6); err != nil {
		return fmt.Errorf("could not read version: %w", err)
	}

	word := ctx.dataBuf.ReadUint16BE()

	h.vid = gousb.ID(ctx.dataBuf.ReadUint16LE())
	h.pid = gousb.ID(ctx.dataBuf.ReadUint16LE())

	fw := decodeVersionWord(word, h.pid)

	// V3 answers GET_VERSION with zeroed fields
	if fw.stlink == 3 && fw.jtag == 0 && fw.swim == 0 && fw.msd == 0 {
		var err error

		if fw, err = h.usbReadVersionEx(); err != nil {
			return err
		}
	}

	h.version.stlink = int(fw.stlink)
	h.version.jtag = int(fw.jtag)
	h.version.swim = int(fw.swim)
	h.version.jtagApi = jtagApiFor(h.version.stlink, h.version.jtag)
	h.version.flags = featureFlags(h.version.stlink, h.version.jtag)

	logger.Debugf("parsed st-link version [%s] for [%s]", fw, h.serial)

	return nil
}
