// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"errors"
	"fmt"

	"github.com/bbnote/probemeister/probe"
)

type speedMap struct {
	speed        uint32 // kHz
	speedDivisor uint16
}

/* SWD clock speed */
var swdKHzToSpeedMap = [...]speedMap{
	{4000, 0},
	{1800, 1}, /* default */
	{1200, 2},
	{950, 3},
	{480, 7},
	{240, 15},
	{125, 31},
	{100, 40},
	{50, 79},
	{25, 158},
	{15, 265},
	{5, 798},
}

/* JTAG clock speed */
var jTAGkHzToSpeedMap = [...]speedMap{
	{9000, 4},
	{4500, 8},
	{2250, 16},
	{1125, 32}, /* default */
	{562, 64},
	{281, 128},
	{140, 256},
}

// SetSpeed selects the fastest supported interface clock not above khz and
// returns it. With query set the probe is left untouched.
func (h *StLink) SetSpeed(khz uint32, query bool) (uint32, error) {
	switch h.stMode {
	case StLinkModeDebugSwd:
		if h.version.jtagApi == jTagApiV3 {
			return h.setSpeedV3(false, khz, query)
		} else {
			return h.setSpeedSwd(khz, query)
		}

	case StLinkModeDebugJtag:
		if h.version.jtagApi == jTagApiV3 {
			return h.setSpeedV3(true, khz, query)
		} else {
			return h.setSpeedJtag(khz, query)
		}

	default:
		return khz, fmt.Errorf("%w: speed setting in mode %d", probe.ErrUnsupported, h.stMode)
	}
}

func (h *StLink) setSpeedSwd(khz uint32, query bool) (uint32, error) {
	/* old firmware cannot change it */
	if !h.version.flags.Get(flagHasSwdSetFreq) {
		return khz, errors.New("cannot change speed on old firmware")
	}

	speedIndex, match := matchSpeedMap(swdKHzToSpeedMap[:], khz)

	if !match {
		logger.Infof("unable to match requested speed %d kHz, using %d kHz", khz, swdKHzToSpeedMap[speedIndex].speed)
	}

	if !query {
		if err := h.usbSetClockDivisor(debugApiV2SwdSetFreq, swdKHzToSpeedMap[speedIndex].speedDivisor); err != nil {
			return khz, fmt.Errorf("unable to set adapter speed: %w", err)
		}
	}

	return swdKHzToSpeedMap[speedIndex].speed, nil
}

func (h *StLink) setSpeedJtag(khz uint32, query bool) (uint32, error) {
	if !h.version.flags.Get(flagHasJtagSetFreq) {
		return khz, errors.New("cannot change speed on old firmware")
	}

	speedIndex, match := matchSpeedMap(jTAGkHzToSpeedMap[:], khz)

	if !match {
		logger.Infof("unable to match requested speed %d kHz, using %d kHz", khz, jTAGkHzToSpeedMap[speedIndex].speed)
	}

	if !query {
		if err := h.usbSetClockDivisor(debugApiV2JTagSetFreq, jTAGkHzToSpeedMap[speedIndex].speedDivisor); err != nil {
			return khz, fmt.Errorf("unable to set adapter speed: %w", err)
		}
	}

	return jTAGkHzToSpeedMap[speedIndex].speed, nil
}

func (h *StLink) setSpeedV3(isJtag bool, khz uint32, query bool) (uint32, error) {
	smap, err := h.usbGetComFreq(isJtag)

	if err != nil {
		return khz, err
	}

	speedIndex, match := matchSpeedMap(smap, khz)

	if speedIndex < 0 {
		return khz, errors.New("probe reported no communication frequencies")
	}

	if !match {
		logger.Infof("unable to match requested speed %d kHz, using %d kHz", khz, smap[speedIndex].speed)
	}

	if !query {
		if err := h.usbSetComFreq(isJtag, smap[speedIndex].speed); err != nil {
			return khz, err
		}
	}

	return smap[speedIndex].speed, nil
}

func (h *StLink) usbSetClockDivisor(command byte, clockDivisor uint16) error {
	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(command)
	ctx.cmdBuf.WriteUint16LE(clockDivisor)

	return h.usbCmdAllowRetry(ctx, 2)
}

func (h *StLink) usbGetComFreq(isJtag bool) ([]speedMap, error) {
	if h.version.jtagApi != jTagApiV3 {
		return nil, errors.New("unknown command")
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV3GetComFreq)

	if isJtag {
		ctx.cmdBuf.WriteByte(1)
	} else {
		ctx.cmdBuf.WriteByte(0)
	}

	if err := h.usbTransferErrCheck(ctx, 52); err != nil {
		return nil, err
	}

	data := ctx.DataBytes()
	size := int(data[8])

	if size > v3MaxFreqNb {
		size = v3MaxFreqNb
	}

	smap := make([]speedMap, size)

	for i := 0; i < size; i++ {
		smap[i].speed = convertToUint32(data[12+4*i:], littleEndian)
		smap[i].speedDivisor = uint16(i)
	}

	return smap, nil
}

func (h *StLink) usbSetComFreq(isJtag bool, frequency uint32) error {
	if h.version.jtagApi != jTagApiV3 {
		return errors.New("unknown command")
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)
	ctx.cmdBuf.WriteByte(debugApiV3SetComFreq)

	if isJtag {
		ctx.cmdBuf.WriteByte(1)
	} else {
		ctx.cmdBuf.WriteByte(0)
	}

	ctx.cmdBuf.WriteByte(0)
	ctx.cmdBuf.WriteUint32LE(frequency)

	return h.usbTransferErrCheck(ctx, 8)
}

// matchSpeedMap returns the index of the fastest speed not above khz and
// whether it matched exactly. If khz is below every entry the slowest entry
// is used. Entries with speed 0 are skipped; -1 means no usable entry.
func matchSpeedMap(smap []speedMap, khz uint32) (int, bool) {
	speedIndex := -1
	slowestIndex := -1

	for i, s := range smap {
		if s.speed == 0 {
			continue
		}

		if s.speed == khz {
			return i, true
		}

		if slowestIndex == -1 || s.speed < smap[slowestIndex].speed {
			slowestIndex = i
		}

		if s.speed < khz && (speedIndex == -1 || s.speed > smap[speedIndex].speed) {
			speedIndex = i
		}
	}

	if speedIndex == -1 {
		// this will only be here if we cannot match the slow speed.
		// use the slowest speed we support.
		return slowestIndex, false
	}

	return speedIndex, false
}
