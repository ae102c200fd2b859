// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package gostlink

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Buffer is a byte buffer with the little and big endian helpers used to
// assemble ST-Link commands and to take responses apart.
type Buffer struct {
	bytes.Buffer
}

type Endian uint8

const (
	littleEndian Endian = 0
	bigEndian    Endian = 1
)

func (e Endian) String() string {
	if e == littleEndian {
		return "little endian"
	} else {
		return "big endian"
	}
}

func NewBuffer(initSize int) *Buffer {
	b := &Buffer{}

	b.Grow(initSize)

	return b
}

func (buf *Buffer) WriteUint32LE(value uint32) {
	buf.WriteByte(byte(value))
	buf.WriteByte(byte(value >> 8))
	buf.WriteByte(byte(value >> 16))
	buf.WriteByte(byte(value >> 24))
}

func (buf *Buffer) WriteUint16LE(value uint16) {
	buf.WriteByte(byte(value))
	buf.WriteByte(byte(value >> 8))
}

// ReadUint16BE consumes two bytes. On a short buffer it returns
// math.MaxUint16 and leaves the buffer untouched.
func (buf *Buffer) ReadUint16BE() uint16 {
	return convertToUint16(buf.consume(2), bigEndian)
}

func (buf *Buffer) ReadUint16LE() uint16 {
	return convertToUint16(buf.consume(2), littleEndian)
}

func (buf *Buffer) ReadUint32LE() uint32 {
	return convertToUint32(buf.consume(4), littleEndian)
}

func (buf *Buffer) consume(n int) []byte {
	if buf.Len() < n {
		return nil
	}

	return buf.Next(n)
}

func convertToUint16(buf []byte, e Endian) uint16 {
	if len(buf) < 2 {
		logger.Errorf("could not read uint16 %s from given buffer", e)
		return math.MaxUint16
	}

	if e == littleEndian {
		return binary.LittleEndian.Uint16(buf)
	}

	return binary.BigEndian.Uint16(buf)
}

func convertToUint32(buf []byte, e Endian) uint32 {
	if len(buf) < 4 {
		logger.Errorf("could not read uint32 %s from given buffer", e)
		return math.MaxUint32
	}

	if e == littleEndian {
		return binary.LittleEndian.Uint32(buf)
	}

	return binary.BigEndian.Uint32(buf)
}
