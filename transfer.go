// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package gostlink

// transferCtx holds one command and the response read back for it.
type transferCtx struct {
	cmdBuf  *Buffer
	dataBuf *Buffer
}

func (ctx *transferCtx) DataBytes() []byte {
	return ctx.dataBuf.Bytes()
}

func (h *StLink) initTransfer() *transferCtx {
	return &transferCtx{
		cmdBuf:  NewBuffer(cmdSizeV2),
		dataBuf: NewBuffer(0),
	}
}

func (h *StLink) usbTransferNoErrCheck(ctx *transferCtx, size uint32) error {
	cmd := make([]byte, cmdSizeV2)
	copy(cmd, ctx.cmdBuf.Bytes())

	if _, err := usbWrite(h.txEndpoint, cmd); err != nil {
		return err
	}

	if size == 0 {
		return nil
	}

	data := make([]byte, size)

	bytesRead, err := usbRead(h.rxEndpoint, data)

	if err != nil {
		return err
	}

	if uint32(bytesRead) != size {
		logger.Tracef("short read from st-link: %d of %d bytes", bytesRead, size)
	}

	ctx.dataBuf.Reset()
	ctx.dataBuf.Write(data)

	return nil
}

func (h *StLink) usbTransferErrCheck(ctx *transferCtx, size uint32) error {

	err := h.usbTransferNoErrCheck(ctx, size)

	if err != nil {
		return err
	}

	return h.usbErrorCheck(ctx)
}

func (h *StLink) usbGetReadWriteStatus() error {

	if h.version.jtagApi == jTagApiV1 {
		return nil
	}

	ctx := h.initTransfer()

	ctx.cmdBuf.WriteByte(cmdDebug)

	if h.version.flags.Get(flagHasGetLastRwStatus2) {
		ctx.cmdBuf.WriteByte(debugApiV2GetLastRWStatus2)

		return h.usbTransferErrCheck(ctx, 12)
	} else {
		ctx.cmdBuf.WriteByte(debugApiV2GetLastRWStatus)

		return h.usbTransferErrCheck(ctx, 2)
	}
}
