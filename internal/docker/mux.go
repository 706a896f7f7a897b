package docker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rusenback/docker-console/internal/model"
)

// maxFramePayload caps the payload size accepted from a frame header.
const maxFramePayload = 1 << 20

// ErrFrameTooLarge is returned for a frame header announcing more than
// maxFramePayload bytes.
var ErrFrameTooLarge = errors.New("frame payload too large")

// frameKind identifies which stream a multiplexed frame belongs to.
type frameKind byte

const (
	frameStdin  frameKind = 0
	frameStdout frameKind = 1
	frameStderr frameKind = 2
)

func (k frameKind) stream() model.Stream {
	if k == frameStderr {
		return model.StreamStderr
	}
	return model.StreamStdout
}

// frame is one decoded frame of a non-TTY log stream.
type frame struct {
	kind    frameKind
	payload []byte
}

// readFrame reads one frame. The header is:
//
//	byte 0:    stream (0=stdin, 1=stdout, 2=stderr)
//	bytes 1-3: zero
//	bytes 4-7: payload size, big-endian uint32
func readFrame(r io.Reader) (frame, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, fmt.Errorf("reading frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[4:8])
	if size > maxFramePayload {
		return frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return frame{}, fmt.Errorf("reading frame payload: %w", err)
	}

	return frame{kind: frameKind(header[0]), payload: payload}, nil
}
