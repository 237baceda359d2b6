// Package discord speaks the local Discord client's IPC protocol: a unix
// socket carrying little-endian (opcode, length) framed JSON bodies. It is
// the production implementation of the supervisor's Service dependency.
package discord

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Frame header: [4B opcode little-endian][4B payload length little-endian].
const headerSize = 8

// maxFramePayload caps a single frame body. Presence payloads are small;
// anything larger means a desynchronized stream.
const maxFramePayload = 64 * 1024

// Opcode identifies the frame type.
type Opcode uint32

const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

var (
	errFrameTooLarge = errors.New("frame payload exceeds maximum size")
)

// writeFrame serializes body as JSON and writes one (op, len, payload) frame.
func writeFrame(w io.Writer, op Opcode, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode frame body: %w", err)
	}
	if len(payload) > maxFramePayload {
		return errFrameTooLarge
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(op))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// readFrame reads one frame and returns its opcode and raw JSON payload.
func readFrame(r io.Reader) (Opcode, []byte, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}

	op := Opcode(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFramePayload {
		return 0, nil, errFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload: %w", err)
	}
	return op, payload, nil
}
