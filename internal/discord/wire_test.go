package discord

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	body := map[string]any{"v": 1, "client_id": "123456789012345678"}
	if err := writeFrame(&buf, OpHandshake, body); err != nil {
		t.Fatalf("write: %v", err)
	}

	op, payload, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if op != OpHandshake {
		t.Errorf("expected opcode %d, got %d", OpHandshake, op)
	}
	if !bytes.Contains(payload, []byte(`"client_id":"123456789012345678"`)) {
		t.Errorf("payload lost content: %s", payload)
	}
}

func TestReadFrameRejectsOversizedPayload(t *testing.T) {
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(OpFrame))
	binary.LittleEndian.PutUint32(header[4:8], maxFramePayload+1)

	_, _, err := readFrame(bytes.NewReader(header))
	if err != errFrameTooLarge {
		t.Fatalf("expected errFrameTooLarge, got: %v", err)
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, _, err := readFrame(bytes.NewReader([]byte{1, 2, 3}))
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(OpFrame))
	binary.LittleEndian.PutUint32(header[4:8], 100)

	_, _, err := readFrame(bytes.NewReader(append(header, []byte("short")...)))
	if err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
