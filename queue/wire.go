// Package queue implements the reliable, ordered, at-most-once client to
// server request channel: a bounded-window client half that survives
// reconnects and a dedupe-on-replay server half.
package queue

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Handshake is the first frame a client writes after connecting:
// [i64 nodeId], big-endian.
type Handshake struct {
	NodeID int64
}

func writeHandshake(w io.Writer, h Handshake) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(h.NodeID))
	_, err := w.Write(buf[:])
	return err
}

func readHandshake(r io.Reader) (Handshake, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Handshake{}, err
	}
	return Handshake{NodeID: int64(binary.BigEndian.Uint64(buf[:]))}, nil
}

// requestFrame is [i32 seqno][i32 len][bytes payload], big-endian.
type requestFrame struct {
	Seqno   int32
	Payload []byte
}

func writeRequestFrame(w io.Writer, f requestFrame) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(f.Seqno))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(f.Payload)
	return err
}

func readRequestFrame(r io.Reader) (requestFrame, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return requestFrame{}, err
	}
	seqno := int32(binary.BigEndian.Uint32(hdr[0:4]))
	length := binary.BigEndian.Uint32(hdr[4:8])
	if length > maxFramePayload {
		return requestFrame{}, fmt.Errorf("queue: request payload %d exceeds limit: %w", length, ErrShortFrame)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return requestFrame{}, err
	}
	return requestFrame{Seqno: seqno, Payload: payload}, nil
}

// ackFrame is [i32 seqno][i8 ok?][i32 msgLen][utf8 msg], big-endian. ok=1
// means success and msgLen is 0; ok=0 carries a failure message.
type ackFrame struct {
	Seqno int32
	OK    bool
	Msg   string
}

func writeAckFrame(w io.Writer, f ackFrame) error {
	msg := []byte(f.Msg)
	var hdr [9]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(f.Seqno))
	if f.OK {
		hdr[4] = 1
	}
	binary.BigEndian.PutUint32(hdr[5:9], uint32(len(msg)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

func readAckFrame(r io.Reader) (ackFrame, error) {
	var hdr [9]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ackFrame{}, err
	}
	seqno := int32(binary.BigEndian.Uint32(hdr[0:4]))
	ok := hdr[4] == 1
	length := binary.BigEndian.Uint32(hdr[5:9])
	if length > maxFramePayload {
		return ackFrame{}, fmt.Errorf("queue: ack message %d exceeds limit: %w", length, ErrShortFrame)
	}
	msg := make([]byte, length)
	if _, err := io.ReadFull(r, msg); err != nil {
		return ackFrame{}, err
	}
	return ackFrame{Seqno: seqno, OK: ok, Msg: string(msg)}, nil
}

// maxFramePayload bounds a single frame's declared length, guarding
// against a corrupt or hostile length field forcing an enormous
// allocation.
const maxFramePayload = 64 << 20
