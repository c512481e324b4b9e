// Package rpc is a request/reply transport over plain TCP. Each message is a
// length-prefixed JSON envelope carrying a pattern name, a payload and a uuid
// correlation id so that several in-flight calls can share one connection.
package rpc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize caps a single envelope so a corrupt length prefix cannot make
// the reader allocate unbounded memory.
const maxFrameSize = 1 << 20

type request struct {
	ID      string          `json:"id"`
	Pattern string          `json:"pattern"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type response struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Err     *wireError      `json:"error,omitempty"`
}

// wireError carries a handler failure back to the caller with its kind intact.
type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if len(body) > maxFrameSize {
		return fmt.Errorf("envelope of %d bytes exceeds frame limit", len(body))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds frame limit", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
