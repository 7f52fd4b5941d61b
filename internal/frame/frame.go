// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package frame implements the length-prefixed wire envelope used by the Quark
// query protocol. A frame is a 4-byte big-endian unsigned length followed by
// exactly that many payload bytes. The payload is opaque to this package; the
// protocol carries UTF-8 JSON text in it.
//
// Reads distinguish a peer that closed the stream cleanly between frames
// (ErrNoResponse) from one that went away in the middle of a frame
// (ErrTruncated). Both are fatal for the connection.
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// PrefixLen is the size of the length prefix in bytes.
const PrefixLen = 4

// initialBufferSize caps the read buffer allocated before payload bytes arrive.
const initialBufferSize = 64 << 10

var (
	// ErrNoResponse is returned when the stream ends before any byte of a frame arrives.
	ErrNoResponse = errors.New("frame: connection closed before a response arrived")
	// ErrTruncated is returned when the stream ends part way through a frame.
	ErrTruncated = errors.New("frame: connection closed mid-frame")
	// ErrPayloadTooLarge is returned when a payload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

// DefaultLimits allows any payload the 32-bit prefix can describe.
func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: math.MaxUint32}
}

func (l Limits) max() uint64 {
	if l.MaxPayloadBytes == 0 || l.MaxPayloadBytes > math.MaxUint32 {
		return math.MaxUint32
	}
	return l.MaxPayloadBytes
}

// WriteFrame writes payload to w as one frame. Short writes are retried until
// the whole frame is on the wire or w reports an error.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if uint64(len(payload)) > limits.max() {
		return ErrPayloadTooLarge
	}
	return writeFull(w, Encode(payload))
}

// ReadFrame reads one frame from r and returns its payload.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return nil, ErrNoResponse
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, ErrTruncated
		}
		return nil, err
	}

	n := uint64(binary.BigEndian.Uint32(prefix[:]))
	if n > limits.max() {
		return nil, ErrPayloadTooLarge
	}

	if n == 0 {
		return []byte{}, nil
	}

	// The buffer grows as bytes arrive; the prefix alone never sizes it.
	var buf bytes.Buffer
	buf.Grow(int(min(n, initialBufferSize)))
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode returns the wire bytes of a frame carrying payload. The caller must
// keep payload within the 32-bit prefix range.
func Encode(payload []byte) []byte {
	buf := make([]byte, PrefixLen+len(payload))
	binary.BigEndian.PutUint32(buf[:PrefixLen], uint32(len(payload)))
	copy(buf[PrefixLen:], payload)
	return buf
}

// Decode parses exactly one frame from b. Trailing bytes are an error.
func Decode(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrNoResponse
	}
	if len(b) < PrefixLen {
		return nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint32(b[:PrefixLen]))
	rest := b[PrefixLen:]
	if len(rest) < n {
		return nil, ErrTruncated
	}
	if len(rest) > n {
		return nil, errors.New("frame: trailing bytes after payload")
	}
	return rest, nil
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}
