// Package apdu implements the command/response APDU buffers consumed by the
// dispatcher: parsing of ISO 7816-4 case-3/case-4 command APDUs (short and
// extended length) and construction of status-word-terminated responses.
package apdu

import "fmt"

// MaxSize bounds the fixed-capacity request/response buffers. Large enough
// for an extended-length PUT DATA carrying a wrapped RSA-2048 private key.
const MaxSize = 2048

// MinRequestSize is the minimum valid command APDU length: CLA INS P1 P2.
// The Lc byte is optional.
const MinRequestSize = 4

// Request wraps a raw command APDU (the spec's cmd_APDU) and exposes the
// header fields and bounds-checked payload access that every handler needs.
type Request struct {
	raw []byte
}

// NewRequest validates and wraps a raw command APDU. cmd_APDU_size (len(raw))
// is authoritative; Lc is advisory and is never trusted over it.
func NewRequest(raw []byte) (*Request, error) {
	if len(raw) < MinRequestSize {
		return nil, fmt.Errorf("apdu: command too short: %d bytes", len(raw))
	}
	if len(raw) > MaxSize {
		return nil, fmt.Errorf("apdu: command too long: %d bytes", len(raw))
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return &Request{raw: buf}, nil
}

// Size returns cmd_APDU_size, the authoritative total length.
func (r *Request) Size() int { return len(r.raw) }

// CLA returns the class byte. The dispatcher does not inspect it.
func (r *Request) CLA() byte { return r.raw[0] }

// INS returns the instruction byte used to select a handler.
func (r *Request) INS() byte { return r.raw[1] }

// P1 returns the first parameter byte.
func (r *Request) P1() byte { return r.raw[2] }

// P2 returns the second parameter byte.
func (r *Request) P2() byte { return r.raw[3] }

// IsExtended reports whether the Lc field uses the extended-length encoding:
// a zero Lc byte followed by two big-endian length bytes.
func (r *Request) IsExtended() bool {
	return len(r.raw) >= 5 && r.raw[4] == 0x00 && len(r.raw) >= 7
}

// DataStart returns the offset of the first payload byte: 5 for short-Lc
// APDUs, 7 for extended-Lc APDUs.
func (r *Request) DataStart() int {
	if r.IsExtended() {
		return 7
	}
	return 5
}

// Lc returns the advisory payload length encoded in the header. Callers must
// not index with it without checking against Size(); use Payload instead.
func (r *Request) Lc() int {
	switch {
	case len(r.raw) < 5:
		return 0
	case r.IsExtended():
		return int(r.raw[5])<<8 | int(r.raw[6])
	default:
		return int(r.raw[4])
	}
}

// Payload returns exactly n bytes starting at DataStart, or ok=false if that
// range would read past cmd_APDU_size. Handlers must treat ok=false as
// GENERIC_ERROR per the spec's defensive-offset-arithmetic design note.
func (r *Request) Payload(n int) (data []byte, ok bool) {
	start := r.DataStart()
	if n < 0 || start+n > len(r.raw) {
		return nil, false
	}
	return r.raw[start : start+n], true
}

// PayloadAll returns every byte from DataStart to the end of the buffer, or
// ok=false if DataStart itself is out of range. Used by handlers that accept
// a variable-length trailing payload (e.g. PUT DATA).
func (r *Request) PayloadAll() (data []byte, ok bool) {
	start := r.DataStart()
	if start > len(r.raw) {
		return nil, false
	}
	return r.raw[start:], true
}

// Raw returns the unparsed command bytes. Used by handlers that need to
// inspect a fixed byte at an absolute offset (e.g. GAKP's purpose byte).
func (r *Request) Raw() []byte { return r.raw }

// ByteAt returns the byte at an absolute offset, or ok=false if out of range.
func (r *Request) ByteAt(offset int) (b byte, ok bool) {
	if offset < 0 || offset >= len(r.raw) {
		return 0, false
	}
	return r.raw[offset], true
}

// Response accumulates the payload bytes of a reply (the spec's res_APDU)
// before a status word terminates it.
type Response struct {
	buf []byte
}

// NewResponse returns an empty response buffer.
func NewResponse() *Response {
	return &Response{buf: make([]byte, 0, MaxSize)}
}

// Write appends payload bytes ahead of the eventual status word.
func (r *Response) Write(b []byte) {
	r.buf = append(r.buf, b...)
}

// End appends the two-byte status word, finalizing the response. Every
// handler must call End exactly once on every return path.
func (r *Response) End(sw StatusWord) {
	r.buf = append(r.buf, byte(sw>>8), byte(sw))
}

// Bytes returns the complete response: payload || SW1 || SW2.
func (r *Response) Bytes() []byte { return r.buf }

// Size returns res_APDU_size: payload_len + 2, once End has been called.
func (r *Response) Size() int { return len(r.buf) }

// SW extracts the status word from a finalized response: the last two bytes
// of the buffer. Panics if fewer than two bytes are buffered; the result is
// only meaningful after End, and callers only reach this after dispatch
// completes.
func (r *Response) SW() StatusWord {
	n := len(r.buf)
	return StatusWord(uint16(r.buf[n-2])<<8 | uint16(r.buf[n-1]))
}

// PayloadBytes returns the response bytes preceding the status word.
func (r *Response) PayloadBytes() []byte {
	n := len(r.buf)
	if n < 2 {
		return nil
	}
	return r.buf[:n-2]
}
