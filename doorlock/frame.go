package doorlock

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame magic bytes. The first byte of every frame identifies its direction:
// requests originate from the host, answers from the device.
const (
	// RequestMagic is the leading byte of every host request frame.
	RequestMagic byte = 0xCD

	// AnswerMagic is the leading byte of every device answer frame.
	AnswerMagic byte = 0xDC
)

// FrameSize is the fixed size of every request and answer frame in bytes.
const FrameSize = 4

// TagIDSize is the size of a raw tag identifier on the wire in bytes.
const TagIDSize = 4

// MaxChunkSize is the maximum number of tag IDs in a single write-data
// exchange. It is fixed by the device's receive-buffer capacity and shared
// by both ends at build time; changing it without matching device firmware
// breaks interoperability.
const MaxChunkSize = 32

// MaxRecordCount is the maximum number of records a device can hold.
// The write-count parameter field is 16 bits.
const MaxRecordCount = 0xFFFF

// Subcommand identifies the protocol operation carried by a frame.
type Subcommand byte

const (
	// SubPing is the link handshake check.
	SubPing Subcommand = 0x00
	// SubWriteCount announces the total record count of an upload.
	SubWriteCount Subcommand = 0x01
	// SubWriteData streams one chunk of raw tag identifiers.
	SubWriteData Subcommand = 0x02
	// SubReadLast queries the most recently scanned tag identifier.
	SubReadLast Subcommand = 0x03
)

// String returns a human-readable name for the subcommand.
func (s Subcommand) String() string {
	switch s {
	case SubPing:
		return "ping"
	case SubWriteCount:
		return "write-count"
	case SubWriteData:
		return "write-data"
	case SubReadLast:
		return "read-last"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(s))
	}
}

// ErrMalformedFrame indicates fewer than FrameSize bytes were available to
// decode. On this link a partial frame is observably identical to a read
// timeout, so [Client] normalizes it into ErrTimeout.
var ErrMalformedFrame = errors.New("doorlock: malformed frame")

// Frame is the decoded form of a 4-byte protocol frame.
type Frame struct {
	Magic byte
	Sub   Subcommand
	Param uint16
}

// IsRequest reports whether the frame carries the request magic.
func (f Frame) IsRequest() bool {
	return f.Magic == RequestMagic
}

// IsAnswer reports whether the frame carries the answer magic.
func (f Frame) IsAnswer() bool {
	return f.Magic == AnswerMagic
}

// Bytes serializes the frame to its big-endian wire format.
func (f Frame) Bytes() [FrameSize]byte {
	var buf [FrameSize]byte
	buf[0] = f.Magic
	buf[1] = byte(f.Sub)
	binary.BigEndian.PutUint16(buf[2:4], f.Param)

	return buf
}

// EncodeRequest encodes a host request frame for the given subcommand and
// parameter. Encoding is total: the uint16 parameter type enforces the
// 16-bit parameter field.
func EncodeRequest(sub Subcommand, param uint16) [FrameSize]byte {
	return Frame{Magic: RequestMagic, Sub: sub, Param: param}.Bytes()
}

// EncodeAnswer encodes a device answer frame for the given subcommand and
// parameter. The host never sends answers; this is used by tests and by
// device simulators such as examples/device.
func EncodeAnswer(sub Subcommand, param uint16) [FrameSize]byte {
	return Frame{Magic: AnswerMagic, Sub: sub, Param: param}.Bytes()
}

// DecodeFrame deserializes a frame from the first FrameSize bytes of data.
// It fails with ErrMalformedFrame if fewer than FrameSize bytes are supplied.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedFrame, len(data), FrameSize)
	}

	return Frame{
		Magic: data[0],
		Sub:   Subcommand(data[1]),
		Param: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// EncodeTagID encodes a tag identifier to its raw big-endian wire form.
func EncodeTagID(id uint32) [TagIDSize]byte {
	var buf [TagIDSize]byte
	binary.BigEndian.PutUint32(buf[:], id)

	return buf
}

// DecodeTagID decodes a raw big-endian tag identifier.
// data must hold at least TagIDSize bytes; callers enforce this.
func DecodeTagID(data []byte) uint32 {
	return binary.BigEndian.Uint32(data[:TagIDSize])
}
