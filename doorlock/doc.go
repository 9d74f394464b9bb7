// Package doorlock implements the host side of the binary request/answer
// protocol used to synchronize RFID tag identifiers with a door-lock
// embedded device over a byte-oriented serial link.
//
// # Protocol Overview
//
// Every exchange is a fixed 4-byte request frame followed by a fixed 4-byte
// answer frame, big-endian on the wire:
//
//	[magic(1)][subcommand(1)][parameter(2)]
//
// The magic byte is 0xCD for requests and 0xDC for answers. Four subcommands
// exist:
//
//   - ping (0) — link/handshake check, parameter unused
//   - write-count (1) — announce total record count, parameter = count
//   - write-data (2) — stream a chunk of tag IDs, parameter = chunk size;
//     the request frame is immediately followed by chunk-size raw 4-byte
//     big-endian tag identifiers, with no delimiters or padding
//   - read-last (3) — query the most recently scanned tag ID; the answer
//     frame is followed by 4 raw bytes carrying the identifier
//
// The device echoes each request's subcommand and parameter in its answer.
// The link provides no CRC, retransmission, or flow control beyond a read
// timeout, so the client validates every answer exactly and surfaces the
// first mismatch or timeout to the caller without retrying.
//
// # Components
//
// [Client] issues the four protocol operations over a [Transport] (a real
// serial port via [SerialTransport], or any byte channel such as
// [ConnTransport] over a net.Conn). [Uploader] drives a full record-set
// upload: it announces the total count, then streams the records in chunks
// of at most [MaxChunkSize], aborting on the first failed exchange and
// reporting the acknowledged prefix.
//
// The protocol is strictly request-then-answer on a single session. Client
// and Uploader are synchronous and not goroutine-safe; run uploads on a
// dedicated worker and communicate progress through the registered handlers
// if the caller needs responsiveness.
package doorlock
