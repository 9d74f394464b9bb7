package doorlock

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/arloliu/go-doorlock/logger"
	"github.com/arloliu/go-doorlock/tagdb"
)

// ErrCapacityExceeded indicates a record set larger than MaxRecordCount.
// Rejected before any transfer begins.
var ErrCapacityExceeded = errors.New("doorlock: record count exceeds protocol capacity")

// UploadState is the state of an upload in progress.
type UploadState int32

const (
	// UploadIdle means no upload has started.
	UploadIdle UploadState = iota
	// UploadAnnouncing means the total record count is being announced.
	UploadAnnouncing
	// UploadStreaming means record chunks are being streamed.
	UploadStreaming
	// UploadDone is the terminal success state.
	UploadDone
	// UploadFailed is the absorbing failure state, reachable from any state
	// after the announce began.
	UploadFailed
)

// String returns a human-readable name for the upload state.
func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case UploadAnnouncing:
		return "announcing-count"
	case UploadStreaming:
		return "streaming-chunks"
	case UploadDone:
		return "done"
	case UploadFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// UploadError reports a failed upload together with the number of records
// the device had fully acknowledged before the failure.
//
// Acked counts only records in acknowledged chunks. The protocol cannot
// resume mid-upload or roll the device back, and whether a failed chunk
// left a partial prefix on the device is unspecified; acknowledged records
// are considered durably written, everything after them is unknown.
type UploadError struct {
	Acked int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("doorlock: upload failed after %d acknowledged records: %v", e.Acked, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ProgressHandler is invoked after each acknowledged chunk with the number
// of acknowledged records so far and the upload total.
type ProgressHandler func(acked, total int)

// StateChangeHandler is invoked on every upload state transition.
type StateChangeHandler func(prev, next UploadState)

// Uploader drives a full record-set upload through a Client: announce the
// total count, then stream the records in order in chunks of at most
// MaxChunkSize, verifying each acknowledgment. The first failed exchange
// aborts the upload.
//
// Like the Client it wraps, an Uploader runs one upload at a time. Handlers
// are invoked synchronously from the uploading goroutine and must not block.
type Uploader struct {
	client *Client
	logger logger.Logger

	state atomic.Int32

	progressHandlers []ProgressHandler
	stateHandlers    []StateChangeHandler
}

// NewUploader creates an uploader bound to the given client.
func NewUploader(client *Client) *Uploader {
	return &Uploader{
		client: client,
		logger: client.logger,
	}
}

// AddProgressHandler adds one or more handlers invoked after each
// acknowledged chunk. Handlers should be registered before Upload is called.
func (u *Uploader) AddProgressHandler(handlers ...ProgressHandler) {
	u.progressHandlers = append(u.progressHandlers, handlers...)
}

// AddStateChangeHandler adds one or more handlers invoked on every state
// transition. Handlers should be registered before Upload is called.
func (u *Uploader) AddStateChangeHandler(handlers ...StateChangeHandler) {
	u.stateHandlers = append(u.stateHandlers, handlers...)
}

// State returns the current upload state.
func (u *Uploader) State() UploadState {
	return UploadState(u.state.Load())
}

// Upload pushes the given record snapshot to the device and returns the
// number of records written.
//
// A record set larger than MaxRecordCount fails with ErrCapacityExceeded
// without touching the link. An empty record set announces a count of zero
// and completes without streaming, clearing the device's list.
//
// On any protocol failure the returned error is an *UploadError carrying
// the underlying cause and the acknowledged-prefix count; the same count is
// also returned as the first value.
func (u *Uploader) Upload(records []tagdb.Record) (int, error) {
	total := len(records)

	u.setState(UploadIdle)

	if total > MaxRecordCount {
		return 0, fmt.Errorf("%w: got %d records, max %d", ErrCapacityExceeded, total, MaxRecordCount)
	}

	u.setState(UploadAnnouncing)
	u.logger.Info("upload started", "total", total)

	if err := u.client.AnnounceCount(uint16(total)); err != nil { //nolint:gosec // bounded by MaxRecordCount
		return 0, u.fail(0, err)
	}

	if total == 0 {
		u.setState(UploadDone)
		u.client.metrics.incUploadCount()
		u.logger.Info("upload complete", "written", 0)

		return 0, nil
	}

	u.setState(UploadStreaming)

	ids := make([]uint32, total)
	for i, rec := range records {
		ids[i] = rec.ID
	}

	acked := 0
	for start := 0; start < total; start += MaxChunkSize {
		end := min(start+MaxChunkSize, total)

		if err := u.client.SendChunk(ids[start:end]); err != nil {
			return acked, u.fail(acked, err)
		}

		acked = end
		u.notifyProgress(acked, total)
	}

	u.setState(UploadDone)
	u.client.metrics.incUploadCount()
	u.logger.Info("upload complete", "written", acked)

	return acked, nil
}

func (u *Uploader) fail(acked int, err error) error {
	u.setState(UploadFailed)
	u.client.metrics.incUploadErrCount()
	u.logger.Error("upload failed", "acked", acked, "error", err)

	return &UploadError{Acked: acked, Err: err}
}

func (u *Uploader) setState(next UploadState) {
	prev := UploadState(u.state.Swap(int32(next)))
	if prev == next {
		return
	}

	for _, handler := range u.stateHandlers {
		handler(prev, next)
	}
}

func (u *Uploader) notifyProgress(acked, total int) {
	for _, handler := range u.progressHandlers {
		handler(acked, total)
	}
}
