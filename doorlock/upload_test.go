package doorlock

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-doorlock/tagdb"
)

func makeRecords(n int) []tagdb.Record {
	records := make([]tagdb.Record, n)
	for i := range records {
		records[i] = tagdb.Record{
			ID:    uint32(i + 1), //nolint:gosec // test counts are small
			Label: fmt.Sprintf("tag-%d", i+1),
		}
	}

	return records
}

// chunkIDs decodes the tag identifiers from a recorded write-data write
// (frame plus payload).
func chunkIDs(t *testing.T, write []byte) []uint32 {
	t.Helper()

	frame, err := DecodeFrame(write)
	require.NoError(t, err)
	require.Equal(t, SubWriteData, frame.Sub)
	require.Len(t, write, FrameSize+int(frame.Param)*TagIDSize)

	ids := make([]uint32, frame.Param)
	for i := range ids {
		ids[i] = binary.BigEndian.Uint32(write[FrameSize+i*TagIDSize:])
	}

	return ids
}

func TestUploader_Upload(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	records := makeRecords(40)

	mt.queueAnswer(SubWriteCount, 40)
	mt.queueAnswer(SubWriteData, 32)
	mt.queueAnswer(SubWriteData, 8)

	written, err := uploader.Upload(records)
	require.NoError(t, err)
	assert.Equal(t, 40, written)
	assert.Equal(t, UploadDone, uploader.State())

	// One announce write plus exactly two chunk writes, 32 then 8.
	require.Len(t, mt.writes, 3)
	assert.Equal(t, []byte{0xCD, 0x01, 0x00, 0x28}, mt.writes[0])

	first := chunkIDs(t, mt.writes[1])
	second := chunkIDs(t, mt.writes[2])
	assert.Len(t, first, 32)
	assert.Len(t, second, 8)

	// Original order is preserved across the chunk boundary.
	all := append(first, second...)
	for i, id := range all {
		assert.Equal(t, uint32(i+1), id) //nolint:gosec // test counts are small
	}

	assert.Equal(t, uint64(1), client.Metrics().UploadCount.Load())
}

func TestUploader_Upload_ChunkMismatch(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	mt.queueAnswer(SubWriteCount, 40)
	mt.queueAnswer(SubWriteData, 32)
	// Second chunk acknowledged with 7 instead of 8.
	mt.queueAnswer(SubWriteData, 7)

	written, err := uploader.Upload(makeRecords(40))
	assert.Equal(t, 32, written)
	assert.Equal(t, UploadFailed, uploader.State())

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 32, uploadErr.Acked)
	assert.ErrorIs(t, err, ErrUnexpectedAnswer)

	assert.Equal(t, uint64(1), client.Metrics().UploadErrCount.Load())
}

func TestUploader_Upload_AnnounceFailure(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	// No answer queued: the announce read times out.
	written, err := uploader.Upload(makeRecords(3))
	assert.Equal(t, 0, written)
	assert.Equal(t, UploadFailed, uploader.State())

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, 0, uploadErr.Acked)
	assert.ErrorIs(t, err, ErrTimeout)

	// Only the count frame was sent; no chunk bytes followed.
	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{0xCD, 0x01, 0x00, 0x03}, mt.writes[0])
}

func TestUploader_Upload_CapacityExceeded(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	_, err := uploader.Upload(make([]tagdb.Record, MaxRecordCount+1))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Empty(t, mt.writes, "oversized record sets must not touch the link")
}

func TestUploader_Upload_ZeroRecords(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	mt.queueAnswer(SubWriteCount, 0)

	written, err := uploader.Upload(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.Equal(t, UploadDone, uploader.State())

	// Announce zero, then no streaming.
	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{0xCD, 0x01, 0x00, 0x00}, mt.writes[0])
}

func TestUploader_Handlers(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)
	uploader := NewUploader(client)

	var states []UploadState
	uploader.AddStateChangeHandler(func(prev, next UploadState) {
		states = append(states, next)
	})

	type progress struct{ acked, total int }
	var updates []progress
	uploader.AddProgressHandler(func(acked, total int) {
		updates = append(updates, progress{acked, total})
	})

	mt.queueAnswer(SubWriteCount, 40)
	mt.queueAnswer(SubWriteData, 32)
	mt.queueAnswer(SubWriteData, 8)

	_, err := uploader.Upload(makeRecords(40))
	require.NoError(t, err)

	assert.Equal(t, []UploadState{UploadAnnouncing, UploadStreaming, UploadDone}, states)
	assert.Equal(t, []progress{{32, 40}, {40, 40}}, updates)
}

func TestUploadState_String(t *testing.T) {
	assert.Equal(t, "idle", UploadIdle.String())
	assert.Equal(t, "announcing-count", UploadAnnouncing.String())
	assert.Equal(t, "streaming-chunks", UploadStreaming.String())
	assert.Equal(t, "done", UploadDone.String())
	assert.Equal(t, "failed", UploadFailed.String())
}

func TestUploadError_Unwrap(t *testing.T) {
	err := &UploadError{Acked: 32, Err: ErrUnexpectedAnswer}
	assert.ErrorIs(t, err, ErrUnexpectedAnswer)
	assert.Contains(t, err.Error(), "32 acknowledged")
}
