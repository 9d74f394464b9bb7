package doorlock

import (
	"sync/atomic"
)

// ClientMetrics contains atomic metrics for a device connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ClientMetrics struct {
	// FrameSendCount indicates the number of request frames sent.
	FrameSendCount atomic.Uint64
	// AnswerRecvCount indicates the number of full-length answer frames received.
	AnswerRecvCount atomic.Uint64
	// AnswerMismatchCount indicates the number of answers that did not match
	// the request they echo.
	AnswerMismatchCount atomic.Uint64

	// RecordSendCount indicates the number of tag records acknowledged by
	// the device across write-data exchanges.
	RecordSendCount atomic.Uint64

	// UploadCount indicates the number of uploads completed successfully.
	UploadCount atomic.Uint64
	// UploadErrCount indicates the number of uploads that failed.
	UploadErrCount atomic.Uint64
}

func (m *ClientMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *ClientMetrics) incAnswerRecvCount() {
	m.AnswerRecvCount.Add(1)
}

func (m *ClientMetrics) incAnswerMismatchCount() {
	m.AnswerMismatchCount.Add(1)
}

func (m *ClientMetrics) addRecordSendCount(n int) {
	m.RecordSendCount.Add(uint64(n)) //nolint:gosec // chunk sizes are bounded by MaxChunkSize
}

func (m *ClientMetrics) incUploadCount() {
	m.UploadCount.Add(1)
}

func (m *ClientMetrics) incUploadErrCount() {
	m.UploadErrCount.Add(1)
}
