package doorlock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Connect_Handshake(t *testing.T) {
	mt := &mockTransport{}
	client := newTestClient(t, mt)

	mt.queueAnswer(SubPing, 0)
	require.NoError(t, client.Connect())

	assert.True(t, client.IsConnected())
	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{0xCD, 0x00, 0x00, 0x00}, mt.writes[0])
}

func TestClient_Connect_WrongAnswer(t *testing.T) {
	mt := &mockTransport{}
	client := newTestClient(t, mt)

	// Answer parameter 1 instead of 0.
	mt.queueBytes(0xDC, 0x00, 0x00, 0x01)

	err := client.Connect()
	assert.ErrorIs(t, err, ErrUnexpectedAnswer)
	assert.False(t, client.IsConnected())
	assert.Equal(t, 1, mt.closeCount, "transport must be closed after a failed handshake")
}

func TestClient_Connect_ShortAnswer(t *testing.T) {
	mt := &mockTransport{}
	client := newTestClient(t, mt)

	// Only 2 of 4 answer bytes arrive within the timeout.
	mt.queueBytes(0xDC, 0x00)

	err := client.Connect()
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, client.IsConnected())
	assert.Equal(t, 1, mt.closeCount)
}

func TestClient_Connect_OpenFailure(t *testing.T) {
	mt := &mockTransport{openErr: errors.New("port busy")}
	client := newTestClient(t, mt)

	err := client.Connect()
	require.Error(t, err)
	assert.False(t, client.IsConnected())
	assert.Empty(t, mt.writes, "no bytes may be sent when the transport fails to open")
}

func TestClient_NotConnected(t *testing.T) {
	client := newTestClient(t, &mockTransport{})

	assert.ErrorIs(t, client.Ping(), ErrNotConnected)
	assert.ErrorIs(t, client.AnnounceCount(1), ErrNotConnected)
	assert.ErrorIs(t, client.SendChunk([]uint32{1}), ErrNotConnected)

	_, err := client.ReadLast()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_AnnounceCount(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	mt.queueAnswer(SubWriteCount, 40)
	require.NoError(t, client.AnnounceCount(40))

	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{0xCD, 0x01, 0x00, 0x28}, mt.writes[0])
}

func TestClient_AnnounceCount_EchoMismatch(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	// Device echoes 39 instead of 40.
	mt.queueAnswer(SubWriteCount, 39)

	err := client.AnnounceCount(40)
	assert.ErrorIs(t, err, ErrUnexpectedAnswer)
	assert.Equal(t, uint64(1), client.Metrics().AnswerMismatchCount.Load())
}

func TestClient_AnnounceCount_SubcommandMismatch(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	// Correct parameter but wrong subcommand.
	mt.queueAnswer(SubWriteData, 40)

	assert.ErrorIs(t, client.AnnounceCount(40), ErrUnexpectedAnswer)
}

func TestClient_SendChunk_WireFormat(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	mt.queueAnswer(SubWriteData, 2)
	require.NoError(t, client.SendChunk([]uint32{0xDEADBEEF, 0x00000001}))

	// Frame and payload go out back-to-back with no delimiters.
	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{
		0xCD, 0x02, 0x00, 0x02,
		0xDE, 0xAD, 0xBE, 0xEF,
		0x00, 0x00, 0x00, 0x01,
	}, mt.writes[0])

	assert.Equal(t, uint64(2), client.Metrics().RecordSendCount.Load())
}

func TestClient_SendChunk_SizeBounds(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	assert.ErrorIs(t, client.SendChunk(nil), ErrChunkSize)
	assert.ErrorIs(t, client.SendChunk([]uint32{}), ErrChunkSize)
	assert.ErrorIs(t, client.SendChunk(make([]uint32, MaxChunkSize+1)), ErrChunkSize)
	assert.Empty(t, mt.writes, "out-of-range chunks must not touch the link")

	// Exactly MaxChunkSize is legal.
	mt.queueAnswer(SubWriteData, MaxChunkSize)
	assert.NoError(t, client.SendChunk(make([]uint32, MaxChunkSize)))
}

func TestClient_ReadLast(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	mt.queueAnswer(SubReadLast, 0)
	mt.queueBytes(0x00, 0x00, 0x12, 0x34)

	id, err := client.ReadLast()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00001234), id)

	require.Len(t, mt.writes, 1)
	assert.Equal(t, []byte{0xCD, 0x03, 0x00, 0x00}, mt.writes[0])
}

func TestClient_ReadLast_ShortID(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	// Answer frame arrives but the identifier payload is cut short.
	mt.queueAnswer(SubReadLast, 0)
	mt.queueBytes(0x00, 0x00)

	_, err := client.ReadLast()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Close(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	require.NoError(t, client.Close())
	assert.False(t, client.IsConnected())
	assert.Equal(t, 1, mt.closeCount)

	assert.ErrorIs(t, client.Ping(), ErrNotConnected)
}

func TestClient_Reconnect(t *testing.T) {
	mt := &mockTransport{}
	client := newConnectedClient(t, mt)

	require.NoError(t, client.Close())

	mt.queueAnswer(SubPing, 0)
	require.NoError(t, client.Connect())
	assert.True(t, client.IsConnected())
}
