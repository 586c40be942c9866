package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePacket([]byte("abc")))
	require.NoError(t, w.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	r := NewReader(&buf)
	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = r.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = r.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{5, 0, 0, 0, 'a'}))
	_, err := r.ReadPacket()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r = NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff}))
	_, err = r.ReadPacket()
	require.ErrorIs(t, err, ErrPacketTooLarge)
}
