package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileshare/fileshared/pkg/wire"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		cmd     wire.Command
		payload []byte
	}{
		{"empty payload", wire.CmdListDir, nil},
		{"small json", wire.CmdLoginRequest, []byte(`{"username":"admin","password":"admin"}`)},
		{"binary upload", wire.CmdUploadData, []byte("hello")},
		{"large-ish payload", wire.CmdDownloadResponse, bytes.Repeat([]byte{0x42}, 1<<20)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, wire.Encode(&buf, tc.cmd, tc.payload))

			cmd, payload, err := wire.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, tc.cmd, cmd)
			assert.Equal(t, tc.payload, payload)
		})
	}
}

func TestDecodeBadMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x00, byte(wire.CmdListDir), 0, 0, 0, 0})
	_, _, err := wire.Decode(buf)
	require.Error(t, err)
	var fe *wire.FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, wire.KindBadMagic, fe.Kind)
}

func TestDecodePayloadTooLarge(t *testing.T) {
	header := []byte{wire.MagicByte1, wire.MagicByte2, byte(wire.CmdUploadData), 0xFF, 0xFF, 0xFF, 0xFF}
	buf := bytes.NewBuffer(header)
	_, _, err := wire.Decode(buf)
	require.Error(t, err)
	var fe *wire.FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, wire.KindPayloadTooLarge, fe.Kind)
}

func TestDecodeShortRead(t *testing.T) {
	header := []byte{wire.MagicByte1, wire.MagicByte2, byte(wire.CmdUploadData), 0, 0, 0, 10}
	buf := bytes.NewBuffer(append(header, []byte("short")...))
	_, _, err := wire.Decode(buf)
	require.Error(t, err)
	var fe *wire.FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, wire.KindShortRead, fe.Kind)
}

func TestDecodePeerClosed(t *testing.T) {
	buf := &bytes.Buffer{}
	_, _, err := wire.Decode(buf)
	require.Error(t, err)
	assert.True(t, wire.IsPeerClosed(err))
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := wire.Encode(&buf, wire.CmdUploadData, make([]byte, wire.MaxPayloadSize+1))
	require.Error(t, err)
	var fe *wire.FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, wire.KindPayloadTooLarge, fe.Kind)
}
