package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTransfer(t *testing.T) {
	request := make([]byte, reportSize)
	encodeTransfer(request, cmdI2CRead, 0x68<<1|1, 4)
	assert.Equal(t, []byte{0x91, 0x04, 0x00, 0xD1}, request[:4])

	encodeTransfer(request, cmdI2CWrite, 0x68<<1, 1)
	assert.Equal(t, []byte{0x90, 0x01, 0x00, 0xD0}, request[:4])
}

func TestDecodeReadData(t *testing.T) {
	response := make([]byte, reportSize)
	response[0] = cmdI2CGetData
	response[3] = 4
	copy(response[4:], []byte{0x00, 0x01, 0x80, 0x00, 0xAA})

	buf := make([]byte, 4)
	require.NoError(t, decodeReadData(response, buf))
	assert.Equal(t, []byte{0x00, 0x01, 0x80, 0x00}, buf)
}

func TestDecodeReadData_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   byte
		length   byte
		isFailed bool
	}{
		{"engine error", readEngineError, 4, true},
		{"invalid length marker", 0x00, readInvalidLength, false},
		{"length mismatch", 0x00, 3, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			response := make([]byte, reportSize)
			response[1] = test.status
			response[3] = test.length
			err := decodeReadData(response, make([]byte, 4))
			require.Error(t, err)
			assert.Equal(t, test.isFailed, errors.Is(err, ErrCommandFailed))
		})
	}
}

func TestSpeedDivider(t *testing.T) {
	div, err := speedDivider(100_000)
	require.NoError(t, err)
	assert.Equal(t, byte(117), div)

	div, err = speedDivider(400_000)
	require.NoError(t, err)
	assert.Equal(t, byte(27), div)

	_, err = speedDivider(0)
	assert.Error(t, err)
	_, err = speedDivider(10_000)
	assert.Error(t, err)
	_, err = speedDivider(12_000_000)
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	buf := make([]byte, reportSize)
	buf[9], buf[10] = 0x04, 0x00
	buf[11], buf[12] = 0x03, 0x00
	buf[13] = 2
	buf[14] = 117
	buf[15] = 9
	buf[16], buf[17] = 0xD0, 0x00
	buf[25] = 1

	status := parseStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   2,
		I2CSpeedDivider:        117,
		I2CTimeout:             9,
		CurrentAddress:         "d000",
		LastWriteRequestedSize: 4,
		LastWriteSentSize:      3,
		ReadPending:            1,
	}, status)
}
