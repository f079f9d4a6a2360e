package stream

import (
	"io"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestSerialConfigFromURL(t *testing.T) {
	parse := func(raw string) (SerialConfig, error) {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return SerialConfigFromURL(u)
	}

	conf, err := parse("serial:///dev/ttyAMA0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", conf.Device)
	assert.Equal(t, DefaultBaudRate, conf.BaudRate)
	assert.Equal(t, 8, conf.DataBits)
	assert.Equal(t, serial.NoParity, conf.Parity)
	assert.Equal(t, serial.OneStopBit, conf.StopBits)

	conf, err = parse("serial://COM4?baud=9600&parity=even&stopbits=2&databits=7")
	require.NoError(t, err)
	assert.Equal(t, "COM4", conf.Device)
	assert.Equal(t, 9600, conf.BaudRate)
	assert.Equal(t, 7, conf.DataBits)
	assert.Equal(t, serial.EvenParity, conf.Parity)
	assert.Equal(t, serial.TwoStopBits, conf.StopBits)

	for _, raw := range []string{
		"serial://",
		"serial:///dev/tty0?baud=fast",
		"serial:///dev/tty0?parity=mark",
		"serial:///dev/tty0?stopbits=3",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestOpenUnknownScheme(t *testing.T) {
	_, err := Open("carrier-pigeon://coop")
	assert.Error(t, err)
}

func TestPipe(t *testing.T) {
	a, b := Pipe()
	_, err := a.Write([]byte("S000D050V1.65R50.0E\n"))
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, err := b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "S000D050V1.65R50.0E\n", string(buf[:n]))

	_, err = b.Write([]byte("x"))
	require.NoError(t, err)
	n, err = a.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "x", string(buf[:n]))

	require.NoError(t, a.Close())
	_, err = a.Write([]byte("y"))
	assert.Equal(t, io.ErrClosedPipe, err)
	_, err = b.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestOpenPipeByName(t *testing.T) {
	s1, err := Open("pipe://bench")
	require.NoError(t, err)
	s2, err := Open("pipe://bench")
	require.NoError(t, err)
	defer s1.Close()
	defer s2.Close()

	_, err = s1.Write([]byte("hello\n"))
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err := s2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(buf[:n]))

	s3, err := Open("pipe://bench")
	require.NoError(t, err)
	defer s3.Close()
	assert.NotSame(t, s1, s3)
}
