package wrappers

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWrapper(t *testing.T) {
	r := NewReaderWrapper(strings.NewReader("abc"))
	buf := make([]byte, 2)

	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]))

	require.NoError(t, r.Close())
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, io.EOF, "closed readers look drained")
}

func TestWriterWrapper(t *testing.T) {
	var target bytes.Buffer
	w := NewWriterWrapper(&target)

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("again"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, "hello", target.String())
}

func TestClosedReaderEndsScanner(t *testing.T) {
	r := NewReaderWrapper(strings.NewReader("inspect windows\nquit\n"))
	scanner := bufio.NewScanner(r)

	require.True(t, scanner.Scan())
	assert.Equal(t, "inspect windows", scanner.Text())
	require.NoError(t, r.Close())
	for scanner.Scan() {
	}
	assert.NoError(t, scanner.Err())
}
