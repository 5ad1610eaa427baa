// Package wrappers gives the repl its own handles on stdin and stdout. Closing a wrapper
// never closes the stream behind it, the compositor keeps logging and spawning with them
package wrappers

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("closed")

// closeFlag is shared by both wrappers. The repl closes them from the goroutine reading input
// while answers may still be written from another
type closeFlag struct {
	lock   sync.Mutex
	closed bool
}

func (f *closeFlag) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closed = true
	return nil
}

func (f *closeFlag) isClosed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}

// ReaderWrapper reads from the wrapped reader until closed. After that it reports the end of
// input, so a scanner on top of it stops like it would at the end of a file
type ReaderWrapper struct {
	closeFlag
	wrapped io.Reader
}

func NewReaderWrapper(wraps io.Reader) *ReaderWrapper {
	return &ReaderWrapper{wrapped: wraps}
}

func (r *ReaderWrapper) Read(p []byte) (int, error) {
	if r.isClosed() {
		return 0, io.EOF
	}
	return r.wrapped.Read(p)
}

// Stdio wraps the process' stdin and stdout
func Stdio() (*ReaderWrapper, *WriterWrapper) {
	return NewReaderWrapper(os.Stdin), NewWriterWrapper(os.Stdout)
}
