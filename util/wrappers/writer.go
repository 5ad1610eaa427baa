package wrappers

import (
	"io"

	"github.com/pkg/errors"
)

// WriterWrapper is the writing half of ReaderWrapper. Writes after Close fail with ErrClosed
type WriterWrapper struct {
	closeFlag
	wrapped io.Writer
}

func NewWriterWrapper(wraps io.Writer) *WriterWrapper {
	return &WriterWrapper{wrapped: wraps}
}

func (w *WriterWrapper) Write(p []byte) (int, error) {
	if w.isClosed() {
		return 0, errors.Wrapf(ErrClosed, "writing %d bytes", len(p))
	}
	return w.wrapped.Write(p)
}
