package redaction

import (
	"bytes"
	"io"
	"sync"
)

// Writer scrubs secrets from everything written through it.
//
// Output is forwarded a line at a time so a secret split across two Write
// calls is still caught. Call Flush after the last write to forward a
// trailing partial line. Safe for concurrent use.
type Writer struct {
	underlying io.Writer
	redactor   *Redactor

	mu      sync.Mutex
	pending []byte
}

// NewWriter creates a redacting writer. A nil redactor passes data through.
func NewWriter(w io.Writer, r *Redactor) *Writer {
	return &Writer{
		underlying: w,
		redactor:   r,
	}
}

// Write implements io.Writer. It always reports len(p) on success, even when
// redaction changes the length or the data is held back until a newline.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.redactor == nil {
		return w.underlying.Write(p)
	}

	w.pending = append(w.pending, p...)
	i := bytes.LastIndexByte(w.pending, '\n')
	if i < 0 {
		return len(p), nil
	}

	complete := w.pending[:i+1]
	if _, err := io.WriteString(w.underlying, w.redactor.ScrubString(string(complete))); err != nil {
		return 0, err
	}
	w.pending = append(w.pending[:0], w.pending[i+1:]...)
	return len(p), nil
}

// Flush forwards any buffered partial line.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}
	_, err := io.WriteString(w.underlying, w.redactor.ScrubString(string(w.pending)))
	w.pending = w.pending[:0]
	return err
}
