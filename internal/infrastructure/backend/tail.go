package backend

import (
	"strings"
	"sync"
)

// maxLineLength caps a single retained line.
const maxLineLength = 4096

// TailBuffer is an io.Writer that keeps only the last few lines written to it.
type TailBuffer struct {
	mu      sync.Mutex
	limit   int
	lines   []string
	partial strings.Builder
	dropped int
}

// NewTailBuffer creates a buffer retaining at most limit lines.
func NewTailBuffer(limit int) *TailBuffer {
	return &TailBuffer{limit: limit}
}

// Write implements io.Writer.
func (b *TailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit <= 0 {
		return len(p), nil
	}

	rest := string(p)
	for {
		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			b.appendPartial(rest)
			break
		}
		b.appendPartial(rest[:i])
		b.push(strings.TrimRight(b.partial.String(), "\r"))
		b.partial.Reset()
		rest = rest[i+1:]
	}
	return len(p), nil
}

func (b *TailBuffer) appendPartial(s string) {
	if room := maxLineLength - b.partial.Len(); room > 0 {
		if len(s) > room {
			s = s[:room]
		}
		b.partial.WriteString(s)
	}
}

func (b *TailBuffer) push(line string) {
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.dropped += len(b.lines) - b.limit
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

// Lines returns the retained lines, including an unterminated last line.
func (b *TailBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := append([]string(nil), b.lines...)
	if b.partial.Len() > 0 {
		out = append(out, b.partial.String())
		if len(out) > b.limit {
			out = out[len(out)-b.limit:]
		}
	}
	return out
}

// Dropped returns how many complete lines fell out of the window.
func (b *TailBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// String joins the retained lines with newlines.
func (b *TailBuffer) String() string {
	return strings.Join(b.Lines(), "\n")
}
