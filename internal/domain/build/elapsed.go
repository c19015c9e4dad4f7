package build

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Elapsed is a duration serialized as whole milliseconds, matching the
// duration_ms keys it is stored under.
type Elapsed struct {
	time.Duration
}

// ElapsedOf wraps d.
func ElapsedOf(d time.Duration) Elapsed {
	return Elapsed{Duration: d}
}

// MarshalJSON writes the duration in milliseconds.
func (e Elapsed) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, e.Milliseconds(), 10), nil
}

// UnmarshalJSON reads a millisecond count.
func (e *Elapsed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "~":
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration_ms %q: %w", data, err)
	}
	e.Duration = time.Duration(ms) * time.Millisecond
	return nil
}

// MarshalYAML writes the duration in milliseconds.
func (e Elapsed) MarshalYAML() ([]byte, error) {
	return e.MarshalJSON()
}

// UnmarshalYAML reads a millisecond count.
func (e *Elapsed) UnmarshalYAML(data []byte) error {
	return e.UnmarshalJSON(data)
}
