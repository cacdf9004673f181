package events

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a point in time that decodes JSON numbers as nanoseconds since
// the Unix epoch and JSON strings as RFC 3339.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		return ts.parseString(s)
	}
	return ts.parseNanos(string(data))
}

// MarshalJSON encodes the timestamp as epoch nanoseconds, the same form
// UnmarshalJSON reads back.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, ts.UnixNano(), 10), nil
}

func (ts *Timestamp) parseString(s string) error {
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		ts.Time = t.UTC()
		return nil
	}
	return ts.parseNanos(s)
}

func (ts *Timestamp) parseNanos(s string) error {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		ts.Time = time.Unix(0, n).UTC()
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("timestamp: cannot parse %q", s)
	}
	ts.Time = time.Unix(0, int64(f)).UTC()
	return nil
}
