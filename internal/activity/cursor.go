package activity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

const cursorSeparator = "|"

// ErrInvalidCursor menandakan token lanjutan tidak dapat dibaca.
var ErrInvalidCursor = errors.New("activity: invalid cursor")

// Cursor menunjuk posisi entri terakhir pada urutan timestamp menurun.
// ID dipakai sebagai pemecah seri untuk timestamp yang sama.
type Cursor struct {
	Timestamp time.Time
	ID        string
}

// CursorAfter membangun cursor dari entri terakhir sebuah halaman.
func CursorAfter(entry LogEntry) *Cursor {
	return &Cursor{Timestamp: entry.Timestamp, ID: entry.ID}
}

// Encode menghasilkan token opaque base64url.
func (c Cursor) Encode() string {
	combined := c.Timestamp.UTC().Format(time.RFC3339Nano) + cursorSeparator + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(combined))
}

// DecodeCursor membaca token hasil Encode. Token kosong menghasilkan nil.
func DecodeCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(raw), cursorSeparator, 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &Cursor{Timestamp: ts, ID: parts[1]}, nil
}
