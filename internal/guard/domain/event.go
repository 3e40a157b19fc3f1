package domain

import (
	"fmt"
	"strings"
	"time"
)

// LinkOpenEvent represents a single observation of a link being opened,
// as recorded in the desktop recently-used log.
//
// Notes:
// - URL is the raw href exactly as it appeared in the log record.
// - ObservedAt is the record's visited timestamp when present, otherwise
//   the time the watcher consumed the record.
// - Offset is the byte offset of the record's first byte in the source log.
//   The same URL opened again appears at a different offset and is a
//   distinct event.
type LinkOpenEvent struct {
	URL        string
	ObservedAt time.Time
	Offset     int64
}

// NewLinkOpenEvent constructs a LinkOpenEvent and validates its fields.
func NewLinkOpenEvent(url string, observedAt time.Time, offset int64) (LinkOpenEvent, error) {
	e := LinkOpenEvent{
		URL:        strings.TrimSpace(url),
		ObservedAt: observedAt,
		Offset:     offset,
	}
	if err := e.Validate(); err != nil {
		return LinkOpenEvent{}, err
	}
	return e, nil
}

// Validate checks the LinkOpenEvent for required fields.
func (e LinkOpenEvent) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("event url must not be empty")
	}
	if e.ObservedAt.IsZero() {
		return fmt.Errorf("event observedAt must be set")
	}
	if e.Offset < 0 {
		return fmt.Errorf("event offset must not be negative: %d", e.Offset)
	}
	return nil
}

// Key returns the uniqueness key of the observation.
func (e LinkOpenEvent) Key() string {
	return fmt.Sprintf("%s@%d", e.URL, e.Offset)
}
