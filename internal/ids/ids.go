// Package ids provides the task id generators selectable from config.
package ids

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Kind names an id generator.
type Kind string

const (
	KindULID Kind = "ulid"
	KindUUID Kind = "uuid"
)

// ParseKind maps a config value to a generator kind. Empty means ULID.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", KindULID:
		return KindULID, nil
	case KindUUID:
		return KindUUID, nil
	default:
		return "", fmt.Errorf("unknown id generator %q", raw)
	}
}

// New returns a generator func of the requested kind.
func New(kind Kind, now func() time.Time) func() string {
	if kind == KindUUID {
		return NewUUID
	}
	return NewULIDGenerator(now)
}

// NewUUID returns a random UUIDv4 string.
func NewUUID() string {
	return uuid.NewString()
}

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

// NewULIDGenerator returns a generator of lexically sortable ULIDs that stay
// strictly increasing within the same millisecond.
func NewULIDGenerator(now func() time.Time) func() string {
	if now == nil {
		now = time.Now
	}
	var mu sync.Mutex
	entropy := ulid.Monotonic(randReader{}, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id, err := ulid.New(ulid.Timestamp(now()), entropy)
		if err != nil {
			// monotonic entropy overflowed inside one millisecond
			return uuid.NewString()
		}
		return id.String()
	}
}
