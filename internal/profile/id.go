package profile

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// ReferencePrefix marks bundled sample records.
	ReferencePrefix = "sample-"

	// UserPrefix marks records created by submission or CSV import.
	UserPrefix = "profile-"
)

// IsReference reports whether id belongs to the reference namespace.
func IsReference(id string) bool {
	return strings.HasPrefix(id, ReferencePrefix)
}

// NewID generates a user-namespace id whose ULID encodes the creation instant.
func NewID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return UserPrefix + id.String(), nil
}
