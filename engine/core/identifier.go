package core

import "github.com/google/uuid"

// InstanceID identifies one integration instance in logs and stats.
type InstanceID = uuid.UUID

// NewInstanceID returns a random identifier.
func NewInstanceID() InstanceID {
	return uuid.New()
}

// ShortID returns the first eight hex digits of an id, enough to tell instances apart in logs.
func ShortID(id InstanceID) string {
	return id.String()[:8]
}
