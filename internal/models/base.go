package models

import (
	googleuuid "github.com/google/uuid"
)

// newID generates a time-ordered UUIDv7 for use as a primary key, falling
// back to a random UUIDv4 if the clock-based generator fails.
func newID() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}
