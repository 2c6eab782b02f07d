package core

import "github.com/google/uuid"

// NewID returns a random 128-bit identifier in canonical UUID text form.
func NewID() string {
	return uuid.NewString()
}
