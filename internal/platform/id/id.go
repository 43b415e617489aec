// Package id provides record identifier generation.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a new random record identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return value.String(), nil
}
