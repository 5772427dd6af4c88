// Package uuid generates random identifiers for tasks and records.
package uuid

import "github.com/google/uuid"

// Generator mints version 4 UUID strings.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a random UUID string.
func (g *Generator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
