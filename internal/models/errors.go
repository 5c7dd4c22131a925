package models

import "errors"

// ErrDuplicateKey is reported by every store when a unique field collides.
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError names the colliding field ("email", "serial_number").
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }
