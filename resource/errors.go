package resource

import "errors"

var (
	// ErrRegistryFrozen is returned when registering after Freeze
	ErrRegistryFrozen = errors.New("registry is frozen")

	// ErrUnnamedType is returned when registering a type with an empty name
	ErrUnnamedType = errors.New("resource type has no name")
)
