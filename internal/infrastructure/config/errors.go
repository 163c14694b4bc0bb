package config

import "errors"

// Domain-specific errors for configuration.
var (
	// ErrNoTopics is returned when no topic filter was supplied.
	ErrNoTopics = errors.New("at least one topic is required")

	// ErrInvalidConfig is returned when one or more settings are invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)
