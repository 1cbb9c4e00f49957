package models

// Platform coordinates run from one end of the platform (0) to the other (100).
const (
	PlatformStart = 0.0
	PlatformEnd   = 100.0
)
