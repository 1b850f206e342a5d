package models

import "errors"

// Custom errors
var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrMissingOdds          = errors.New("missing market odds")
	ErrNoValidEngines       = errors.New("no valid engine outputs")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownSource        = errors.New("unknown reliability source")
	ErrNotFound             = errors.New("record not found")
)
