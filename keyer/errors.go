package keyer

import "errors"

// Sentinel errors for key derivation.
var (
	// ErrUnsupportedType indicates a value with no atomic, sequence, mapping,
	// or field form was encountered. This is a correctness guard: there is no
	// silent fallback, since an incomplete key would break memoization.
	ErrUnsupportedType = errors.New("keyer: unsupported type")

	// ErrInvalidLength indicates a non-positive truncated digest length.
	ErrInvalidLength = errors.New("keyer: digest length must be positive")
)
