package memo

import "errors"

// Sentinel errors for memoization.
var (
	// ErrInvalidMode indicates an unrecognized cache-mode token. It is
	// surfaced before any hashing or storage I/O.
	ErrInvalidMode = errors.New("memo: invalid cache mode")

	// ErrCorruptEntry indicates a stored entry could not be decoded. It is
	// recovered internally: the entry is deleted, a warning is logged, and
	// the call proceeds as a miss.
	ErrCorruptEntry = errors.New("memo: corrupt cache entry")

	// ErrWrongType indicates a decoded value did not match the expected
	// result type of a typed memoized function.
	ErrWrongType = errors.New("memo: cached value has unexpected type")

	// ErrNilStore indicates New was given a nil store.
	ErrNilStore = errors.New("memo: store is nil")

	// ErrNilFunc indicates Wrap was given a nil target function.
	ErrNilFunc = errors.New("memo: target function is nil")
)
