// Package store provides the byte-level key-value storage the memoizing
// layer reads and writes through.
//
// It defines the Store contract plus a filesystem implementation (Dir, the
// default), an in-memory implementation for tests and short-lived
// processes, and a null implementation that disables caching.
package store
