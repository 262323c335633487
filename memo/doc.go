// Package memo turns arbitrary functions into disk-backed memoized
// functions.
//
// A Cache binds a store, a key deriver, and a codec; Wrap produces a
// cached function whose entries are addressed by a canonical hash of the
// call arguments and namespaced by module and function name. Per-call
// behavior is selected by a Mode (on, gen, off, update, clear,
// readonly) passed through a reserved keyword argument.
//
// The default codec is encoding/gob: result types outside gob's built-in
// set, and all concrete types stored behind interfaces, must be registered
// with gob.Register before first use. Common scalar and collection types
// are pre-registered.
package memo
