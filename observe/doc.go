// Package observe provides observability primitives for memoized calls.
//
// It is a pure instrumentation library: no memoization, no storage, no I/O
// beyond exporter setup. Consumers wire the observer into memo.Cache via
// memo.WithObserver.
package observe
