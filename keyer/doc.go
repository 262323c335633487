// Package keyer derives deterministic cache keys from arbitrary call
// arguments.
//
// It canonicalizes a value tree (maps sorted by key, sequences in natural
// order, leading-underscore keys excluded) and feeds it to a running digest,
// so structurally equal arguments always produce the same key regardless of
// map iteration order.
package keyer
