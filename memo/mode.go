package memo

import "fmt"

// Mode names a caching policy. Each mode fixes four behavioral facets:
// whether to read on start, write on success, delete unconditionally on
// start, and delete a possibly incompatible entry before a fresh write.
//
//	               read  write  delete-on-start  delete-incompatible
//	on              x     x      -                x
//	gen             x     x      -                -
//	off             -     -      -                -
//	update          -     x      -                x
//	clear           -     -      x                x
//	readonly        x     -      -                -
type Mode string

// The six cache modes.
const (
	// ModeOn is standard caching: read hits, write misses.
	ModeOn Mode = "on"
	// ModeGen caches like ModeOn but never drops existing entries.
	ModeGen Mode = "gen"
	// ModeOff disables caching entirely; no storage I/O occurs.
	ModeOff Mode = "off"
	// ModeUpdate recomputes and overwrites any existing entry.
	ModeUpdate Mode = "update"
	// ModeClear drops any existing entry, recomputes, and persists nothing.
	ModeClear Mode = "clear"
	// ModeReadonly reads existing entries but never writes new ones.
	ModeReadonly Mode = "readonly"
)

// Modes lists all valid modes.
var Modes = []Mode{ModeOn, ModeGen, ModeOff, ModeUpdate, ModeClear, ModeReadonly}

// facets is the single source of truth for mode behavior. No other policy
// logic exists.
type facets struct {
	read               bool
	write              bool
	deleteOnStart      bool
	deleteIncompatible bool
}

var modeFacets = map[Mode]facets{
	ModeOn:       {read: true, write: true, deleteIncompatible: true},
	ModeGen:      {read: true, write: true},
	ModeOff:      {},
	ModeUpdate:   {write: true, deleteIncompatible: true},
	ModeClear:    {deleteOnStart: true, deleteIncompatible: true},
	ModeReadonly: {read: true},
}

// ParseMode resolves a mode token. It accepts a Mode or a string and
// matches the six names exactly, case-sensitively. Anything else fails
// with ErrInvalidMode.
func ParseMode(v any) (Mode, error) {
	var m Mode
	switch t := v.(type) {
	case Mode:
		m = t
	case string:
		m = Mode(t)
	default:
		return "", fmt.Errorf("%w: token of type %T", ErrInvalidMode, v)
	}
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
	return m, nil
}

// Valid reports whether m is one of the six modes.
func (m Mode) Valid() bool {
	_, ok := modeFacets[m]
	return ok
}

// Read reports whether an existing entry is loaded on start.
func (m Mode) Read() bool {
	return modeFacets[m].read
}

// Write reports whether a freshly computed result is persisted.
func (m Mode) Write() bool {
	return modeFacets[m].write
}

// DeleteOnStart reports whether any existing entry is dropped
// unconditionally before the call.
func (m Mode) DeleteOnStart() bool {
	return modeFacets[m].deleteOnStart
}

// DeleteIncompatible reports whether a possibly stale entry is dropped
// before a fresh write. The deletion is conservative: no format or
// version compatibility check is performed.
func (m Mode) DeleteIncompatible() bool {
	return modeFacets[m].deleteIncompatible
}

func (m Mode) String() string {
	return string(m)
}
