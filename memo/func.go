package memo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dustin/go-humanize"
	"github.com/jonwraymond/memoops/keyer"
	"github.com/jonwraymond/memoops/observe"
	"github.com/jonwraymond/memoops/store"
)

// MaxNamespaceComponent bounds derived namespace components so directory
// names respect storage path-length limits. Two functions whose module or
// name share the same 64-character prefix land in the same directory;
// this only affects layout, never correctness, because the entry key
// hashes the full function identity.
const MaxNamespaceComponent = 64

// TargetFunc is the dynamic call surface a Cache wraps: positional
// arguments plus keyword arguments, one result.
type TargetFunc func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Result is the per-call record returned by Do. It replaces mutable
// post-call state on the wrapped function, so concurrent callers each see
// their own outcome.
type Result struct {
	// Value is the call result, from cache or freshly computed.
	Value any

	// Cached reports whether Value came from the cache.
	Cached bool

	// Shared reports whether this call was collapsed into another
	// in-flight computation (single-flight only).
	Shared bool

	// ArgKey is the hash key derived from the call signature. Empty under
	// ModeOff.
	ArgKey string

	// FullKey is the namespace-qualified entry location. Empty under
	// ModeOff.
	FullKey string
}

// WrapOption configures a single wrapped function.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	subdir    string
	name      string
	keyLength int
	hasLength bool
}

// WithSubdir overrides the derived module namespace component.
func WithSubdir(name string) WrapOption {
	return func(cfg *wrapConfig) {
		cfg.subdir = name
	}
}

// WithName overrides the derived function-name namespace component.
func WithName(name string) WrapOption {
	return func(cfg *wrapConfig) {
		cfg.name = name
	}
}

// WithWrapKeyLength sets a per-function truncated key digest length.
func WithWrapKeyLength(n int) WrapOption {
	return func(cfg *wrapConfig) {
		cfg.keyLength = n
		cfg.hasLength = true
	}
}

// Func is a memoized function.
//
// Contract:
// - Concurrency: Do is safe for concurrent use; each call gets its own
//   Result. Last is last-call-wins under concurrency and exists for
//   single-threaded introspection; prefer Do's return value.
// - Errors: hashing failures and storage errors other than not-found
//   propagate unchanged; corrupt entries are dropped and treated as
//   misses.
type Func struct {
	cache  *Cache
	target TargetFunc
	keyer  *keyer.Keyer
	store  store.Store
	module string
	name   string
	meta   observe.FuncMeta
	flight *singleflight.Group

	mu    sync.Mutex
	last  Result
	stats Stats
}

// Wrap produces a memoized version of fn.
//
// The default namespace is (package path, function name) recovered from
// the function's runtime symbol, each derived component truncated to
// MaxNamespaceComponent characters. Overrides are used verbatim.
func (c *Cache) Wrap(fn TargetFunc, opts ...WrapOption) (*Func, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}

	module, name := funcIdentity(reflect.ValueOf(fn))
	cfg := wrapConfig{subdir: truncate(module, MaxNamespaceComponent), name: truncate(name, MaxNamespaceComponent)}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := c.store.Sub(cfg.subdir)
	if err != nil {
		return nil, fmt.Errorf("memo: deriving namespace %q: %w", cfg.subdir, err)
	}
	st, err = st.Sub(cfg.name)
	if err != nil {
		return nil, fmt.Errorf("memo: deriving namespace %q: %w", cfg.name, err)
	}

	k := c.keyer
	if cfg.hasLength {
		if cfg.keyLength <= 0 {
			return nil, keyer.ErrInvalidLength
		}
		k = keyer.New(c.keyerOptions(cfg.keyLength)...)
	}

	f := &Func{
		cache:  c,
		target: fn,
		keyer:  k,
		store:  st,
		module: cfg.subdir,
		name:   cfg.name,
		meta:   observe.FuncMeta{Namespace: cfg.subdir, Name: cfg.name},
	}
	if c.singleFlight {
		f.flight = &singleflight.Group{}
	}
	return f, nil
}

// Do invokes the memoized function with explicit positional and keyword
// arguments and returns the per-call Result.
//
// The reserved control key in kwargs selects the mode for this call; it
// is stripped before both hashing and forwarding, and the caller's map is
// never mutated.
func (f *Func) Do(ctx context.Context, args []any, kwargs map[string]any) (Result, error) {
	var call *observe.Call
	if f.cache.recorder != nil {
		ctx, call = f.cache.recorder.Begin(ctx, f.meta)
	}
	res, outcome, err := f.do(ctx, args, kwargs)
	if call != nil {
		call.End(ctx, outcome, err)
	}
	return res, err
}

// Call invokes the memoized function with positional arguments only.
func (f *Func) Call(ctx context.Context, args ...any) (any, error) {
	res, err := f.Do(ctx, args, nil)
	return res.Value, err
}

// CallKW invokes the memoized function with positional and keyword
// arguments.
func (f *Func) CallKW(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	res, err := f.Do(ctx, args, kwargs)
	return res.Value, err
}

// Last returns the most recent call's Result. Under concurrent use it
// reflects whichever call finished a state update last; Do's return value
// is the race-free form.
func (f *Func) Last() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Stats returns a snapshot of this function's cache counters.
func (f *Func) Stats() StatsSnapshot {
	return f.stats.Snapshot()
}

// Invalidate deletes the cache entry for a call signature without
// invoking the target. Absent entries are not an error.
func (f *Func) Invalidate(ctx context.Context, args []any, kwargs map[string]any) error {
	kw := stripKey(kwargs, f.cache.controlKey)
	key, err := f.keyer.Hash(f.module, f.name, args, kw)
	if err != nil {
		return err
	}
	return f.deleteEntry(ctx, key)
}

func (f *Func) do(ctx context.Context, args []any, kwargs map[string]any) (Result, observe.Outcome, error) {
	mode := f.cache.mode
	kw := kwargs
	if raw, ok := kwargs[f.cache.controlKey]; ok {
		m, err := ParseMode(raw)
		if err != nil {
			return Result{}, observe.OutcomeError, err
		}
		mode = m
		kw = stripKey(kwargs, f.cache.controlKey)
	}

	// Off bypasses hashing and storage entirely.
	if mode == ModeOff {
		res := Result{}
		f.setLast(res)
		value, err := f.target(ctx, args, kw)
		if err != nil {
			return res, observe.OutcomeError, err
		}
		res.Value = value
		f.setLast(res)
		return res, observe.OutcomeBypass, nil
	}

	key, err := f.keyer.Hash(f.module, f.name, args, kw)
	if err != nil {
		// Never a silent no-cache fallback: an incomplete key would break
		// memoization correctness.
		return Result{}, observe.OutcomeError, err
	}
	res := Result{ArgKey: key, FullKey: f.store.Locate(key)}
	// Keys are observable before any I/O, whatever the outcome.
	f.setLast(res)

	if f.flight == nil {
		out, outcome, err := f.execute(ctx, mode, res, args, kw)
		f.setLast(out)
		return out, outcome, err
	}

	// The flight key includes the mode so calls with different modes never
	// collapse into each other.
	v, err, shared := f.flight.Do(string(mode)+"\x00"+key, func() (any, error) {
		out, outcome, err := f.execute(ctx, mode, res, args, kw)
		return flightResult{res: out, outcome: outcome}, err
	})
	fr, ok := v.(flightResult)
	if !ok {
		return res, observe.OutcomeError, err
	}
	fr.res.Shared = shared
	f.setLast(fr.res)
	return fr.res, fr.outcome, err
}

type flightResult struct {
	res     Result
	outcome observe.Outcome
}

// execute runs the read-or-compute-then-write sequence for one call.
func (f *Func) execute(ctx context.Context, mode Mode, res Result, args []any, kw map[string]any) (Result, observe.Outcome, error) {
	key := res.ArgKey

	// clear: wipe stale state, recompute, never persist.
	if mode.DeleteOnStart() {
		if err := f.deleteEntry(ctx, key); err != nil {
			return res, observe.OutcomeError, err
		}
		f.stats.misses.Add(1)
		value, err := f.target(ctx, args, kw)
		if err != nil {
			return res, observe.OutcomeError, err
		}
		res.Value = value
		return res, observe.OutcomeMiss, nil
	}

	// update: drop possibly stale data before the fresh write. Read modes
	// skip this; their hit path supersedes it.
	if mode.DeleteIncompatible() && !mode.Read() {
		if err := f.deleteEntry(ctx, key); err != nil {
			return res, observe.OutcomeError, err
		}
	}

	outcome := observe.OutcomeMiss
	if mode.Read() {
		data, err := f.store.Get(ctx, key)
		switch {
		case err == nil:
			value, derr := f.cache.codec.Decode(data)
			if derr == nil {
				res.Value = value
				res.Cached = true
				f.stats.hits.Add(1)
				return res, observe.OutcomeHit, nil
			}
			// Corrupt entry: drop it, warn, proceed as a miss.
			f.stats.corrupt.Add(1)
			outcome = observe.OutcomeCorrupt
			if err := f.deleteEntry(ctx, key); err != nil {
				return res, observe.OutcomeError, err
			}
			f.cache.logger.WithFunc(f.meta).Warn(ctx, "dropping corrupt cache entry",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: derr.Error()},
			)
		case errors.Is(err, store.ErrNotFound):
			// miss
		default:
			return res, observe.OutcomeError, err
		}
	}

	f.stats.misses.Add(1)
	value, err := f.target(ctx, args, kw)
	if err != nil {
		// Errors are never cached.
		return res, observe.OutcomeError, err
	}
	res.Value = value

	if mode.Write() {
		data, err := f.cache.codec.Encode(value)
		if err != nil {
			return res, observe.OutcomeError, err
		}
		if err := f.store.Put(ctx, key, data); err != nil {
			return res, observe.OutcomeError, err
		}
		f.stats.writes.Add(1)
		f.cache.logger.WithFunc(f.meta).Debug(ctx, "persisted cache entry",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "size", Value: humanize.Bytes(uint64(len(data)))},
		)
	}
	return res, outcome, nil
}

// deleteEntry removes an entry, treating absence as success.
func (f *Func) deleteEntry(ctx context.Context, key string) error {
	err := f.store.Delete(ctx, key)
	if err == nil {
		f.stats.deletes.Add(1)
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (f *Func) setLast(res Result) {
	f.mu.Lock()
	f.last = res
	f.mu.Unlock()
}

// stripKey returns kwargs without key. The input map is never mutated.
func stripKey(kwargs map[string]any, key string) map[string]any {
	if _, ok := kwargs[key]; !ok {
		return kwargs
	}
	out := make(map[string]any, len(kwargs)-1)
	for k, v := range kwargs {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// funcIdentity recovers (module, name) from a function value's runtime
// symbol. Path separators in the package path become dots so the module
// is a single namespace component.
func funcIdentity(v reflect.Value) (string, string) {
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return "unknown", "unknown"
	}
	full := strings.TrimSuffix(fn.Name(), "-fm")
	module, name := full, full
	if idx := strings.LastIndex(full, "."); idx >= 0 {
		module, name = full[:idx], full[idx+1:]
	}
	module = strings.ReplaceAll(module, "/", ".")
	return module, name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
