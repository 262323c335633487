package memo

import (
	"fmt"

	"github.com/jonwraymond/memoops/keyer"
	"github.com/jonwraymond/memoops/observe"
	"github.com/jonwraymond/memoops/store"
)

// DefaultControlKey is the reserved keyword argument selecting the cache
// mode for a single call. The leading underscore keeps it out of key
// computation by the hasher's own rules, on top of explicit stripping.
const DefaultControlKey = "_cache"

// Cache binds a store, a key deriver, and a codec into a factory for
// memoized functions.
//
// Contract:
// - Concurrency: a Cache is immutable after New and safe for concurrent
//   use. See Func for per-call concurrency notes.
// - Errors: New fails fast on nil stores and invalid default modes.
type Cache struct {
	store      store.Store
	keyer      *keyer.Keyer
	codec      Codec
	mode       Mode
	controlKey string

	keyLength    int
	funcIdentity bool
	customKeyer  bool

	logger       observe.Logger
	observer     observe.Observer
	recorder     *observe.Recorder
	singleFlight bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithMode sets the default cache mode (ModeOn when unset).
func WithMode(m Mode) Option {
	return func(c *Cache) {
		c.mode = m
	}
}

// WithControlKey renames the reserved per-call mode argument. By
// convention the name keeps a leading underscore so it can never collide
// with a hashed keyword argument.
func WithControlKey(key string) Option {
	return func(c *Cache) {
		c.controlKey = key
	}
}

// WithKeyer replaces the key deriver entirely.
func WithKeyer(k *keyer.Keyer) Option {
	return func(c *Cache) {
		c.keyer = k
		c.customKeyer = true
	}
}

// WithKeyLength sets a truncated key digest length.
func WithKeyLength(n int) Option {
	return func(c *Cache) {
		c.keyLength = n
	}
}

// WithFuncIdentity includes function-valued arguments in key computation
// via their runtime symbol names.
func WithFuncIdentity() Option {
	return func(c *Cache) {
		c.funcIdentity = true
	}
}

// WithCodec replaces the result codec (GobCodec when unset).
func WithCodec(codec Codec) Option {
	return func(c *Cache) {
		c.codec = codec
	}
}

// WithLogger wires the warning channel (corrupt-entry notices, write
// debug logs). Defaults to a no-op logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithObserver instruments every call with the observer's tracer,
// metrics, and logger.
func WithObserver(obs observe.Observer) Option {
	return func(c *Cache) {
		c.observer = obs
	}
}

// WithSingleFlight collapses concurrent same-key computations into one
// target invocation. Off by default: without it two concurrent misses on
// the same key both compute and both write, last writer wins.
func WithSingleFlight() Option {
	return func(c *Cache) {
		c.singleFlight = true
	}
}

// New creates a Cache over st.
func New(st store.Store, opts ...Option) (*Cache, error) {
	if st == nil {
		return nil, ErrNilStore
	}

	c := &Cache{
		store:      st,
		codec:      GobCodec{},
		mode:       ModeOn,
		controlKey: DefaultControlKey,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, string(c.mode))
	}
	if c.keyLength < 0 {
		return nil, keyer.ErrInvalidLength
	}
	if c.keyer == nil {
		c.keyer = keyer.New(c.keyerOptions(c.keyLength)...)
	}
	if c.observer != nil {
		rec, err := observe.RecorderFromObserver(c.observer)
		if err != nil {
			return nil, fmt.Errorf("memo: building recorder: %w", err)
		}
		c.recorder = rec
		if c.logger == nil {
			c.logger = c.observer.Logger()
		}
	}
	if c.logger == nil {
		c.logger = observe.NopLogger()
	}
	return c, nil
}

// keyerOptions assembles keyer options for a given digest length.
func (c *Cache) keyerOptions(length int) []keyer.Option {
	var opts []keyer.Option
	if length > 0 {
		opts = append(opts, keyer.WithLength(length))
	}
	if c.funcIdentity {
		opts = append(opts, keyer.WithFuncIdentity())
	}
	return opts
}

// Store returns the root store this cache writes through.
func (c *Cache) Store() store.Store {
	return c.store
}

// Mode returns the default cache mode.
func (c *Cache) Mode() Mode {
	return c.mode
}
