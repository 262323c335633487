package memo

import (
	"context"
	"fmt"
	"reflect"
)

// Memoize is a typed façade over the dynamic core for single-argument
// functions. Bundle multiple inputs in a struct; struct hashing treats
// exported fields as a sorted mapping.
//
// The namespace derives from fn itself, not the adapter, so the cache
// layout matches a dynamic Wrap of the same function. A decoded value of
// the wrong concrete type reports ErrWrongType.
func Memoize[A, R any](c *Cache, fn func(context.Context, A) (R, error), opts ...WrapOption) (func(context.Context, A) (R, error), error) {
	if fn == nil {
		return nil, ErrNilFunc
	}

	module, name := funcIdentity(reflect.ValueOf(fn))
	base := []WrapOption{
		WithSubdir(truncate(module, MaxNamespaceComponent)),
		WithName(truncate(name, MaxNamespaceComponent)),
	}

	wrapped, err := c.Wrap(func(ctx context.Context, args []any, _ map[string]any) (any, error) {
		return fn(ctx, args[0].(A))
	}, append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, arg A) (R, error) {
		var zero R
		value, err := wrapped.Call(ctx, arg)
		if err != nil || value == nil {
			return zero, err
		}
		result, ok := value.(R)
		if !ok {
			return zero, fmt.Errorf("%w: got %T", ErrWrongType, value)
		}
		return result, nil
	}, nil
}
