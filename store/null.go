package store

import "context"

// Null is a Store that never holds anything: reads always miss and writes
// are dropped. It is the "caching disabled" store.
type Null struct{}

// NewNull creates a null store.
func NewNull() *Null {
	return &Null{}
}

func (*Null) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	return false, nil
}

func (*Null) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

func (*Null) Put(_ context.Context, key string, _ []byte) error {
	return ValidateKey(key)
}

func (*Null) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return ErrNotFound
}

func (n *Null) Sub(name string) (Store, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return n, nil
}

func (*Null) Locate(key string) string {
	return "null://" + key
}

// Ensure Null implements Store
var _ Store = (*Null)(nil)
