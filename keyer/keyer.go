package keyer

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Keyer derives deterministic hex-digest keys from arbitrary value trees.
//
// Contract:
// - Determinism: same inputs must produce the same key, regardless of map
//   iteration order, in the same process and across processes on one platform.
// - Concurrency: a Keyer is stateless after construction and safe for
//   concurrent use.
//
// Floats are fed in their shortest round-trip textual form, so two
// numerically close floats with different representations hash differently.
// This is a known precision-limited equality, not a bug.
type Keyer struct {
	length       int
	funcIdentity bool
}

// Option configures a Keyer.
type Option func(*Keyer)

// WithLength requests a truncated digest of exactly n hex characters.
// When unset, Hash emits the full-width digest (32 characters).
func WithLength(n int) Option {
	return func(k *Keyer) {
		k.length = n
	}
}

// WithFuncIdentity includes function values in the hash via their runtime
// symbol name. By default function values contribute nothing, so two
// signatures differing only in an attached callback hash identically.
func WithFuncIdentity() Option {
	return func(k *Keyer) {
		k.funcIdentity = true
	}
}

// New creates a Keyer.
func New(opts ...Option) *Keyer {
	k := &Keyer{}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

var defaultKeyer = New()

// Hash derives a full-width key from values using a default Keyer.
func Hash(values ...any) (string, error) {
	return defaultKeyer.Hash(values...)
}

// Hash canonicalizes values and returns their hex digest.
//
// The full-width and truncated forms use distinct digest constructions
// (MD5 and SHAKE-128); each is internally deterministic but they do not
// agree with each other.
func (k *Keyer) Hash(values ...any) (string, error) {
	if k.length < 0 {
		return "", ErrInvalidLength
	}

	if k.length == 0 {
		h := md5.New()
		if err := k.feed(h, values); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	h := sha3.NewShake128()
	if err := k.feed(h, values); err != nil {
		return "", err
	}
	buf := make([]byte, (k.length+1)/2)
	if _, err := io.ReadFull(h, buf); err != nil {
		return "", fmt.Errorf("keyer: reading digest: %w", err)
	}
	return hex.EncodeToString(buf)[:k.length], nil
}

func (k *Keyer) feed(w io.Writer, values []any) error {
	wk := &walker{
		w:            w,
		funcIdentity: k.funcIdentity,
		seen:         make(map[uintptr]struct{}),
	}
	for _, v := range values {
		if err := wk.visit(reflect.ValueOf(v)); err != nil {
			return err
		}
	}
	return nil
}

// sep terminates every token fed to the digest so adjacent tokens cannot
// run together ("ab"+"c" vs "a"+"bc").
const sep = "\x1f"

// walker performs the canonical tree walk over a value, feeding tokens to
// the running digest. seen tracks pointer-like values along the current
// path to reject cycles.
type walker struct {
	w            io.Writer
	funcIdentity bool
	seen         map[uintptr]struct{}
}

func (wk *walker) token(s string) {
	io.WriteString(wk.w, s)
	io.WriteString(wk.w, sep)
}

var timeType = reflect.TypeOf(time.Time{})

func (wk *walker) visit(v reflect.Value) error {
	// nil interface contributes nothing
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		// canonical across zones
		wk.token(v.Interface().(time.Time).UTC().Format(time.RFC3339Nano))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		wk.token(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		wk.token(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		wk.token(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32:
		wk.token(strconv.FormatFloat(v.Float(), 'g', -1, 32))
	case reflect.Float64:
		wk.token(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64:
		wk.token(strconv.FormatComplex(v.Complex(), 'g', -1, 64))
	case reflect.Complex128:
		wk.token(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		wk.token(strconv.Quote(v.String()))
	case reflect.Func:
		if v.IsNil() || !wk.funcIdentity {
			return nil
		}
		wk.token(strconv.Quote(funcName(v)))
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return wk.descend(v.Pointer(), v.Type(), func() error {
			return wk.visit(v.Elem())
		})
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		return wk.descend(v.Pointer(), v.Type(), func() error {
			return wk.visitMap(v)
		})
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		return wk.descend(v.Pointer(), v.Type(), func() error {
			return wk.visitSeq(v)
		})
	case reflect.Array:
		return wk.visitSeq(v)
	case reflect.Struct:
		return wk.visitStruct(v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
	return nil
}

// descend runs fn with p marked as on-path, rejecting cycles.
func (wk *walker) descend(p uintptr, t reflect.Type, fn func() error) error {
	if _, ok := wk.seen[p]; ok {
		return fmt.Errorf("%w: cycle through %s", ErrUnsupportedType, t)
	}
	wk.seen[p] = struct{}{}
	err := fn()
	delete(wk.seen, p)
	return err
}

// visitMap feeds entries in sorted key order. Keys whose textual form
// starts with "_" are skipped entirely, key and value both.
func (wk *walker) visitMap(v reflect.Value) error {
	type entry struct {
		text string
		key  reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		text, err := keyText(iter.Key())
		if err != nil {
			return err
		}
		if strings.HasPrefix(text, "_") {
			continue
		}
		entries = append(entries, entry{text: text, key: iter.Key()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].text < entries[j].text })
	for _, e := range entries {
		wk.token(strconv.Quote(e.text))
		if err := wk.visit(v.MapIndex(e.key)); err != nil {
			return err
		}
	}
	return nil
}

// visitSeq feeds elements in natural order (order is significant).
// String elements starting with "_" are skipped; other elements never are.
func (wk *walker) visitSeq(v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		// byte payloads are fed raw with a length prefix, not element-wise
		b := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(b), v)
		wk.token(strconv.Itoa(len(b)))
		wk.w.Write(b)
		io.WriteString(wk.w, sep)
		return nil
	}
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		u := e
		for u.Kind() == reflect.Interface && !u.IsNil() {
			u = u.Elem()
		}
		if u.Kind() == reflect.String && strings.HasPrefix(u.String(), "_") {
			continue
		}
		if err := wk.visit(e); err != nil {
			return err
		}
	}
	return nil
}

// visitStruct treats a struct as a mapping over its exported fields,
// sorted by name. Unexported fields are excluded from the key.
func (wk *walker) visitStruct(v reflect.Value) error {
	t := v.Type()
	idx := make([]int, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return t.Field(idx[i]).Name < t.Field(idx[j]).Name })
	for _, i := range idx {
		wk.token(strconv.Quote(t.Field(i).Name))
		if err := wk.visit(v.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// keyText renders a map key for sorting and the underscore-skip check.
// Only keys with a stable textual form are supported.
func keyText(v reflect.Value) (string, error) {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: map key of type %s", ErrUnsupportedType, v.Type())
	}
}

// funcName resolves the runtime symbol name of a function value.
// The "-fm" suffix the runtime appends to method values is stripped so a
// method hashes the same whether bound or not.
func funcName(v reflect.Value) string {
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}
	return strings.TrimSuffix(fn.Name(), "-fm")
}
