package mapper

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tuannm99/recordset/internal/codec"
	"github.com/tuannm99/recordset/internal/record"
)

// Cache holds compiled row routines for the life of the process. Entries are
// never evicted. Lookups of compiled keys take no lock; a miss locks only the
// target type's entry, so each key compiles once.
type Cache struct {
	resolver Resolver
	types    sync.Map // reflect.Type -> *typeEntry
	compiled atomic.Int64
}

type typeEntry struct {
	mu       sync.Mutex
	routines sync.Map // signature -> *routine
}

type CacheOption func(*Cache)

// WithResolver replaces DefaultResolver for every routine the cache compiles.
func WithResolver(r Resolver) CacheOption {
	return func(c *Cache) { c.resolver = r }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{resolver: DefaultResolver}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	defaultCache     *Cache
	defaultCacheOnce sync.Once
)

// Default returns the process-wide cache, created on first use.
func Default() *Cache {
	defaultCacheOnce.Do(func() { defaultCache = NewCache() })
	return defaultCache
}

// Compiled reports how many routines this cache has built.
func (c *Cache) Compiled() int64 { return c.compiled.Load() }

// signature identifies a schema shape: the strictness flag plus the ordered
// column names, each with its kind.
func signature(schema record.Schema, strict bool) string {
	var b strings.Builder
	if strict {
		b.WriteString("strict")
	} else {
		b.WriteString("loose")
	}
	for _, col := range schema.Cols {
		b.WriteByte(0)
		b.WriteString(col.Name)
		b.WriteByte(':')
		b.WriteString(col.Kind.String())
	}
	return b.String()
}

func (c *Cache) entry(t reflect.Type) *typeEntry {
	if v, ok := c.types.Load(t); ok {
		return v.(*typeEntry)
	}
	v, _ := c.types.LoadOrStore(t, &typeEntry{})
	return v.(*typeEntry)
}

func (c *Cache) routine(t reflect.Type, schema record.Schema, strict bool) (*routine, error) {
	key := signature(schema, strict)
	te := c.entry(t)
	if r, ok := te.routines.Load(key); ok {
		return r.(*routine), nil
	}

	te.mu.Lock()
	defer te.mu.Unlock()
	if r, ok := te.routines.Load(key); ok {
		return r.(*routine), nil
	}

	r, err := compile(t, schema, strict, c.resolver)
	if err != nil {
		return nil, err
	}
	te.routines.Store(key, r)
	c.compiled.Add(1)
	slog.Debug("mapper: compiled routine", "type", t.String(), "columns", schema.NumCols(), "strict", strict)
	return r, nil
}

type step struct {
	col    int
	name   string
	get    codec.Getter
	conv   convertFunc
	assign func(obj, v reflect.Value) error
}

// routine is the compiled row -> object conversion for one schema shape. It
// holds no per-call state.
type routine struct {
	typ   reflect.Type // struct type constructed per row
	ptr   bool         // target is *typ
	steps []step
}

func targetOf(t reflect.Type) (reflect.Type, bool, error) {
	if t.Kind() == reflect.Struct {
		return t, false, nil
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		return t.Elem(), true, nil
	}
	return nil, false, fmt.Errorf("mapper: %s: %w", t, record.ErrNoConstructor)
}

func compile(t reflect.Type, schema record.Schema, strict bool, resolve Resolver) (*routine, error) {
	st, ptr, err := targetOf(t)
	if err != nil {
		return nil, err
	}

	r := &routine{typ: st, ptr: ptr}
	for i, col := range schema.Cols {
		m, ok := resolve(st, col.Name)
		if !ok {
			continue
		}
		get, err := codec.GetterFor(col.Kind)
		if err != nil {
			return nil, fmt.Errorf("mapper: column %q: %w", col.Name, err)
		}
		conv, err := converter(col.Kind, m.Type, strict)
		if err != nil {
			return nil, fmt.Errorf("mapper: column %q -> %s.%s: %w", col.Name, st, m.Name, err)
		}
		r.steps = append(r.steps, step{col: i, name: col.Name, get: get, conv: conv, assign: m.Assign})
	}
	return r, nil
}
