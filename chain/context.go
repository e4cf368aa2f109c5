package chain

import "sort"

// Reserved keys written by the Chain during a run.
const (
	// CurrentStepKey holds the display name of the step being executed.
	CurrentStepKey = "_chain.current_step"
	// RunIDKey holds a unique identifier for the current Execute call.
	// Callers may seed it to correlate a run with their own records.
	RunIDKey = "_chain.run_id"
)

// Context is the key/value store shared by every step and middleware of a
// single run. It is not safe for concurrent use.
//
// The zero value is an empty, ready to use Context.
type Context struct {
	values map[string]any
}

// NewContext creates a Context seeded with a copy of values.
func NewContext(values map[string]any) *Context {
	c := &Context{values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Set stores value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Value returns the raw value stored under key.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present, regardless of the stored type.
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Delete removes key if present.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Clear removes every entry.
func (c *Context) Clear() {
	clear(c.values)
}

// Count returns the number of entries.
func (c *Context) Count() int {
	return len(c.values)
}

// Keys returns the stored keys in sorted order.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key as a T.
//
// A missing key and a value of a different type both yield (zero, false);
// use Has to tell them apart.
func Get[T any](c *Context, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	raw, ok := c.values[key]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOr is like Get but returns fallback when the value is absent.
func GetOr[T any](c *Context, key string, fallback T) T {
	if v, ok := Get[T](c, key); ok {
		return v
	}
	return fallback
}
