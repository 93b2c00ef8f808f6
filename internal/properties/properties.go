package properties

import (
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Set is a flattened, immutable mapping from dot-qualified key to value.
// Exactly one value is associated with each key; whoever built the Set has
// already applied override precedence. Downstream component configuration
// consumes but never mutates it.
type Set struct {
	values map[string]string
}

// NewSet copies values into a fresh Set.
func NewSet(values map[string]string) *Set {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Set{values: m}
}

// refPrefix marks a value that resolves indirectly through another key,
// e.g. "$@schedkit.scheduler.instanceName".
const refPrefix = "$@"

// lookup resolves key to its raw value, following a single level of $@
// indirection. A dangling reference reads as absent.
func (s *Set) lookup(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok {
		return "", false
	}
	if strings.HasPrefix(v, refPrefix) {
		v, ok = s.values[strings.TrimPrefix(v, refPrefix)]
		if !ok {
			return "", false
		}
	}
	return v, true
}

// Has reports whether key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Len returns the number of keys.
func (s *Set) Len() int { return len(s.values) }

// GetString returns the value for key, or def when absent.
func (s *Set) GetString(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

// GetInt returns the value for key converted to int, or def when absent or
// not convertible.
func (s *Set) GetInt(key string, def int) int {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// GetBool returns the value for key converted to bool, or def when absent or
// not convertible.
func (s *Set) GetBool(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// GetDuration returns the value for key converted to a duration, or def when
// absent or not convertible. Plain integers are treated as milliseconds.
func (s *Set) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if n, err := cast.ToInt64E(v); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return def
	}
	return d
}

// Keys returns all keys in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Group returns the subset of entries under "prefix." with the prefix
// stripped from each key. Used to hand a component its own namespace, e.g.
// Group("schedkit.threadPool") yields {"threadCount": "10"}.
func (s *Set) Group(prefix string) *Set {
	prefix = strings.TrimSuffix(prefix, ".") + "."
	m := make(map[string]string)
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			m[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return &Set{values: m}
}

// Flatten returns a copy of the underlying map.
func (s *Set) Flatten() map[string]string {
	m := make(map[string]string, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}
