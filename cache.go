package pumped

import (
	"runtime"
	"sync"
	"weak"
)

// ConversionRule picks a wrapper constructor for the entities it matches
type ConversionRule[E any, W any] struct {
	Name  string
	Match func(E) bool
	New   func(E) *W
}

// MatchType returns a predicate matching entities whose dynamic type
// implements or is K.
func MatchType[E any, K any]() func(E) bool {
	return func(e E) bool {
		_, ok := any(e).(K)
		return ok
	}
}

// WrapperCache hands out exactly one wrapper per live entity.
//
// Wrappers are held weakly: once nothing outside the cache references a
// wrapper it can be reclaimed, its entry is evicted, and the next Wrap of
// the same entity builds a new one. Wrappers must not be reachable from
// their entity, or they are never reclaimed.
//
// Entities are map keys, compared with ==. Use pointers or other
// comparable values; when E is an interface type, an entity whose dynamic
// type is not comparable (a slice, map or func) makes Wrap panic.
type WrapperCache[E comparable, W any] struct {
	mu       sync.Mutex
	rules    []ConversionRule[E, W]
	fallback func(E) *W
	entries  map[E]weak.Pointer[W]
}

type cacheEntry[E comparable, W any] struct {
	entity E
	ptr    weak.Pointer[W]
}

// NewWrapperCache creates a cache that builds wrappers with fallback when
// no rule matches.
func NewWrapperCache[E comparable, W any](fallback func(E) *W) *WrapperCache[E, W] {
	return &WrapperCache[E, W]{
		fallback: fallback,
		entries:  make(map[E]weak.Pointer[W]),
	}
}

// Prepend adds rules ahead of the existing ones, keeping their given order,
// so the most recently registered rules are tried first.
func (c *WrapperCache[E, W]) Prepend(rules ...ConversionRule[E, W]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]ConversionRule[E, W], 0, len(rules)+len(c.rules))
	next = append(next, rules...)
	c.rules = append(next, c.rules...)
}

// ClearRules drops every rule. Wrappers already cached stay cached.
func (c *WrapperCache[E, W]) ClearRules() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = nil
}

// Rules returns the names of the registered rules in match order
func (c *WrapperCache[E, W]) Rules() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Wrap returns the canonical wrapper for entity, building it on a miss.
func (c *WrapperCache[E, W]) Wrap(entity E) *W {
	c.mu.Lock()
	if w := c.lookup(entity); w != nil {
		c.mu.Unlock()
		return w
	}
	rules := c.rules
	c.mu.Unlock()

	// Constructors run unlocked; they may wrap other entities.
	w := c.construct(entity, rules)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing := c.lookup(entity); existing != nil {
		return existing
	}

	ptr := weak.Make(w)
	c.entries[entity] = ptr
	runtime.AddCleanup(w, c.evict, cacheEntry[E, W]{entity: entity, ptr: ptr})
	return w
}

// Lookup returns the cached wrapper for entity without building one
func (c *WrapperCache[E, W]) Lookup(entity E) (*W, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.lookup(entity)
	return w, w != nil
}

// Len returns the number of entities with a live wrapper
func (c *WrapperCache[E, W]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ptr := range c.entries {
		if ptr.Value() != nil {
			n++
		}
	}
	return n
}

func (c *WrapperCache[E, W]) lookup(entity E) *W {
	if ptr, ok := c.entries[entity]; ok {
		return ptr.Value()
	}
	return nil
}

func (c *WrapperCache[E, W]) construct(entity E, rules []ConversionRule[E, W]) *W {
	for _, rule := range rules {
		if rule.Match(entity) {
			return rule.New(entity)
		}
	}
	return c.fallback(entity)
}

// evict drops an entry once its wrapper has been reclaimed, unless the
// entity has been wrapped again since.
func (c *WrapperCache[E, W]) evict(e cacheEntry[E, W]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.entity]; ok && cur == e.ptr {
		delete(c.entries, e.entity)
	}
}
