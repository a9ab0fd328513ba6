package host

import (
	"sort"
	"strings"
	"sync"
)

// Location models the host page's location.hash and its history.
// Listeners run synchronously on the goroutine that changed the hash, after
// the change is committed, and only when the value actually changed.
type Location struct {
	mu        sync.Mutex
	hash      string
	history   []string
	listeners map[int]func(hash string)
	nextID    int
}

// NewLocation starts at hash, e.g. "#docs/readme.txt" or "".
func NewLocation(hash string) *Location {
	return &Location{hash: normalize(hash), listeners: make(map[int]func(string))}
}

// normalize gives the browser's reading of a hash: "" for an empty
// fragment, otherwise '#' followed by the fragment.
func normalize(hash string) string {
	frag := strings.TrimPrefix(hash, "#")
	if frag == "" {
		return ""
	}
	return "#" + frag
}

// Hash returns the current hash including its '#', or "".
func (l *Location) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hash
}

// SetHash assigns the fragment, as `location.hash = value` does. A leading
// '#' in value is optional.
func (l *Location) SetHash(value string) {
	l.mu.Lock()
	next := normalize(value)
	if next == l.hash {
		l.mu.Unlock()
		return
	}
	l.history = append(l.history, l.hash)
	l.hash = next
	listeners := l.snapshot()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}

// Back returns to the previous hash. It reports false when there is no
// history.
func (l *Location) Back() bool {
	l.mu.Lock()
	if len(l.history) == 0 {
		l.mu.Unlock()
		return false
	}
	prev := l.history[len(l.history)-1]
	l.history = l.history[:len(l.history)-1]
	l.hash = prev
	listeners := l.snapshot()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(prev)
	}
	return true
}

// Watch returns the current hash and registers fn for later changes, as one
// atomic step.
func (l *Location) Watch(fn func(hash string)) (hash string, unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.listeners[id] = fn
	return l.hash, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// snapshot must be called with l.mu held.
func (l *Location) snapshot() []func(string) {
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(string), len(ids))
	for i, id := range ids {
		out[i] = l.listeners[id]
	}
	return out
}
