// Package events fans gateway dispatch payloads out to local listeners.
package events

import (
	"encoding/json"
	"reflect"
	"sort"
	"sync"

	"github.com/danmuck/gatewayctl/internal/logging"
)

// Listener receives the raw payload of one dispatch event. Implementations
// must be comparable (pointer types) because membership is by identity.
type Listener interface {
	HandleEvent(name string, payload json.RawMessage)
}

// FuncListener adapts a function into a Listener. Use NewListener so each
// subscription gets a distinct, comparable identity.
type FuncListener struct {
	fn func(name string, payload json.RawMessage)
}

func NewListener(fn func(name string, payload json.RawMessage)) *FuncListener {
	return &FuncListener{fn: fn}
}

func (l *FuncListener) HandleEvent(name string, payload json.RawMessage) {
	if l == nil || l.fn == nil {
		return
	}
	l.fn(name, payload)
}

// Registry maps event names to listener sets.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]map[Listener]uint64
	seq    uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]map[Listener]uint64),
	}
}

// Subscribe adds l to the set for name. Subscribing the same listener twice
// is a no-op. l must be comparable; other listeners are logged and skipped.
func (r *Registry) Subscribe(name string, l Listener) {
	if !usable(l) {
		if l != nil {
			logging.Warnf("events.Registry.Subscribe event=%s skipped non-comparable listener %T", name, l)
		}
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byName[name]
	if !ok {
		set = make(map[Listener]uint64)
		r.byName[name] = set
	}
	if _, exists := set[l]; exists {
		return
	}
	r.seq++
	set[l] = r.seq
}

// Unsubscribe removes l from the set for name if present.
func (r *Registry) Unsubscribe(name string, l Listener) {
	if !usable(l) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byName[name]
	if !ok {
		return
	}
	delete(set, l)
	if len(set) == 0 {
		delete(r.byName, name)
	}
}

func usable(l Listener) bool {
	return l != nil && reflect.TypeOf(l).Comparable()
}

// Count returns the number of listeners subscribed to name.
func (r *Registry) Count(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName[name])
}

// Dispatch invokes every listener registered for name at the moment of the
// call, in subscription order. Changes made by listeners during the call
// apply to later dispatches only. It returns the number of listeners invoked.
func (r *Registry) Dispatch(name string, payload json.RawMessage) int {
	snapshot := r.snapshot(name)
	for _, l := range snapshot {
		l.HandleEvent(name, payload)
	}
	return len(snapshot)
}

func (r *Registry) snapshot(name string) []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byName[name]
	if len(set) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return set[out[i]] < set[out[j]]
	})
	return out
}
