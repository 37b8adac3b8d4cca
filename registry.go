package script

import (
	"log/slog"
)

// Registry is a named-factory table for one capability interface. It
// backs the runtime selection of engines, delegates, internal script
// object adapters and script object types.
//
// Registration happens through explicit calls at process startup (see
// Setup); once evaluation begins the registry is read-only, so lookups
// need no synchronization. Duplicate registrations keep the first entry
// and ignore the rest.
type Registry[T any] struct {
	entries map[string]entry[T]
	order   []string
	def     string
}

type entry[T any] struct {
	value T
	tags  map[string]bool
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: map[string]entry[T]{}}
}

// Register binds value under name, optionally tagging it. The first
// registration for a name wins; later ones are ignored and reported
// through the return value.
func (r *Registry[T]) Register(name string, value T, tags ...string) bool {
	if _, dup := r.entries[name]; dup {
		slog.Warn("duplicate registration ignored", "name", name)
		return false
	}
	e := entry[T]{value: value}
	if len(tags) > 0 {
		e.tags = map[string]bool{}
		for _, t := range tags {
			e.tags[t] = true
		}
	}
	r.entries[name] = e
	r.order = append(r.order, name)
	return true
}

// Alias makes alias resolve to the entry registered under name. Like
// Register, the first binding of alias wins. Tags stay with the
// original name only, so tag scans never report the same entry twice.
func (r *Registry[T]) Alias(name, alias string) bool {
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	if _, dup := r.entries[alias]; dup {
		return false
	}
	e.tags = nil
	r.entries[alias] = e
	r.order = append(r.order, alias)
	return true
}

// SetDefault changes the entry used when Resolve is called with an
// empty name.
func (r *Registry[T]) SetDefault(name string) {
	r.def = name
}

// Resolve looks up by explicit name, then the default, then the first
// registered entry. A miss yields the zero value, never an error;
// callers null-check before use.
func (r *Registry[T]) Resolve(name string) T {
	if name == "" {
		name = r.def
	}
	if name == "" && len(r.order) > 0 {
		name = r.order[0]
	}
	e, ok := r.entries[name]
	if !ok {
		var zero T
		return zero
	}
	return e.value
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// HasTag reports whether the named entry carries the given tag.
func (r *Registry[T]) HasTag(name, tag string) bool {
	return r.entries[name].tags[tag]
}

// Tagged returns the names registered with the given tag, in
// registration order.
func (r *Registry[T]) Tagged(tag string) []string {
	var names []string
	for _, name := range r.order {
		if r.entries[name].tags[tag] {
			names = append(names, name)
		}
	}
	return names
}

// Names returns every registered name in registration order.
func (r *Registry[T]) Names() []string {
	return append([]string(nil), r.order...)
}

// Process-wide registries, one per capability interface. They are
// populated by Setup (or by the host's own registration calls) before
// any evaluation starts.
var (
	Engines   = NewRegistry[EngineFactory]()
	Delegates = NewRegistry[DelegateFactory]()
	Internals = NewRegistry[InternalFactory]()
	Objects   = NewRegistry[ObjectFactory]()
)

type (
	EngineFactory   func() Engine
	DelegateFactory func() EngineDelegate
	ObjectFactory   func() *ScriptObject
)

// NewEngine resolves an engine factory by name (or the default for an
// empty name) and constructs a fresh session. Returns nil on a miss.
func NewEngine(name string) Engine {
	f := Engines.Resolve(name)
	if f == nil {
		return nil
	}
	return f()
}

// NewDelegate resolves a delegate by name, nil on a miss.
func NewDelegate(name string) EngineDelegate {
	f := Delegates.Resolve(name)
	if f == nil {
		return nil
	}
	return f()
}

// NewScriptObject instantiates the script object type registered under
// name, nil on a miss. The result is unbound until an engine picks it
// up (see ScriptObject.Bind).
func NewScriptObject(name string) *ScriptObject {
	f := Objects.Resolve(name)
	if f == nil {
		return nil
	}
	o := f()
	if o != nil {
		o.name = name
	}
	return o
}
