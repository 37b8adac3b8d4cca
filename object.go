package script

import (
	"sort"
	"strconv"
	"strings"
)

// Body is the native implementation of a declared function. It reads
// the call's marshalled arguments from f.Arguments and leaves its
// return value in f.Result; a body that sets nothing returns undefined.
type Body func(f *Function)

// Function is a native callable declared on a ScriptObject. The active
// backend fills Arguments in call order, invokes the body, then reads
// Result. A single Function must not be re-entered while a prior
// invocation's arguments are still pending.
type Function struct {
	Name      string
	Arguments []Value
	Result    Value
	body      Body
	doc       string
}

// Invoke runs the body against the currently collected arguments, then
// clears them for the next call. Result defaults to undefined.
func (f *Function) Invoke() {
	f.Result = Value{}
	if f.body != nil {
		f.body(f)
	}
	f.Arguments = nil
}

// Arg returns the i-th argument, or undefined when the call supplied
// fewer values.
func (f *Function) Arg(i int) Value {
	if i < 0 || i >= len(f.Arguments) {
		return Value{}
	}
	return f.Arguments[i]
}

// Doc attaches a human-readable description, for tooling only.
func (f *Function) Doc(text string) *Function {
	f.doc = text
	return f
}

func (f *Function) Documentation() string { return f.doc }

// ObjectProperty pairs a zero-argument getter with a one-argument
// setter. Both are ordinary Functions and follow the same invocation
// contract.
type ObjectProperty struct {
	Getter Function
	Setter Function
	doc    string
}

// Doc attaches a human-readable description, for tooling only.
func (p *ObjectProperty) Doc(text string) *ObjectProperty {
	p.doc = text
	return p
}

func (p *ObjectProperty) Documentation() string { return p.doc }

// InternalScriptObject is the backend-specific adapter realizing one
// ScriptObject inside one interpreter. Its engine-native handles are
// only valid while the owning engine session is alive.
type InternalScriptObject interface {
	// MakeGlobal binds the realized object under name in the
	// interpreter's top-level scope.
	MakeGlobal(name string)
}

// InternalFactory builds the adapter tying obj to a live engine.
type InternalFactory func(obj *ScriptObject, e Engine) InternalScriptObject

// typeNameSuffix is appended by type-name normalization; script sources
// reference registered types by their unsuffixed, case-insensitive name.
const typeNameSuffix = "ScriptObject"

// NormalizeTypeName maps a script-side type reference to its registry
// key: the whole name is lower-cased, the first character upper-cased,
// and the fixed suffix appended, so "lAbEl" and "Label" both become
// "LabelScriptObject".
func NormalizeTypeName(typeName string) string {
	if typeName == "" {
		return ""
	}
	s := strings.ToLower(typeName)
	return strings.ToUpper(s[:1]) + s[1:] + typeNameSuffix
}

// globalName derives the top-level identifier for a registered type:
// "StorageScriptObject" binds as "storage".
func globalName(key string) string {
	n := strings.TrimSuffix(key, typeNameSuffix)
	if n == "" {
		return key
	}
	return strings.ToLower(n[:1]) + n[1:]
}

// ScriptObject is a named capability surface: functions, properties and
// child objects declared by native code, independent of any
// interpreter. At most one InternalScriptObject realizes it inside the
// currently active engine.
type ScriptObject struct {
	name        string
	functions   map[string]*Function
	properties  map[string]*ObjectProperty
	children    map[string]*ScriptObject
	engine      Engine
	internal    InternalScriptObject
	nextChildID uint32
}

// Name is the registry key the object was created under.
func (o *ScriptObject) Name() string { return o.name }

// HasFlag reports whether the object's registered type carries flag.
func (o *ScriptObject) HasFlag(flag string) bool {
	return Objects.HasTag(o.name, flag)
}

// Engine returns the engine the object is bound to, nil while unbound.
func (o *ScriptObject) Engine() Engine { return o.engine }

// Internal returns the backend adapter, nil while unbound.
func (o *ScriptObject) Internal() InternalScriptObject { return o.internal }

// Bind ties the object to a live engine session, creating the
// engine-specific adapter. Rebinding to another engine replaces the
// adapter; the old one must not be used afterwards.
func (o *ScriptObject) Bind(e Engine) {
	o.engine = e
	o.internal = e.newInternal(o)
	for _, child := range o.children {
		child.Bind(e)
	}
}

// AddFunction declares a named function with a native body.
func (o *ScriptObject) AddFunction(name string, body Body) *Function {
	if o.functions == nil {
		o.functions = map[string]*Function{}
	}
	fn := &Function{Name: name, body: body}
	o.functions[name] = fn
	return fn
}

// AddProperty declares a named property from getter/setter closures.
// A nil setter makes the property read-only: writes are ignored.
func (o *ScriptObject) AddProperty(name string, get func() Value, set func(Value) Value) *ObjectProperty {
	if o.properties == nil {
		o.properties = map[string]*ObjectProperty{}
	}
	p := &ObjectProperty{}
	p.Getter = Function{Name: name, body: func(f *Function) {
		if get != nil {
			f.Result = get()
		}
	}}
	p.Setter = Function{Name: name, body: func(f *Function) {
		if set != nil {
			f.Result = set(f.Arg(0))
		}
	}}
	o.properties[name] = p
	return p
}

// Function looks up a declared function by name, nil if absent.
func (o *ScriptObject) Function(name string) *Function {
	return o.functions[name]
}

// Property looks up a declared property by name, nil if absent.
func (o *ScriptObject) Property(name string) *ObjectProperty {
	return o.properties[name]
}

// Functions exposes the declared functions for backend realization.
func (o *ScriptObject) Functions() map[string]*Function { return o.functions }

// Properties exposes the declared properties for backend realization.
func (o *ScriptObject) Properties() map[string]*ObjectProperty { return o.properties }

// Call invokes a declared function from the native side, marshalling
// nothing: args are passed as Values directly. Undefined on a miss.
func (o *ScriptObject) Call(name string, args ...Value) Value {
	fn := o.functions[name]
	if fn == nil {
		return Value{}
	}
	fn.Arguments = append(fn.Arguments, args...)
	fn.Invoke()
	return fn.Result
}

// GetProperty reads a declared property through its getter.
func (o *ScriptObject) GetProperty(name string) Value {
	p := o.properties[name]
	if p == nil {
		return Value{}
	}
	p.Getter.Invoke()
	return p.Getter.Result
}

// SetProperty writes a declared property through its setter.
func (o *ScriptObject) SetProperty(name string, v Value) {
	p := o.properties[name]
	if p == nil {
		return
	}
	p.Setter.Arguments = append(p.Setter.Arguments, v)
	p.Setter.Invoke()
}

// Get returns the child registered under id, nil if absent.
func (o *ScriptObject) Get(id string) *ScriptObject {
	return o.children[id]
}

// Add instantiates a child of the given script-side type name and
// stores it under id; an empty id gets a generated one. Returns nil
// when the type is empty, unregistered, or the id is already taken.
func (o *ScriptObject) Add(typeName, id string) *ScriptObject {
	if typeName == "" {
		return nil
	}
	if id != "" && o.Get(id) != nil {
		return nil
	}
	child := NewScriptObject(NormalizeTypeName(typeName))
	if child == nil {
		return nil
	}
	if o.engine != nil {
		child.Bind(o.engine)
	}
	cleanID := id
	if cleanID == "" {
		cleanID = strings.ToLower(typeName) + strconv.FormatUint(uint64(o.nextChildID), 10)
		o.nextChildID++
	}
	child.SetProperty("id", NewString(cleanID))
	if o.children == nil {
		o.children = map[string]*ScriptObject{}
	}
	o.children[cleanID] = child
	return child
}

// Remove drops the child stored under id. Callbacks running on behalf
// of that child must not call this directly; they schedule it through
// Engine.Defer so the child is never torn down mid-dispatch.
func (o *ScriptObject) Remove(id string) {
	delete(o.children, id)
}

// Describe lists every declared function and property with its
// documentation string, sorted by name.
func (o *ScriptObject) Describe() []string {
	var lines []string
	for name, fn := range o.functions {
		lines = append(lines, name+"(): "+fn.doc)
	}
	for name, p := range o.properties {
		lines = append(lines, name+": "+p.doc)
	}
	sort.Strings(lines)
	return lines
}
