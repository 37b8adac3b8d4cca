package script

import (
	"os"
)

// Engine wraps one interpreter session. A session is owned by a single
// logical thread: no concurrent calls into the same Engine. Evaluation
// is synchronous and cannot be interrupted from this layer.
//
// Interpreter failures never escape as panics or errors; Eval reports
// them through the delegate and returns false, leaving the engine ready
// for the next call.
type Engine interface {
	// Eval compiles and runs source text. Global-flagged script
	// objects are instantiated and bound into top-level scope first.
	// Registered afterEval listeners fire exactly once per call, in
	// registration order, with the success flag.
	Eval(source string) bool

	// EvalFile reads path and evaluates its contents.
	EvalFile(path string) bool

	// RaiseEvent calls the global onEvent handler with the event name,
	// if the script defined one. A missing handler is not an error.
	RaiseEvent(event string) bool

	// AfterEval appends a listener for the end of the next evaluation.
	// Listeners are one-shot: the list is cleared after firing.
	AfterEval(fn func(success bool))

	// PrintLastResult makes subsequent evaluations report their final
	// expression's textual value through the delegate.
	PrintLastResult()

	// Defer schedules fn to run once the current dispatch turn is
	// over, after the afterEval listeners. A capability object tearing
	// itself down from inside one of its own callbacks must go through
	// here instead of releasing inline.
	Defer(fn func())

	// Globals returns the global-flagged objects bound in the most
	// recent evaluation, in registration order.
	Globals() []*ScriptObject

	// Close releases interpreter state. The engine and every adapter
	// bound during its sessions are dead afterwards.
	Close()

	newInternal(obj *ScriptObject) InternalScriptObject
}

// engineBase carries the behavior every backend shares: the delegate,
// afterEval bookkeeping, global object setup and the deferred
// finalization queue.
type engineBase struct {
	self      Engine
	delegate  EngineDelegate
	internals InternalFactory
	printLast bool
	listeners []func(bool)
	globals   []*ScriptObject
	deferred  []func()
}

func (b *engineBase) setup(self Engine, delegate EngineDelegate, internals InternalFactory) {
	b.self = self
	b.delegate = delegate
	b.internals = internals
}

func (b *engineBase) newInternal(obj *ScriptObject) InternalScriptObject {
	if b.internals == nil {
		return nil
	}
	return b.internals(obj, b.self)
}

func (b *engineBase) AfterEval(fn func(bool)) {
	b.listeners = append(b.listeners, fn)
}

func (b *engineBase) PrintLastResult() {
	b.printLast = true
}

func (b *engineBase) Defer(fn func()) {
	b.deferred = append(b.deferred, fn)
}

func (b *engineBase) Globals() []*ScriptObject {
	return b.globals
}

// print routes text to the delegate, the sole output channel.
func (b *engineBase) print(text string) {
	if b.delegate != nil {
		b.delegate.OnConsolePrint(text)
	}
}

// initGlobals instantiates every script object type flagged "global"
// and binds it into interpreter scope under its derived identifier.
// The engine keeps the instances alive for the session.
func (b *engineBase) initGlobals() {
	b.globals = b.globals[:0]
	for _, key := range Objects.Tagged("global") {
		obj := NewScriptObject(key)
		if obj == nil {
			continue
		}
		obj.Bind(b.self)
		if in := obj.Internal(); in != nil {
			in.MakeGlobal(globalName(key))
		}
		b.globals = append(b.globals, obj)
	}
}

// execAfterEval fires the one-shot listeners in registration order,
// then drains the deferred queue. Deferred work scheduled while
// draining runs in the same turn.
func (b *engineBase) execAfterEval(success bool) {
	listeners := b.listeners
	b.listeners = nil
	for _, fn := range listeners {
		fn(success)
	}
	for len(b.deferred) > 0 {
		tasks := b.deferred
		b.deferred = nil
		for _, fn := range tasks {
			fn()
		}
	}
}

// evalFile reads path and hands the contents to Eval. A read failure
// is reported like any other evaluation failure.
func (b *engineBase) evalFile(path string) bool {
	source, err := os.ReadFile(path)
	if err != nil {
		b.print("Error: " + err.Error())
		b.execAfterEval(false)
		return false
	}
	return b.self.Eval(string(source))
}
