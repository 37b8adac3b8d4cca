package script

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	TypeEngineGo   = "go"
	goInternalName = "GoScriptObject"
)

// RegisterGoEngine wires the yaegi backend into the registries.
func RegisterGoEngine() {
	Internals.Register(goInternalName, newGoScriptObject)
	Engines.Register(TypeEngineGo, func() Engine { return NewGoEngine(NewDelegate("")) })
}

// GoEngine runs Go source on a yaegi interpreter with the stdlib
// available. Globals are exposed through a dot-imported host package,
// so identifiers follow Go export rules: the object registered as
// "storage" surfaces as Storage, its members likewise capitalized.
// Properties follow the combined accessor form. Globals bind once per
// engine and persist across evaluations.
type GoEngine struct {
	engineBase
	i       *interp.Interpreter
	symbols map[string]reflect.Value
	bound   bool
}

func NewGoEngine(delegate EngineDelegate) *GoEngine {
	e := &GoEngine{
		i:       interp.New(interp.Options{}),
		symbols: map[string]reflect.Value{},
	}
	e.setup(e, delegate, Internals.Resolve(goInternalName))
	if err := e.i.Use(stdlib.Symbols); err != nil {
		slog.Warn("yaegi stdlib unavailable", "err", err)
	}
	return e
}

func (e *GoEngine) Eval(source string) bool {
	success := e.run(source)
	e.execAfterEval(success)
	return success
}

func (e *GoEngine) run(source string) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			e.print(fmt.Sprintf("Error: %v", r))
			success = false
		}
	}()
	e.bindGlobals()
	result, err := e.i.Eval(source)
	if err != nil {
		e.print(err.Error())
		return false
	}
	if e.printLast && result.IsValid() && result.CanInterface() {
		e.print(fmt.Sprint(result.Interface()))
	}
	return true
}

// bindGlobals realizes the global-flagged objects as a "host" package
// and dot-imports it, making them top-level identifiers.
func (e *GoEngine) bindGlobals() {
	if e.bound {
		return
	}
	e.bound = true
	e.initGlobals()
	if len(e.symbols) == 0 {
		return
	}
	symbols := map[string]map[string]reflect.Value{
		"host/host": e.symbols,
	}
	if err := e.i.Use(symbols); err != nil {
		slog.Warn("binding host symbols failed", "err", err)
		return
	}
	if _, err := e.i.Eval(`import . "host"`); err != nil {
		slog.Warn("importing host symbols failed", "err", err)
	}
}

func (e *GoEngine) EvalFile(path string) bool {
	return e.evalFile(path)
}

// RaiseEvent probes for the handler first because source has no
// conditional-call form at top level; a missing handler still runs a
// full evaluation pass so afterEval listeners fire either way.
func (e *GoEngine) RaiseEvent(event string) bool {
	if _, err := e.i.Eval("onEvent"); err != nil {
		return e.Eval("")
	}
	return e.Eval(fmt.Sprintf("onEvent(%q)", event))
}

func (e *GoEngine) Close() {
}

func (e *GoEngine) toValue(src interface{}) Value {
	switch v := src.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case bool:
		return NewBool(v)
	case int:
		return NewInt(int64(v))
	case int32:
		return NewInt(int64(v))
	case int64:
		return NewInt(v)
	case float32:
		return NewFloat(float64(v))
	case float64:
		return NewFloat(v)
	case string:
		return NewString(v)
	case *ScriptObject:
		return NewObject(v)
	default:
		slog.Warn("unsupported go value mapped to undefined", "type", fmt.Sprintf("%T", src))
		return Value{}
	}
}

func (e *GoEngine) goValue(v Value) interface{} {
	switch v.Kind() {
	case KindInt:
		return v.Int()
	case KindDouble:
		return v.Float()
	case KindString:
		return v.Str()
	case KindObject:
		obj := v.Object()
		if obj == nil {
			return nil
		}
		in, ok := obj.Internal().(*goScriptObject)
		if !ok {
			obj.Bind(e)
			in, ok = obj.Internal().(*goScriptObject)
			if !ok {
				return nil
			}
		}
		return in.makeLocal().Interface()
	default:
		return nil
	}
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// goScriptObject realizes one ScriptObject as a struct value built with
// reflect.StructOf, each member a variadic func field closing over its
// originating Function or ObjectProperty.
type goScriptObject struct {
	obj    *ScriptObject
	engine *GoEngine
}

func newGoScriptObject(obj *ScriptObject, e Engine) InternalScriptObject {
	return &goScriptObject{obj: obj, engine: e.(*GoEngine)}
}

type hostFunc func(args ...interface{}) interface{}

func (so *goScriptObject) callFunc(fn *Function) hostFunc {
	return func(args ...interface{}) interface{} {
		for _, a := range args {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(a))
		}
		fn.Invoke()
		return so.engine.goValue(fn.Result)
	}
}

func (so *goScriptObject) getset(p *ObjectProperty) hostFunc {
	return func(args ...interface{}) interface{} {
		fn := &p.Getter
		if len(args) > 0 {
			fn = &p.Setter
		}
		for _, a := range args {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(a))
		}
		fn.Invoke()
		return so.engine.goValue(fn.Result)
	}
}

func (so *goScriptObject) makeLocal() reflect.Value {
	var fields []reflect.StructField
	var impls []hostFunc
	funcType := reflect.TypeOf(hostFunc(nil))
	for name, fn := range so.obj.Functions() {
		fields = append(fields, reflect.StructField{Name: exportName(name), Type: funcType})
		impls = append(impls, so.callFunc(fn))
	}
	for name, p := range so.obj.Properties() {
		fields = append(fields, reflect.StructField{Name: exportName(name), Type: funcType})
		impls = append(impls, so.getset(p))
	}
	object := reflect.New(reflect.StructOf(fields)).Elem()
	for i, impl := range impls {
		object.Field(i).Set(reflect.ValueOf(impl))
	}
	return object
}

func (so *goScriptObject) MakeGlobal(name string) {
	so.engine.symbols[exportName(name)] = so.makeLocal()
}
