package script

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"
)

const (
	TypeEngineJs   = "js"
	jsInternalName = "JsScriptObject"
)

// RegisterJsEngine wires the goja backend into the registries. It is
// the default "js" engine; "javascript" aliases it.
func RegisterJsEngine() {
	Internals.Register(jsInternalName, newJsScriptObject)
	Engines.Register(TypeEngineJs, func() Engine { return NewJsEngine(NewDelegate("")) })
	Engines.Alias(TypeEngineJs, "javascript")
}

// JsEngine runs scripts on a goja runtime. Declared properties surface
// as real accessor pairs, so scripts read and assign them as plain
// fields.
type JsEngine struct {
	engineBase
	vm *goja.Runtime
}

func NewJsEngine(delegate EngineDelegate) *JsEngine {
	e := &JsEngine{vm: goja.New()}
	e.setup(e, delegate, Internals.Resolve(jsInternalName))
	return e
}

func (e *JsEngine) Eval(source string) bool {
	success := e.run(source)
	e.execAfterEval(success)
	return success
}

func (e *JsEngine) run(source string) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			e.print(fmt.Sprintf("Error: %v", r))
			success = false
		}
	}()
	e.initGlobals()
	result, err := e.vm.RunString(source)
	if err != nil {
		e.print(err.Error())
		return false
	}
	if e.printLast && result != nil && !goja.IsUndefined(result) {
		e.print(result.String())
	}
	return true
}

func (e *JsEngine) EvalFile(path string) bool {
	return e.evalFile(path)
}

func (e *JsEngine) RaiseEvent(event string) bool {
	return e.Eval(fmt.Sprintf(`if (typeof onEvent === "function") onEvent(%q);`, event))
}

func (e *JsEngine) Close() {
	e.vm = nil
}

func (e *JsEngine) toValue(v goja.Value) Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return Value{}
	}
	switch exported := v.Export().(type) {
	case bool:
		return NewBool(exported)
	case int64:
		return NewInt(exported)
	case float64:
		return NewFloat(exported)
	case string:
		return NewString(exported)
	default:
		slog.Warn("unsupported js value mapped to undefined", "type", fmt.Sprintf("%T", exported))
		return Value{}
	}
}

func (e *JsEngine) jsValue(v Value) goja.Value {
	switch v.Kind() {
	case KindInt:
		return e.vm.ToValue(v.Int())
	case KindDouble:
		return e.vm.ToValue(v.Float())
	case KindString:
		return e.vm.ToValue(v.Str())
	case KindObject:
		obj := v.Object()
		if obj == nil {
			return goja.Undefined()
		}
		in, ok := obj.Internal().(*jsScriptObject)
		if !ok {
			obj.Bind(e)
			in, ok = obj.Internal().(*jsScriptObject)
			if !ok {
				return goja.Undefined()
			}
		}
		return in.makeLocal()
	default:
		return goja.Undefined()
	}
}

// jsScriptObject realizes one ScriptObject as a goja object. Each bound
// function closes over its originating Function; accessor pairs are
// installed through property descriptors, mirroring how the engine
// itself defines getters and setters.
type jsScriptObject struct {
	obj    *ScriptObject
	engine *JsEngine
}

func newJsScriptObject(obj *ScriptObject, e Engine) InternalScriptObject {
	return &jsScriptObject{obj: obj, engine: e.(*JsEngine)}
}

func (so *jsScriptObject) callFunc(fn *Function) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(arg))
		}
		fn.Invoke()
		return so.engine.jsValue(fn.Result)
	}
}

func (so *jsScriptObject) makeLocal() *goja.Object {
	vm := so.engine.vm
	object := vm.NewObject()
	for name, fn := range so.obj.Functions() {
		object.Set(name, vm.ToValue(so.callFunc(fn)))
	}
	for name, p := range so.obj.Properties() {
		getter := vm.ToValue(so.callFunc(&p.Getter))
		setter := vm.ToValue(so.callFunc(&p.Setter))
		object.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE)
	}
	return object
}

func (so *jsScriptObject) MakeGlobal(name string) {
	so.engine.vm.Set(name, so.makeLocal())
}
