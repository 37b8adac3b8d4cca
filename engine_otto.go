package script

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/robertkrimen/otto"
)

const (
	TypeEngineOtto   = "otto"
	ottoInternalName = "OttoScriptObject"
)

// RegisterOttoEngine wires the otto backend into the registries as an
// alternative JavaScript engine, selected explicitly by name.
func RegisterOttoEngine() {
	Internals.Register(ottoInternalName, newOttoScriptObject)
	Engines.Register(TypeEngineOtto, func() Engine { return NewOttoEngine(NewDelegate("")) })
}

// OttoEngine runs scripts on an otto interpreter. Otto has no host API
// for accessor properties, so declared properties follow the combined
// accessor form used by the Lua backend: obj.prop() reads, obj.prop(v)
// writes.
type OttoEngine struct {
	engineBase
	vm *otto.Otto
}

func NewOttoEngine(delegate EngineDelegate) *OttoEngine {
	e := &OttoEngine{vm: otto.New()}
	e.setup(e, delegate, Internals.Resolve(ottoInternalName))
	return e
}

func (e *OttoEngine) Eval(source string) bool {
	success := e.run(source)
	e.execAfterEval(success)
	return success
}

func (e *OttoEngine) run(source string) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			e.print(fmt.Sprintf("Error: %v", r))
			success = false
		}
	}()
	e.initGlobals()
	result, err := e.vm.Run(source)
	if err != nil {
		e.print(err.Error())
		return false
	}
	if e.printLast && result.IsDefined() {
		e.print(result.String())
	}
	return true
}

func (e *OttoEngine) EvalFile(path string) bool {
	return e.evalFile(path)
}

func (e *OttoEngine) RaiseEvent(event string) bool {
	return e.Eval(fmt.Sprintf(`if (typeof onEvent === "function") onEvent(%q);`, event))
}

func (e *OttoEngine) Close() {
	e.vm = nil
}

func (e *OttoEngine) toValue(v otto.Value) Value {
	switch {
	case v.IsUndefined() || v.IsNull():
		return Value{}
	case v.IsBoolean():
		b, _ := v.ToBoolean()
		return NewBool(b)
	case v.IsNumber():
		f, _ := v.ToFloat()
		if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return NewInt(int64(f))
		}
		return NewFloat(f)
	case v.IsString():
		return NewString(v.String())
	default:
		slog.Warn("unsupported otto value mapped to undefined", "class", v.Class())
		return Value{}
	}
}

func (e *OttoEngine) ottoValue(v Value) otto.Value {
	switch v.Kind() {
	case KindInt:
		ov, _ := e.vm.ToValue(v.Int())
		return ov
	case KindDouble:
		ov, _ := e.vm.ToValue(v.Float())
		return ov
	case KindString:
		ov, _ := e.vm.ToValue(v.Str())
		return ov
	case KindObject:
		obj := v.Object()
		if obj == nil {
			return otto.UndefinedValue()
		}
		in, ok := obj.Internal().(*ottoScriptObject)
		if !ok {
			obj.Bind(e)
			in, ok = obj.Internal().(*ottoScriptObject)
			if !ok {
				return otto.UndefinedValue()
			}
		}
		local := in.makeLocal()
		if local == nil {
			return otto.UndefinedValue()
		}
		return local.Value()
	default:
		return otto.UndefinedValue()
	}
}

// ottoScriptObject realizes one ScriptObject as an otto object whose
// entries close over the originating Function or ObjectProperty.
type ottoScriptObject struct {
	obj    *ScriptObject
	engine *OttoEngine
}

func newOttoScriptObject(obj *ScriptObject, e Engine) InternalScriptObject {
	return &ottoScriptObject{obj: obj, engine: e.(*OttoEngine)}
}

func (so *ottoScriptObject) callFunc(fn *Function) func(otto.FunctionCall) otto.Value {
	return func(call otto.FunctionCall) otto.Value {
		for _, arg := range call.ArgumentList {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(arg))
		}
		fn.Invoke()
		return so.engine.ottoValue(fn.Result)
	}
}

func (so *ottoScriptObject) getset(p *ObjectProperty) func(otto.FunctionCall) otto.Value {
	return func(call otto.FunctionCall) otto.Value {
		fn := &p.Getter
		if len(call.ArgumentList) > 0 {
			fn = &p.Setter
		}
		for _, arg := range call.ArgumentList {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(arg))
		}
		fn.Invoke()
		return so.engine.ottoValue(fn.Result)
	}
}

func (so *ottoScriptObject) makeLocal() *otto.Object {
	object, err := so.engine.vm.Object("({})")
	if err != nil {
		return nil
	}
	for name, fn := range so.obj.Functions() {
		object.Set(name, so.callFunc(fn))
	}
	for name, p := range so.obj.Properties() {
		object.Set(name, so.getset(p))
	}
	return object
}

func (so *ottoScriptObject) MakeGlobal(name string) {
	if local := so.makeLocal(); local != nil {
		so.engine.vm.Set(name, local)
	}
}
