package script

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"reflect"

	"github.com/ailncode/gluaxmlpath"
	"github.com/ciaos/gluahttp"
	"github.com/cjoudrey/gluaurl"
	"github.com/yuin/gluamapper"
	"github.com/yuin/gluare"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
	luar "layeh.com/gopher-luar"
)

const (
	TypeEngineLua   = "lua"
	luaInternalName = "LuaScriptObject"
)

// RegisterLuaEngine wires the Lua backend into the registries.
func RegisterLuaEngine() {
	Internals.Register(luaInternalName, newLuaScriptObject)
	Engines.Register(TypeEngineLua, func() Engine { return NewLuaEngine(NewDelegate("")) })
}

// LuaEngine runs scripts on a gopher-lua state. Scripts can require the
// preloaded json, url, re, http and xmlpath modules.
type LuaEngine struct {
	engineBase
	vm *lua.LState
}

func NewLuaEngine(delegate EngineDelegate) *LuaEngine {
	e := &LuaEngine{vm: lua.NewState()}
	e.setup(e, delegate, Internals.Resolve(luaInternalName))
	luajson.Preload(e.vm)
	e.vm.PreloadModule("url", gluaurl.Loader)
	e.vm.PreloadModule("re", gluare.Loader)
	e.vm.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)
	e.vm.PreloadModule("xmlpath", gluaxmlpath.Loader)
	return e
}

func (e *LuaEngine) Eval(source string) bool {
	success := e.run(source)
	e.execAfterEval(success)
	return success
}

func (e *LuaEngine) run(source string) (success bool) {
	defer func() {
		if r := recover(); r != nil {
			e.print(fmt.Sprintf("Error: %v", r))
			success = false
		}
	}()
	e.initGlobals()
	fn, err := e.vm.LoadString(source)
	if err != nil {
		e.print(err.Error())
		return false
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		e.print(err.Error())
		return false
	}
	if e.printLast && e.vm.GetTop() > 0 {
		e.print(e.vm.Get(-1).String())
	}
	e.vm.SetTop(0)
	return true
}

func (e *LuaEngine) EvalFile(path string) bool {
	return e.evalFile(path)
}

func (e *LuaEngine) RaiseEvent(event string) bool {
	return e.Eval(fmt.Sprintf("if onEvent ~= nil then onEvent(%q) end", event))
}

func (e *LuaEngine) Close() {
	e.vm.Close()
}

// toValue marshals an interpreter value into the boundary union.
// Integral numbers narrow to INT so they round-trip exactly; tables,
// functions and userdata have no union equivalent.
func (e *LuaEngine) toValue(lv lua.LValue) Value {
	switch v := lv.(type) {
	case *lua.LNilType:
		return Value{}
	case lua.LBool:
		return NewBool(bool(v))
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
			return NewInt(int64(f))
		}
		return NewFloat(f)
	case lua.LString:
		return NewString(string(v))
	default:
		slog.Warn("unsupported lua value mapped to undefined", "type", lv.Type().String())
		return Value{}
	}
}

// pushValue marshals a boundary value back onto the stack, returning
// the number of values pushed (0 for undefined).
func (e *LuaEngine) pushValue(v Value) int {
	switch v.Kind() {
	case KindInt:
		e.vm.Push(lua.LNumber(v.Int()))
	case KindDouble:
		e.vm.Push(lua.LNumber(v.Float()))
	case KindString:
		e.vm.Push(lua.LString(v.Str()))
	case KindObject:
		obj := v.Object()
		if obj == nil {
			return 0
		}
		in, ok := obj.Internal().(*luaScriptObject)
		if !ok {
			obj.Bind(e)
			in, ok = obj.Internal().(*luaScriptObject)
			if !ok {
				return 0
			}
		}
		e.vm.Push(in.makeLocal())
	default:
		return 0
	}
	return 1
}

// RegisterValue exposes a plain Go value (struct, map, slice or scalar)
// as a global, bridged through gopher-luar. Maps and slices convert to
// tables element by element.
func (e *LuaEngine) RegisterValue(name string, src interface{}) {
	e.vm.SetGlobal(name, e.toLua(src))
}

func (e *LuaEngine) toLua(src interface{}) lua.LValue {
	if src == nil {
		return lua.LNil
	}
	switch reflect.ValueOf(src).Kind() {
	case reflect.Map:
		dst := e.vm.NewTable()
		srcVal := reflect.ValueOf(src)
		for _, key := range srcVal.MapKeys() {
			dst.RawSet(luar.New(e.vm, key.Interface()), e.toLua(srcVal.MapIndex(key).Interface()))
		}
		return dst
	case reflect.Slice:
		dst := e.vm.NewTable()
		srcVal := reflect.ValueOf(src)
		for i := 0; i < srcVal.Len(); i++ {
			dst.Append(e.toLua(srcVal.Index(i).Interface()))
		}
		return dst
	default:
		return luar.New(e.vm, src)
	}
}

func (e *LuaEngine) toGo(src lua.LValue) interface{} {
	switch v := src.(type) {
	case *lua.LUserData:
		return v.Value
	default:
		return gluamapper.ToGoValue(src, gluamapper.Option{NameFunc: func(s string) string { return s }})
	}
}

// CallGlobal invokes a global script function from the host, bridging
// arguments and results through the plain-value conversion. This sits
// outside the ScriptObject contract; hosts use it for script-defined
// entry points.
func (e *LuaEngine) CallGlobal(name string, retNum int, args ...interface{}) ([]interface{}, error) {
	luaArgs := make([]lua.LValue, len(args))
	for i := range args {
		luaArgs[i] = e.toLua(args[i])
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal(name),
		NRet:    retNum,
		Protect: true,
	}, luaArgs...); err != nil {
		return nil, err
	}
	rets := make([]interface{}, 0, retNum)
	for i := 0; i < retNum; i++ {
		rets = append([]interface{}{e.toGo(e.vm.Get(-1))}, rets...)
		e.vm.Pop(1)
	}
	return rets, nil
}

// luaScriptObject realizes one ScriptObject as a table whose entries
// are closures over the originating Function or ObjectProperty, the Go
// analog of the C closure-with-upvalue convention. Properties follow
// the combined accessor form: obj.prop() reads, obj.prop(v) writes.
type luaScriptObject struct {
	obj    *ScriptObject
	engine *LuaEngine
}

func newLuaScriptObject(obj *ScriptObject, e Engine) InternalScriptObject {
	return &luaScriptObject{obj: obj, engine: e.(*LuaEngine)}
}

func (so *luaScriptObject) callFunc(fn *Function) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		for i := 1; i <= n; i++ {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(L.Get(i)))
		}
		fn.Invoke()
		return so.engine.pushValue(fn.Result)
	}
}

func (so *luaScriptObject) getset(p *ObjectProperty) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		fn := &p.Getter
		if n > 0 {
			fn = &p.Setter
		}
		for i := 1; i <= n; i++ {
			fn.Arguments = append(fn.Arguments, so.engine.toValue(L.Get(i)))
		}
		fn.Invoke()
		return so.engine.pushValue(fn.Result)
	}
}

func (so *luaScriptObject) makeLocal() *lua.LTable {
	L := so.engine.vm
	t := L.NewTable()
	for name, fn := range so.obj.Functions() {
		L.SetField(t, name, L.NewFunction(so.callFunc(fn)))
	}
	for name, p := range so.obj.Properties() {
		L.SetField(t, name, L.NewFunction(so.getset(p)))
	}
	return t
}

func (so *luaScriptObject) MakeGlobal(name string) {
	so.engine.vm.SetGlobal(name, so.makeLocal())
}
