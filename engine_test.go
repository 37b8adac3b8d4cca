package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureDelegate struct {
	lines []string
}

func (d *captureDelegate) OnConsolePrint(text string) {
	d.lines = append(d.lines, text)
}

var teardownOrder []string

func TestMain(m *testing.M) {
	Setup()
	Objects.Register("BoxScriptObject", newBoxObject, "global")
	Objects.Register("TeardownScriptObject", newTeardownObject, "global")
	Objects.Register("LabelScriptObject", newLabelObject)
	os.Exit(m.Run())
}

func newBoxObject() *ScriptObject {
	o := &ScriptObject{}
	var stored Value
	o.AddProperty("value",
		func() Value { return stored },
		func(v Value) Value { stored = v; return v }).Doc("read+write scratch slot")
	o.AddFunction("add", func(f *Function) {
		f.Result = NewInt(f.Arg(0).Int() + f.Arg(1).Int())
	}).Doc("sum of two integers")
	return o
}

func newTeardownObject() *ScriptObject {
	o := &ScriptObject{}
	o.AddFunction("close", func(f *Function) {
		teardownOrder = append(teardownOrder, "body")
		if e := o.Engine(); e != nil {
			e.Defer(func() { teardownOrder = append(teardownOrder, "deferred") })
		}
	})
	return o
}

func newLabelObject() *ScriptObject {
	o := &ScriptObject{}
	var id, text Value
	o.AddProperty("id",
		func() Value { return id },
		func(v Value) Value { id = v; return v })
	o.AddProperty("text",
		func() Value { return text },
		func(v Value) Value { text = v; return v }).Doc("displayed text")
	return o
}

func boxOf(e Engine) *ScriptObject {
	for _, obj := range e.Globals() {
		if obj.Name() == "BoxScriptObject" {
			return obj
		}
	}
	return nil
}

type backendCase struct {
	name        string
	make        func(EngineDelegate) Engine
	setValue    string // stores the int 42 in box.value
	syntaxError string
	sum         string // evaluates to 4, for print-last-result
	onEvent     string // defines onEvent storing the event in box.value
	teardown    string // invokes teardown.close()
}

func backends() []backendCase {
	return []backendCase{
		{
			name:        TypeEngineLua,
			make:        func(d EngineDelegate) Engine { return NewLuaEngine(d) },
			setValue:    `box.value(42)`,
			syntaxError: `return return return`,
			sum:         `return 2+2`,
			onEvent:     `function onEvent(e) box.value(e) end`,
			teardown:    `teardown.close()`,
		},
		{
			name:        TypeEngineJs,
			make:        func(d EngineDelegate) Engine { return NewJsEngine(d) },
			setValue:    `box.value = 42;`,
			syntaxError: `function (`,
			sum:         `2+2`,
			onEvent:     `function onEvent(e) { box.value = e; }`,
			teardown:    `teardown.close();`,
		},
		{
			name:        TypeEngineOtto,
			make:        func(d EngineDelegate) Engine { return NewOttoEngine(d) },
			setValue:    `box.value(42);`,
			syntaxError: `function (`,
			sum:         `2+2`,
			onEvent:     `function onEvent(e) { box.value(e); }`,
			teardown:    `teardown.close();`,
		},
		{
			name:        TypeEngineGo,
			make:        func(d EngineDelegate) Engine { return NewGoEngine(d) },
			setValue:    `Box.Value(42)`,
			syntaxError: `func {`,
			sum:         `2+2`,
			onEvent:     `func onEvent(e string) { Box.Value(e) }`,
			teardown:    `Teardown.Close()`,
		},
	}
}

func TestEvalEmptySource(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			var calls []bool
			e.AfterEval(func(ok bool) { calls = append(calls, ok) })

			assert.True(t, e.Eval(""))
			assert.Equal(t, []bool{true}, calls)
			assert.Empty(t, dlg.lines)
		})
	}
}

func TestEvalSyntaxError(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			var calls []bool
			e.AfterEval(func(ok bool) { calls = append(calls, ok) })

			assert.False(t, e.Eval(bc.syntaxError))
			assert.Equal(t, []bool{false}, calls)
			assert.Len(t, dlg.lines, 1)
		})
	}
}

func TestEvalFailureLeavesEngineReusable(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			assert.False(t, e.Eval(bc.syntaxError))
			assert.True(t, e.Eval(bc.setValue))
		})
	}
}

func TestGlobalExposure(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			require.True(t, e.Eval(bc.setValue), "delegate said: %v", dlg.lines)
			box := boxOf(e)
			require.NotNil(t, box)
			assert.Equal(t, int64(42), box.GetProperty("value").Int())
		})
	}
}

func TestPrintLastResult(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			e.PrintLastResult()
			require.True(t, e.Eval(bc.sum))
			assert.Equal(t, []string{"4"}, dlg.lines)
		})
	}
}

func TestRaiseEventWithoutHandler(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			// A missing handler is still a full evaluation pass, so
			// pending listeners fire.
			var calls []bool
			e.AfterEval(func(ok bool) { calls = append(calls, ok) })
			assert.True(t, e.RaiseEvent("close"))
			assert.Equal(t, []bool{true}, calls)
			assert.Empty(t, dlg.lines)
		})
	}
}

func TestRaiseEventWithHandler(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			require.True(t, e.Eval(bc.onEvent), "delegate said: %v", dlg.lines)
			require.True(t, e.RaiseEvent("close"))
			box := boxOf(e)
			require.NotNil(t, box)
			assert.Equal(t, "close", box.GetProperty("value").Str())
		})
	}
}

func TestAfterEvalListenersAreOneShot(t *testing.T) {
	dlg := &captureDelegate{}
	e := NewLuaEngine(dlg)
	defer e.Close()

	calls := 0
	e.AfterEval(func(bool) { calls++ })
	e.Eval("")
	e.Eval("")
	assert.Equal(t, 1, calls)
}

func TestAfterEvalOrder(t *testing.T) {
	dlg := &captureDelegate{}
	e := NewLuaEngine(dlg)
	defer e.Close()

	var order []int
	e.AfterEval(func(bool) { order = append(order, 1) })
	e.AfterEval(func(bool) { order = append(order, 2) })
	e.AfterEval(func(bool) { order = append(order, 3) })
	e.Eval("")
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDeferRunsAfterDispatchTurn(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			teardownOrder = nil
			dlg := &captureDelegate{}
			e := bc.make(dlg)
			defer e.Close()

			e.AfterEval(func(bool) { teardownOrder = append(teardownOrder, "after") })
			require.True(t, e.Eval(bc.teardown), "delegate said: %v", dlg.lines)
			assert.Equal(t, []string{"body", "after", "deferred"}, teardownOrder)
		})
	}
}

func TestEvalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.lua")
	require.NoError(t, os.WriteFile(path, []byte("return 2+2"), 0o644))

	dlg := &captureDelegate{}
	e := NewLuaEngine(dlg)
	defer e.Close()

	e.PrintLastResult()
	assert.True(t, e.EvalFile(path))
	assert.Equal(t, []string{"4"}, dlg.lines)
}

func TestEvalFileMissing(t *testing.T) {
	dlg := &captureDelegate{}
	e := NewLuaEngine(dlg)
	defer e.Close()

	var calls []bool
	e.AfterEval(func(ok bool) { calls = append(calls, ok) })
	assert.False(t, e.EvalFile(filepath.Join(t.TempDir(), "nope.lua")))
	assert.Equal(t, []bool{false}, calls)
	assert.Len(t, dlg.lines, 1)
}

func TestEngineRegistrySelection(t *testing.T) {
	assert.NotNil(t, NewEngine(TypeEngineLua))
	assert.NotNil(t, NewEngine("javascript")) // alias of "js"
	assert.Nil(t, NewEngine("cobol"))
}

func TestEnginePoolRecycles(t *testing.T) {
	pool := NewEnginePool(TypeEngineLua)
	defer pool.Shutdown()

	e := pool.Get()
	require.NotNil(t, e)
	pool.Put(e)
	assert.Same(t, e, pool.Get())
}

func TestEnginePoolUnknownType(t *testing.T) {
	pool := NewEnginePool("cobol")
	assert.Nil(t, pool.Get())
}
