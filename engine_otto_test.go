package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOttoValueRoundTrip(t *testing.T) {
	e := NewOttoEngine(&captureDelegate{})
	defer e.Close()

	for _, v := range []Value{
		NewInt(0),
		NewInt(-7),
		NewFloat(1.5),
		NewFloat(-0.25),
		NewString(""),
		NewString("héllo"),
	} {
		assert.Equal(t, v, e.toValue(e.ottoValue(v)))
	}
}

func TestOttoGetSetConvention(t *testing.T) {
	dlg := &captureDelegate{}
	e := NewOttoEngine(dlg)
	defer e.Close()

	e.PrintLastResult()
	require.True(t, e.Eval(`box.value(7); box.value() + 1`), "delegate said: %v", dlg.lines)
	assert.Equal(t, []string{"8"}, dlg.lines)
}

func TestOttoRuntimeError(t *testing.T) {
	dlg := &captureDelegate{}
	e := NewOttoEngine(dlg)
	defer e.Close()

	var calls []bool
	e.AfterEval(func(ok bool) { calls = append(calls, ok) })
	assert.False(t, e.Eval(`throw new Error("boom");`))
	assert.Equal(t, []bool{false}, calls)
	require.Len(t, dlg.lines, 1)
}
