package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryResolutionOrder(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("first", 1)
	r.Register("second", 2)

	// No default yet: the first registration backs empty lookups.
	assert.Equal(t, 1, r.Resolve(""))

	r.SetDefault("second")
	assert.Equal(t, 2, r.Resolve(""))

	// An explicit name always beats the default.
	assert.Equal(t, 1, r.Resolve("first"))
}

func TestRegistryMissYieldsZero(t *testing.T) {
	r := NewRegistry[func() int]()
	assert.Nil(t, r.Resolve("absent"))
	assert.Nil(t, r.Resolve(""))
}

func TestRegistryDuplicateFirstWins(t *testing.T) {
	r := NewRegistry[int]()
	assert.True(t, r.Register("name", 1))
	assert.False(t, r.Register("name", 2))
	assert.Equal(t, 1, r.Resolve("name"))
}

func TestRegistryAlias(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("name", 1)
	assert.True(t, r.Alias("name", "other"))
	assert.Equal(t, 1, r.Resolve("other"))

	assert.False(t, r.Alias("absent", "x"))
	assert.False(t, r.Alias("name", "other")) // taken
}

func TestRegistryAliasCarriesNoTags(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("a", 1, "global")
	r.Alias("a", "b")

	assert.Equal(t, []string{"a"}, r.Tagged("global"))
	assert.False(t, r.HasTag("b", "global"))
	assert.Equal(t, 1, r.Resolve("b"))
}

func TestRegistryTags(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("a", 1, "global")
	r.Register("b", 2)
	r.Register("c", 3, "global", "hidden")

	assert.Equal(t, []string{"a", "c"}, r.Tagged("global"))
	assert.True(t, r.HasTag("c", "hidden"))
	assert.False(t, r.HasTag("b", "global"))
}

func TestObjectRegistryDuplicatePolicy(t *testing.T) {
	// BoxScriptObject is registered by TestMain; a second registration
	// of the same name must not replace it.
	assert.False(t, Objects.Register("BoxScriptObject", func() *ScriptObject {
		o := &ScriptObject{}
		o.AddFunction("imposter", nil)
		return o
	}))
	obj := NewScriptObject("BoxScriptObject")
	assert.NotNil(t, obj.Function("add"))
	assert.Nil(t, obj.Function("imposter"))
}
