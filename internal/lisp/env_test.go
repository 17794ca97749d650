package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvGetSetAssign(t *testing.T) {
	h := NewHeap()
	global := h.NewEnv(Nil)
	x := h.Intern("X")

	_, ok := EnvGet(global, x)
	assert.False(t, ok)

	h.EnvSet(global, x, MakeInt(1))
	v, ok := EnvGet(global, x)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.IntValue())

	h.EnvSet(global, x, MakeInt(2))
	v, _ = EnvGet(global, x)
	assert.Equal(t, int64(2), v.IntValue(), "EnvSet updates an existing binding in place")
}

func TestEnvSetNeverAscends(t *testing.T) {
	h := NewHeap()
	global := h.NewEnv(Nil)
	x := h.Intern("X")
	h.EnvSet(global, x, MakeInt(1))

	child := h.NewEnv(global)
	h.EnvSet(child, x, MakeInt(99))

	v, _ := EnvGet(global, x)
	assert.Equal(t, int64(1), v.IntValue(), "EnvSet in a child frame must not mutate the parent's binding")

	v, _ = EnvGet(child, x)
	assert.Equal(t, int64(99), v.IntValue())
}

func TestEnvAssignAscends(t *testing.T) {
	h := NewHeap()
	global := h.NewEnv(Nil)
	x := h.Intern("X")
	h.EnvSet(global, x, MakeInt(1))

	child := h.NewEnv(global)
	ok := EnvAssign(child, x, MakeInt(42))
	assert.True(t, ok)

	v, _ := EnvGet(global, x)
	assert.Equal(t, int64(42), v.IntValue(), "EnvAssign mutates the binding in the frame where it was found")

	unknown := h.Intern("NEVER-DEFINED")
	assert.False(t, EnvAssign(child, unknown, MakeInt(0)))
}

func TestEnvParentVisibility(t *testing.T) {
	h := NewHeap()
	global := h.NewEnv(Nil)
	child := h.NewEnv(global)
	y := h.Intern("Y")

	_, ok := EnvGet(child, y)
	assert.False(t, ok)

	h.EnvSet(global, y, MakeInt(7))
	v, ok := EnvGet(child, y)
	require.True(t, ok, "bindings added to a parent frame after a child env exists are still visible")
	assert.Equal(t, int64(7), v.IntValue())
}
