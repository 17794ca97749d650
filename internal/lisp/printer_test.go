package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintAtoms(t *testing.T) {
	h := NewHeap()
	assert.Equal(t, "NIL", Sprint(Nil))
	assert.Equal(t, "42", Sprint(MakeInt(42)))
	assert.Equal(t, "-7", Sprint(MakeInt(-7)))
	assert.Equal(t, "FOO", Sprint(h.Intern("foo")))
}

func TestPrintLists(t *testing.T) {
	h := NewHeap()
	list := h.List(MakeInt(1), MakeInt(2), MakeInt(3))
	assert.Equal(t, "(1 2 3)", Sprint(list))

	dotted := h.Cons(MakeInt(1), MakeInt(2))
	assert.Equal(t, "(1 . 2)", Sprint(dotted))

	nested := h.List(h.Intern("A"), h.List(h.Intern("B"), h.Intern("C")))
	assert.Equal(t, "(A (B C))", Sprint(nested))
}

func TestPrintClosureAndMacro(t *testing.T) {
	ev, env := newTestEvaluator(t)

	closure := evalString(t, ev, env, "(LAMBDA (X Y) X)")
	assert.Equal(t, "#<CLOSURE (X Y)>", Sprint(closure))

	evalString(t, ev, env, "(DEFMACRO (M X) X)")
	mval, ok := EnvGet(env, ev.Heap.Intern("M"))
	require.True(t, ok, "expected M to be bound after DEFMACRO")
	assert.Equal(t, "#<MACRO (X)>", Sprint(mval))
}

func TestPrintBuiltin(t *testing.T) {
	ev, env := newTestEvaluator(t)
	car, ok := EnvGet(env, ev.Heap.Intern("CAR"))
	require.True(t, ok, "expected CAR to be bound")
	assert.Equal(t, "#<BUILTIN CAR>", Sprint(car))
}
