package lisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// preludeSource mirrors the LIST/PROGN/WHEN definitions library.lisp
// supplies at the top level, kept minimal here so evaluator tests don't
// depend on reading a file from disk.
const preludeSource = `
(DEFINE (LIST . ARGS) ARGS)
(DEFINE (LAST-OF LST) (IF (PAIR? (CDR LST)) (LAST-OF (CDR LST)) (CAR LST)))
(DEFINE (PROGN . BODY) (LAST-OF BODY))
(DEFINE (NULL? X) (EQ? X NIL))
(DEFMACRO (WHEN C . BODY) (LIST 'IF C (CONS 'PROGN BODY) 'NIL))
`

func newTestEvaluator(t *testing.T) (*Evaluator, Atom) {
	t.Helper()
	h := NewHeap()
	ev := NewEvaluator(h)
	env := NewGlobalEnv(h, ev)
	err := ev.LoadPrelude(preludeSource, env, func(e error) {
		t.Fatalf("prelude error: %v", e)
	})
	require.NoError(t, err)
	return ev, env
}

func evalString(t *testing.T, ev *Evaluator, env Atom, src string) Atom {
	t.Helper()
	expr, err := ev.Heap.Read(src)
	require.NoError(t, err, src)
	result, err := ev.Eval(expr, env)
	require.NoError(t, err, src)
	return result
}

func TestSelfEvaluation(t *testing.T) {
	ev, env := newTestEvaluator(t)
	assert.Equal(t, "42", Sprint(evalString(t, ev, env, "42")))
	assert.Equal(t, "NIL", Sprint(evalString(t, ev, env, "NIL")))
}

func TestQuoteDoesNotEvaluate(t *testing.T) {
	ev, env := newTestEvaluator(t)
	result := evalString(t, ev, env, "(QUOTE (A B C))")
	assert.Equal(t, "(A B C)", Sprint(result))
}

func TestArithmeticAndComparison(t *testing.T) {
	ev, env := newTestEvaluator(t)
	assert.Equal(t, "7", Sprint(evalString(t, ev, env, "(+ 1 (* 2 3))")))
	assert.Equal(t, "7", Sprint(evalString(t, ev, env, "((LAMBDA (X Y) (+ X Y)) 3 4)")))
	assert.Equal(t, "T", Sprint(evalString(t, ev, env, "(= 3 3)")))
	assert.Equal(t, "NIL", Sprint(evalString(t, ev, env, "(< 3 3)")))
}

func TestDefineAndRecursion(t *testing.T) {
	ev, env := newTestEvaluator(t)
	name := evalString(t, ev, env, "(DEFINE X 42)")
	assert.Equal(t, "X", Sprint(name))
	assert.Equal(t, "42", Sprint(evalString(t, ev, env, "X")))

	fname := evalString(t, ev, env, "(DEFINE (FACT N) (IF (= N 0) 1 (* N (FACT (- N 1)))))")
	assert.Equal(t, "FACT", Sprint(fname))
	assert.Equal(t, "120", Sprint(evalString(t, ev, env, "(FACT 5)")))
}

func TestLexicalCapture(t *testing.T) {
	ev, env := newTestEvaluator(t)
	// The closure captures `env`; a binding added to that same frame after
	// construction must be visible, but a binding the closure's own body
	// introduces must not leak to the caller's frame.
	evalString(t, ev, env, "(DEFINE (MAKE-ADDER) (LAMBDA (X) (+ X OFFSET)))")
	adder := evalString(t, ev, env, "(MAKE-ADDER)")
	require.True(t, adder.IsClosure())

	evalString(t, ev, env, "(DEFINE OFFSET 10)")
	assert.Equal(t, "15", Sprint(evalString(t, ev, env, "((MAKE-ADDER) 5)")))

	evalString(t, ev, env, "(DEFINE (LEAKY) (DEFINE INNER 1) INNER)")
	evalString(t, ev, env, "(LEAKY)")
	_, err := ev.Heap.Read("INNER")
	require.NoError(t, err)
	_, evalErr := ev.Eval(mustRead(t, ev, "INNER"), env)
	assert.Error(t, evalErr, "a DEFINE inside a closure body must not leak into the caller's environment")
}

func mustRead(t *testing.T, ev *Evaluator, src string) Atom {
	t.Helper()
	expr, err := ev.Heap.Read(src)
	require.NoError(t, err)
	return expr
}

func TestTailCallSafety(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE (LOOP N) (IF (= N 0) 'DONE (LOOP (- N 1))))")
	result := evalString(t, ev, env, "(LOOP 1000000)")
	assert.Equal(t, "DONE", Sprint(result))
}

func TestGCSoundness(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE X (CONS 1 (CONS 2 NIL)))")
	evalString(t, ev, env, "(CONS 3 4)") // garbage: unreachable after this statement

	before := ev.Heap.LiveCount()
	freed := ev.CollectGarbage(env)
	after := ev.Heap.LiveCount()

	assert.Greater(t, freed, 0)
	assert.Less(t, after, before)
	assert.Equal(t, "(1 2)", Sprint(evalString(t, ev, env, "X")), "values reachable from the top-level env survive GC unchanged")
}

func TestMacroExpansionWhen(t *testing.T) {
	ev, env := newTestEvaluator(t)
	name := evalString(t, ev, env, "(DEFMACRO (WHEN2 C . BODY) (LIST 'IF C (CONS 'PROGN BODY) 'NIL))")
	assert.Equal(t, "WHEN2", Sprint(name))
	assert.Equal(t, "1", Sprint(evalString(t, ev, env, "(WHEN2 T 1)")))
	assert.Equal(t, "NIL", Sprint(evalString(t, ev, env, "(WHEN2 NIL 1)")))

	// The prelude-style WHEN from preludeSource.
	assert.Equal(t, "1", Sprint(evalString(t, ev, env, "(WHEN T 1)")))
}

func TestQuasiquote(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE X 5)")
	result := evalString(t, ev, env, "`(A ,X C)")
	assert.Equal(t, "(A 5 C)", Sprint(result))

	evalString(t, ev, env, "(DEFINE YS (CONS 1 (CONS 2 NIL)))")
	spliced := evalString(t, ev, env, "`(START ,@YS END)")
	assert.Equal(t, "(START 1 2 END)", Sprint(spliced))
}

func TestApplySpecialFormAndPrimitive(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE (ADD2 A B) (+ A B))")
	assert.Equal(t, "7", Sprint(evalString(t, ev, env, "(APPLY ADD2 (LIST 3 4))")))

	// APPLY passed around as a first-class value, so the call goes through
	// the APPLY primitive binding rather than the special form.
	evalString(t, ev, env, "(DEFINE (CALL-IT G F XS) (G F XS))")
	assert.Equal(t, "7", Sprint(evalString(t, ev, env, "(CALL-IT APPLY ADD2 (LIST 3 4))")))
}

func TestErrorScenarios(t *testing.T) {
	ev, env := newTestEvaluator(t)

	result := evalString(t, ev, env, "(CAR NIL)")
	assert.Equal(t, "NIL", Sprint(result))

	_, err := ev.Eval(mustRead(t, ev, "(CAR 5)"), env)
	require.Error(t, err)
	lerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrType, lerr.Kind)

	_, err = ev.Eval(mustRead(t, ev, "Y"), env)
	require.Error(t, err)
	lerr, ok = err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrUnbound, lerr.Kind)
}

func TestLambdaArityError(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE F (LAMBDA (X Y) (+ X Y)))")
	_, err := ev.Eval(mustRead(t, ev, "(F 1)"), env)
	require.Error(t, err)
	lerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrArgs, lerr.Kind)
}

func TestSetBang(t *testing.T) {
	ev, env := newTestEvaluator(t)
	evalString(t, ev, env, "(DEFINE X 1)")
	name := evalString(t, ev, env, "(SET! X 2)")
	assert.Equal(t, "X", Sprint(name))
	assert.Equal(t, "2", Sprint(evalString(t, ev, env, "X")))

	// SET! ascends to the frame where the binding actually lives, unlike
	// DEFINE, which would shadow it in the child frame instead.
	evalString(t, ev, env, "(DEFINE (BUMP) (SET! X (+ X 1)))")
	evalString(t, ev, env, "(BUMP)")
	assert.Equal(t, "3", Sprint(evalString(t, ev, env, "X")))

	_, err := ev.Eval(mustRead(t, ev, "(SET! NEVER-DEFINED 1)"), env)
	require.Error(t, err)
	lerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrUnbound, lerr.Kind)
}

func TestImproperListsAreSyntaxErrors(t *testing.T) {
	ev, env := newTestEvaluator(t)

	_, err := ev.Eval(mustRead(t, ev, "(CONS 1 . 2)"), env)
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(*Error).Kind)

	_, err = ev.Eval(mustRead(t, ev, "(F . 5)"), env)
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(*Error).Kind)

	_, err = ev.Eval(mustRead(t, ev, "(LAMBDA (X) . 5)"), env)
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(*Error).Kind)

	_, err = ev.Eval(mustRead(t, ev, "(DEFMACRO (M) . 5)"), env)
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(*Error).Kind)

	_, err = ev.Eval(mustRead(t, ev, "(DEFINE (M) . 5)"), env)
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(*Error).Kind)
}
