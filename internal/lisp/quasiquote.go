package lisp

// evalQuasiquote implements QUASIQUOTE/UNQUOTE/UNQUOTE-SPLICING as a
// depth-aware recursive walk over the template, per spec.md §4.6
// "Quasiquotation": nested QUASIQUOTE increases depth, a matching UNQUOTE
// decreases it, and only an UNQUOTE/UNQUOTE-SPLICING at depth 1 actually
// evaluates its operand — anything deeper is rebuilt as data so an inner
// quasiquote template is preserved verbatim.
func (ev *Evaluator) evalQuasiquote(expr, env, stack Atom, depth int) (Atom, error) {
	if !expr.IsPair() {
		return expr, nil
	}
	h := ev.Heap
	head := Car(expr)
	if head.IsSymbol() {
		switch {
		case Eq(head, ev.symUnquote):
			inner := Car(Cdr(expr))
			if depth == 1 {
				return ev.evalNested(inner, env, stack)
			}
			rebuilt, err := ev.evalQuasiquote(inner, env, stack, depth-1)
			if err != nil {
				return Nil, err
			}
			return h.List(ev.symUnquote, rebuilt), nil
		case Eq(head, ev.symQuasiquote):
			inner := Car(Cdr(expr))
			rebuilt, err := ev.evalQuasiquote(inner, env, stack, depth+1)
			if err != nil {
				return Nil, err
			}
			return h.List(ev.symQuasiquote, rebuilt), nil
		}
	}
	return ev.quasiquoteList(expr, env, stack, depth)
}

// quasiquoteList walks a list template element by element, splicing in
// the value of an UNQUOTE-SPLICING element at depth 1 rather than
// inserting it as a single item.
func (ev *Evaluator) quasiquoteList(list, env, stack Atom, depth int) (Atom, error) {
	if !list.IsPair() {
		return ev.evalQuasiquote(list, env, stack, depth)
	}
	h := ev.Heap
	item := Car(list)
	rest := Cdr(list)

	if item.IsPair() && Car(item).IsSymbol() && Eq(Car(item), ev.symUnquoteSplicing) {
		inner := Car(Cdr(item))
		if depth == 1 {
			spliced, err := ev.evalNested(inner, env, stack)
			if err != nil {
				return Nil, err
			}
			if !IsProperList(spliced) {
				return Nil, typeErr("UNQUOTE-SPLICING requires a list result")
			}
			tail, err := ev.quasiquoteList(rest, env, stack, depth)
			if err != nil {
				return Nil, err
			}
			return h.ConsList(ListToSlice(spliced), tail), nil
		}
		rebuiltInner, err := ev.evalQuasiquote(inner, env, stack, depth-1)
		if err != nil {
			return Nil, err
		}
		tail, err := ev.quasiquoteList(rest, env, stack, depth)
		if err != nil {
			return Nil, err
		}
		return h.Cons(h.List(ev.symUnquoteSplicing, rebuiltInner), tail), nil
	}

	head, err := ev.evalQuasiquote(item, env, stack, depth)
	if err != nil {
		return Nil, err
	}
	tail, err := ev.quasiquoteList(rest, env, stack, depth)
	if err != nil {
		return Nil, err
	}
	return h.Cons(head, tail), nil
}

// evalNested drives a full, independent Eval call from inside the
// quasiquote walk (itself running on the Go call stack, outside the main
// trampoline). It registers the outer trampoline's live state as a
// pending GC root for the duration, so a collection triggered by the
// nested call cannot free something only the suspended outer call still
// references.
func (ev *Evaluator) evalNested(expr, env, stack Atom) (Atom, error) {
	ev.pushPendingRoots(Roots{Expr: expr, Env: env, Stack: stack})
	defer ev.popPendingRoots()
	return ev.Eval(expr, env)
}
