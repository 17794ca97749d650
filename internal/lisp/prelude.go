package lisp

// LoadPrelude reads every top-level expression out of source and evaluates
// each in env in order, per spec.md §6 "Prelude": a missing file is the
// caller's concern (LoadPrelude only parses and evaluates text it is
// handed); a per-expression evaluation error is reported to onError and
// evaluation continues with the next expression rather than aborting.
func (ev *Evaluator) LoadPrelude(source string, env Atom, onError func(error)) error {
	exprs, err := ev.Heap.ReadAll(source)
	if err != nil {
		// A malformed prelude still runs whatever parsed before the
		// syntax error; report it and evaluate that prefix.
		onError(err)
	}
	for _, expr := range exprs {
		if _, evalErr := ev.Eval(expr, env); evalErr != nil {
			onError(evalErr)
		}
	}
	return nil
}
