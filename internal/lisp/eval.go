package lisp

// Evaluator drives the stack-frame trampoline of spec.md §4.6 over a single
// Heap. Special-form symbols are interned once at construction and matched
// by pointer identity thereafter, so user code can never shadow QUOTE, IF,
// and the rest by defining a binding of the same name (spec.md §4.6
// "Special forms are recognised structurally").
type Evaluator struct {
	Heap *Heap

	symQuote            Atom
	symIf               Atom
	symLambda           Atom
	symDefine           Atom
	symSetBang          Atom
	symDefmacro         Atom
	symApply            Atom
	symQuasiquote       Atom
	symUnquote          Atom
	symUnquoteSplicing  Atom
	symGC               Atom

	execBodyMarker        Atom
	execMacroBodyMarker   Atom
	execMacroExpandMarker Atom

	// pendingRoots accumulates the Roots of evaluations suspended on the Go
	// call stack by a nested Eval call (currently only evalQuasiquote's
	// UNQUOTE/UNQUOTE-SPLICING evaluation). collect unions these into every
	// cycle so a GC triggered inside the nested call cannot drop something
	// still reachable from the outer, suspended evaluation.
	pendingRoots []Roots
}

// NewEvaluator interns the fixed set of special-form symbols and returns a
// ready-to-use Evaluator over h.
func NewEvaluator(h *Heap) *Evaluator {
	return &Evaluator{
		Heap:                  h,
		symQuote:              h.Intern("QUOTE"),
		symIf:                 h.Intern("IF"),
		symLambda:             h.Intern("LAMBDA"),
		symDefine:             h.Intern("DEFINE"),
		symSetBang:            h.Intern("SET!"),
		symDefmacro:           h.Intern("DEFMACRO"),
		symApply:              h.Intern("APPLY"),
		symQuasiquote:         h.Intern("QUASIQUOTE"),
		symUnquote:            h.Intern("UNQUOTE"),
		symUnquoteSplicing:    h.Intern("UNQUOTE-SPLICING"),
		symGC:                 h.Intern("GC"),
		execBodyMarker:        MakeInt(-1),
		execMacroBodyMarker:   MakeInt(-2),
		execMacroExpandMarker: MakeInt(-3),
	}
}

// Eval evaluates expr in env, driving the explicit stack-frame machine of
// spec.md §4.6 until a final value (or error) is produced. Proper tail
// calls never grow this loop's state: a tail position always replaces the
// current frame rather than pushing a new one, so LOOP-style recursion
// (spec.md §8, testable property 5) runs in O(1) host stack regardless of
// iteration count.
func (ev *Evaluator) Eval(expr, env Atom) (Atom, error) {
	h := ev.Heap
	stack := Nil
	haveResult := false
	var result Atom

	for {
		if err := ev.maybeCollect(expr, env, stack); err != nil {
			return Nil, err
		}

		if !haveResult {
			switch {
			case expr.IsSymbol():
				v, ok := EnvGet(env, expr)
				if !ok {
					return Nil, unboundErr(expr.SymbolName())
				}
				result = v
				haveResult = true
				continue
			case !expr.IsPair():
				// Self-evaluating: integers, Nil, and callables.
				result = expr
				haveResult = true
				continue
			}

			op := Car(expr)
			args := Cdr(expr)

			if op.IsSymbol() {
				switch {
				case Eq(op, ev.symQuote):
					if ListLength(args) != 1 || !IsProperList(args) {
						return Nil, syntaxErr("QUOTE requires exactly one argument")
					}
					result = Car(args)
					haveResult = true
					continue
				case Eq(op, ev.symIf):
					if ListLength(args) != 3 || !IsProperList(args) {
						return Nil, syntaxErr("IF requires exactly three arguments")
					}
					cond := Car(args)
					rest := Cdr(args)
					frame := ev.newFrame(stack, env, rest)
					setFrameOp(frame, op)
					stack = frame
					expr = cond
					continue
				case Eq(op, ev.symLambda):
					arglist := Car(args)
					body := Cdr(args)
					if err := validateFormals(arglist); err != nil {
						return Nil, err
					}
					if body.IsNil() {
						return Nil, syntaxErr("LAMBDA requires a non-empty body")
					}
					if !IsProperList(body) {
						return Nil, syntaxErr("LAMBDA body must be a proper list")
					}
					result = h.NewClosure(env, arglist, body)
					haveResult = true
					continue
				case Eq(op, ev.symDefmacro):
					// DEFMACRO (NAME . FORMALS) BODY... — spec.md §4.6.1's
					// "DEFMACRO (name formals…) body…", the same
					// (name . formals) sugar DEFINE's function form uses.
					target := Car(args)
					name := Car(target)
					arglist := Cdr(target)
					body := Cdr(args)
					if !target.IsPair() || !name.IsSymbol() {
						return Nil, syntaxErr("DEFMACRO requires a (name . formals) target")
					}
					if err := validateFormals(arglist); err != nil {
						return Nil, err
					}
					if body.IsNil() {
						return Nil, syntaxErr("DEFMACRO requires a non-empty body")
					}
					if !IsProperList(body) {
						return Nil, syntaxErr("DEFMACRO body must be a proper list")
					}
					macro := h.NewMacro(env, arglist, body)
					h.EnvSet(env, name, macro)
					result = name
					haveResult = true
					continue
				case Eq(op, ev.symDefine):
					target := Car(args)
					if target.IsPair() {
						// (DEFINE (NAME . FORMALS) BODY...) sugar.
						name := Car(target)
						arglist := Cdr(target)
						body := Cdr(args)
						if !name.IsSymbol() {
							return Nil, syntaxErr("DEFINE requires a symbol name")
						}
						if err := validateFormals(arglist); err != nil {
							return Nil, err
						}
						if body.IsNil() {
							return Nil, syntaxErr("DEFINE requires a non-empty body")
						}
						if !IsProperList(body) {
							return Nil, syntaxErr("DEFINE body must be a proper list")
						}
						h.EnvSet(env, name, h.NewClosure(env, arglist, body))
						result = name
						haveResult = true
						continue
					}
					if !target.IsSymbol() {
						return Nil, syntaxErr("DEFINE requires a symbol or (name . formals) target")
					}
					if ListLength(args) != 2 || !IsProperList(args) {
						return Nil, syntaxErr("DEFINE requires exactly a symbol and a value expression")
					}
					valueExpr := Car(Cdr(args))
					frame := ev.newFrame(stack, env, Nil)
					setFrameOp(frame, op)
					setFramePending(frame, target)
					stack = frame
					expr = valueExpr
					continue
				case Eq(op, ev.symSetBang):
					target := Car(args)
					if !target.IsSymbol() {
						return Nil, syntaxErr("SET! requires a symbol target")
					}
					if ListLength(args) != 2 || !IsProperList(args) {
						return Nil, syntaxErr("SET! requires exactly a symbol and a value expression")
					}
					valueExpr := Car(Cdr(args))
					frame := ev.newFrame(stack, env, Nil)
					setFrameOp(frame, op)
					setFramePending(frame, target)
					stack = frame
					expr = valueExpr
					continue
				case Eq(op, ev.symQuasiquote):
					v, err := ev.evalQuasiquote(Car(args), env, stack, 1)
					if err != nil {
						return Nil, err
					}
					result = v
					haveResult = true
					continue
				case Eq(op, ev.symUnquote), Eq(op, ev.symUnquoteSplicing):
					return Nil, syntaxErr("%s not inside QUASIQUOTE", op.SymbolName())
				case Eq(op, ev.symGC):
					if !args.IsNil() {
						return Nil, syntaxErr("GC takes no arguments")
					}
					ev.collect(Roots{Expr: Nil, Env: env, Stack: stack})
					result = h.Intern("T")
					haveResult = true
					continue
				case Eq(op, ev.symApply):
					operandExprs := ListToSlice(args)
					if len(operandExprs) != 2 {
						return Nil, argsErr("APPLY expects exactly two arguments")
					}
					frame := ev.newFrame(stack, env, h.List(operandExprs[1]))
					setFrameOp(frame, ev.symApply)
					stack = frame
					expr = operandExprs[0]
					continue
				}
			}

			// Ordinary application: evaluate the operator first. spec.md
			// §4.6 drive-step rule 3: an improper argument list is a syntax
			// error, not a silently-truncated call.
			if !IsProperList(args) {
				return Nil, syntaxErr("improper argument list in application")
			}
			frame := ev.newFrame(stack, env, args)
			stack = frame
			expr = op
			continue
		}

		// haveResult == true: a value just came back; consult the frame
		// (if any) that is waiting on it.
		if stack.IsNil() {
			return result, nil
		}
		frame := stack
		op := frameOp(frame)

		switch {
		case Eq(op, ev.symIf):
			rest := framePending(frame)
			stack = frameParent(frame)
			if !result.IsNil() {
				expr = Car(rest)
			} else {
				branch := Cdr(rest)
				if branch.IsNil() {
					result = Nil
					haveResult = true
					continue
				}
				expr = Car(branch)
			}
			env = frameEnv(frame)
			haveResult = false
			continue

		case Eq(op, ev.symDefine):
			target := framePending(frame)
			h.EnvSet(frameEnv(frame), target, result)
			stack = frameParent(frame)
			result = target
			haveResult = true
			continue

		case Eq(op, ev.symSetBang):
			target := framePending(frame)
			if !EnvAssign(frameEnv(frame), target, result) {
				return Nil, unboundErr(target.SymbolName())
			}
			stack = frameParent(frame)
			result = target
			haveResult = true
			continue

		case Eq(op, ev.execBodyMarker):
			expr, env, stack = ev.stepBody(frame)
			haveResult = false
			continue

		case Eq(op, ev.execMacroBodyMarker):
			expr, env, stack = ev.stepMacroBody(frame)
			haveResult = false
			continue

		case Eq(op, ev.execMacroExpandMarker):
			callerEnv := framePending(frame)
			stack = frameParent(frame)
			expr = result
			env = callerEnv
			haveResult = false
			continue

		case op.IsNil():
			// result is the just-evaluated operator.
			callerEnv := frameEnv(frame)
			parentStack := frameParent(frame)
			if result.IsMacro() {
				nextExpr, nextEnv, nextStack, err := ev.enterMacroBody(result, framePending(frame), callerEnv, parentStack)
				if err != nil {
					return Nil, err
				}
				expr, env, stack = nextExpr, nextEnv, nextStack
				haveResult = false
				continue
			}
			if !result.IsCallable() {
				return Nil, typeErr("%s is not callable", describeAtom(result))
			}
			setFrameOp(frame, result)
			pending := framePending(frame)
			if pending.IsNil() {
				nextExpr, nextEnv, nextStack, immediate, res, err := ev.applyGeneric(result, Nil, parentStack)
				if err != nil {
					return Nil, err
				}
				if immediate {
					stack = nextStack
					result = res
					haveResult = true
				} else {
					expr, env, stack = nextExpr, nextEnv, nextStack
					haveResult = false
				}
				continue
			}
			expr = Car(pending)
			setFramePending(frame, Cdr(pending))
			env = callerEnv
			haveResult = false
			continue

		default:
			// op is already a resolved callable (or ev.symApply): result is
			// the value of the argument expression just evaluated.
			setFrameReversed(frame, h.Cons(result, frameReversed(frame)))
			pending := framePending(frame)
			if !pending.IsNil() {
				expr = Car(pending)
				setFramePending(frame, Cdr(pending))
				env = frameEnv(frame)
				haveResult = false
				continue
			}
			argList := reverseListInPlace(frameReversed(frame))
			parentStack := frameParent(frame)

			if Eq(op, ev.symApply) {
				nextExpr, nextEnv, nextStack, immediate, res, err := ev.applyDynamic(argList, parentStack)
				if err != nil {
					return Nil, err
				}
				if immediate {
					stack = nextStack
					result = res
					haveResult = true
				} else {
					expr, env, stack = nextExpr, nextEnv, nextStack
					haveResult = false
				}
				continue
			}

			nextExpr, nextEnv, nextStack, immediate, res, err := ev.applyGeneric(op, argList, parentStack)
			if err != nil {
				return Nil, err
			}
			if immediate {
				stack = nextStack
				result = res
				haveResult = true
			} else {
				expr, env, stack = nextExpr, nextEnv, nextStack
				haveResult = false
			}
			continue
		}
	}
}

// stepBody advances a closure-body frame by one statement: if the
// statement about to run is the last one, it is evaluated in true tail
// position (the frame is popped before evaluation starts, so the Go loop
// never grows); otherwise the frame is kept so its discarded result
// returns here to pick up the next statement.
func (ev *Evaluator) stepBody(frame Atom) (nextExpr, nextEnv, nextStack Atom) {
	body := frameBody(frame)
	stmt := Car(body)
	rest := Cdr(body)
	if rest.IsNil() {
		return stmt, frameEnv(frame), frameParent(frame)
	}
	setFrameBody(frame, rest)
	return stmt, frameEnv(frame), frame
}

// stepMacroBody is stepBody's macro counterpart: reaching the last
// statement does not pop the frame immediately. Instead the frame is
// switched to execMacroExpandMarker so that, once the expansion value
// comes back, it is re-evaluated as code in the original caller's
// environment (stashed in the frame's pending-args slot by
// enterMacroBody) — the two-pass expansion spec.md §4.6 "Macro expansion"
// describes.
func (ev *Evaluator) stepMacroBody(frame Atom) (nextExpr, nextEnv, nextStack Atom) {
	body := frameBody(frame)
	stmt := Car(body)
	rest := Cdr(body)
	if rest.IsNil() {
		setFrameOp(frame, ev.execMacroExpandMarker)
		setFrameBody(frame, Nil)
		return stmt, frameEnv(frame), frame
	}
	setFrameBody(frame, rest)
	return stmt, frameEnv(frame), frame
}

// enterClosureBody binds args against closure's formals in a fresh child
// environment and primes a body-execution frame on parentStack, returning
// the (expr, env, stack) triple the main loop should continue with.
func (ev *Evaluator) enterClosureBody(closure, args, parentStack Atom) (nextExpr, nextEnv, nextStack Atom, err error) {
	h := ev.Heap
	newEnv := h.NewEnv(ClosureEnv(closure))
	if err := bindParams(h, newEnv, ClosureArgs(closure), args); err != nil {
		return Nil, Nil, Nil, err
	}
	body := ClosureBody(closure)
	if body.IsNil() {
		return Nil, Nil, Nil, syntaxErr("closure body must be non-empty")
	}
	frame := ev.newFrame(parentStack, newEnv, Nil)
	setFrameOp(frame, ev.execBodyMarker)
	setFrameBody(frame, body)
	e, v, s := ev.stepBody(frame)
	return e, v, s, nil
}

// enterMacroBody binds rawArgs (unevaluated) against macro's formals,
// stashes callerEnv for the post-expansion re-evaluation step, and primes
// a macro-body-execution frame.
func (ev *Evaluator) enterMacroBody(macro, rawArgs, callerEnv, parentStack Atom) (nextExpr, nextEnv, nextStack Atom, err error) {
	h := ev.Heap
	macroEnv := h.NewEnv(ClosureEnv(macro))
	if err := bindParams(h, macroEnv, ClosureArgs(macro), rawArgs); err != nil {
		return Nil, Nil, Nil, err
	}
	body := ClosureBody(macro)
	if body.IsNil() {
		return Nil, Nil, Nil, syntaxErr("macro body must be non-empty")
	}
	frame := ev.newFrame(parentStack, macroEnv, callerEnv)
	setFrameOp(frame, ev.execMacroBodyMarker)
	setFrameBody(frame, body)
	e, v, s := ev.stepMacroBody(frame)
	return e, v, s, nil
}

// applyGeneric applies op (a Builtin or Closure) to an already-evaluated
// argument list. Builtins resolve immediately, per their BuiltinFn
// contract (spec.md §3); closures continue the trampoline in tail
// position via enterClosureBody.
func (ev *Evaluator) applyGeneric(op, args, parentStack Atom) (nextExpr, nextEnv, nextStack Atom, immediate bool, res Atom, err error) {
	switch {
	case op.IsBuiltin():
		res, err = op.Builtin()(args)
		immediate = true
		nextStack = parentStack
		return
	case op.IsClosure():
		nextExpr, nextEnv, nextStack, err = ev.enterClosureBody(op, args, parentStack)
		return
	default:
		err = typeErr("%s is not callable", describeAtom(op))
		return
	}
}

// applyDynamic implements the APPLY special form's post-argument-
// evaluation step: argList is the two evaluated operands, (operator
// arg-list); APPLY re-enters the trampoline on the real operator so the
// callee still gets proper tail calls (spec.md §4.6.1).
func (ev *Evaluator) applyDynamic(argList, parentStack Atom) (nextExpr, nextEnv, nextStack Atom, immediate bool, res Atom, err error) {
	items := ListToSlice(argList)
	if len(items) != 2 {
		err = argsErr("APPLY expects exactly two arguments")
		return
	}
	realOp := items[0]
	realArgs := items[1]
	if !IsProperList(realArgs) {
		err = typeErr("APPLY requires a proper list of arguments")
		return
	}
	if realOp.IsMacro() {
		err = typeErr("APPLY does not support macros")
		return
	}
	return ev.applyGeneric(realOp, realArgs, parentStack)
}

// ApplyValue applies op to an already-evaluated argument list from
// outside the trampoline — the mechanism behind the APPLY primitive
// binding, used when APPLY (or any closure) is passed around as a
// first-class value rather than written in operator position. Builtins
// are, by contract, always synchronous; closures are driven to
// completion by synthesizing a call expression over already-evaluated,
// QUOTE-wrapped operands and handing it to a fresh Eval — reusing the
// ordinary application path rather than duplicating it, at the cost of
// not preserving tail-call safety across this boundary (acceptable: the
// tail-call guarantee spec.md §8 tests is about closures calling
// closures directly, not about indirection through this primitive).
func (ev *Evaluator) ApplyValue(op, args Atom) (Atom, error) {
	if op.IsMacro() || !op.IsCallable() {
		return Nil, typeErr("%s is not callable", describeAtom(op))
	}
	h := ev.Heap
	var quoted []Atom
	for a := args; a.IsPair(); a = Cdr(a) {
		quoted = append(quoted, h.List(ev.symQuote, Car(a)))
	}
	callExpr := h.Cons(op, h.ConsList(quoted, Nil))
	return ev.Eval(callExpr, Nil)
}

// CollectGarbage runs an explicit collection cycle rooted at env with no
// expression or stack in flight — the shape spec.md §4.7 describes for
// the REPL-returns-with-an-empty-stack trigger. The GC special form does
// not go through here: it collects with the live stack as a root.
func (ev *Evaluator) CollectGarbage(env Atom) int {
	return ev.collect(Roots{Expr: Nil, Env: env, Stack: Nil})
}

// maybeCollect runs a GC cycle every DefaultGCThreshold drive-steps,
// rooted at the current expr/env/stack plus every pendingRoots entry from
// evaluations suspended on the Go call stack.
func (ev *Evaluator) maybeCollect(expr, env, stack Atom) error {
	h := ev.Heap
	h.steps++
	if h.steps < h.gcThreshold {
		return nil
	}
	ev.collect(Roots{Expr: expr, Env: env, Stack: stack})
	return nil
}

// collect unions the given roots with every pending (suspended-nested-
// Eval) root set and runs one mark-and-sweep cycle.
func (ev *Evaluator) collect(current Roots) int {
	h := ev.Heap
	h.markRoots(current)
	for _, r := range ev.pendingRoots {
		h.markRoots(r)
	}
	h.mark(h.symbolTable)
	freed := h.sweep()
	h.lastGCFreed = freed
	h.steps = 0
	return freed
}

// pushPendingRoots/popPendingRoots bracket a nested Eval call made while
// the outer trampoline is paused on the Go call stack (evalQuasiquote's
// UNQUOTE handling), so a GC cycle triggered inside the nested call still
// sees the outer call's live state.
func (ev *Evaluator) pushPendingRoots(r Roots) {
	ev.pendingRoots = append(ev.pendingRoots, r)
}

func (ev *Evaluator) popPendingRoots() {
	ev.pendingRoots = ev.pendingRoots[:len(ev.pendingRoots)-1]
}

// describeAtom renders a short, kind-qualified description of a for error
// messages (e.g. "INTEGER 3", "SYMBOL FOO").
func describeAtom(a Atom) string {
	return a.Kind().String() + " " + Sprint(a)
}
