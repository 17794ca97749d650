package lisp

// Roots bundles the four GC roots named by spec.md §4.7: the expression
// currently being evaluated, the active environment, the evaluation stack
// (innermost frame, or Nil), and the symbol table (always included by
// Evaluator.collect itself, since every Heap owns exactly one). Any GC trigger whose
// invocation site passes Expr/Env/Stack accurately is safe (spec.md §4.7).
type Roots struct {
	Expr  Atom
	Env   Atom
	Stack Atom
}

// markRoots marks the three caller-supplied roots of a Roots value,
// without touching the symbol table (callers that need to fold several
// Roots values into one cycle, such as Evaluator.collect, call this once
// per Roots and mark the symbol table separately).
func (h *Heap) markRoots(r Roots) {
	h.mark(r.Expr)
	h.mark(r.Env)
	h.mark(r.Stack)
}

// mark performs a depth-first traversal of Pair/Closure/Macro atoms,
// setting each reached pair's mark bit. Recursion stops at an
// already-marked pair, which is what makes cyclic environment/closure
// graphs terminate (spec.md §9 "Cyclic references").
func (h *Heap) mark(a Atom) {
	if a.pair == nil {
		return
	}
	if a.pair.marked {
		return
	}
	a.pair.marked = true
	h.mark(a.pair.car)
	h.mark(a.pair.cdr)
}

// sweep walks the allocation list, unlinking and discarding unmarked
// pairs and clearing the mark bit of retained ones (spec.md §4.7,
// invariants 4 and 5 of spec.md §3).
func (h *Heap) sweep() int {
	freed := 0
	var kept, keptTail *Pair
	for p := h.allocList; p != nil; {
		next := p.next
		if p.marked {
			p.marked = false
			p.next = nil
			if kept == nil {
				kept = p
				keptTail = p
			} else {
				keptTail.next = p
				keptTail = p
			}
		} else {
			freed++
		}
		p = next
	}
	h.allocList = kept
	h.liveCount -= freed
	return freed
}
