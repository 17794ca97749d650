package lisp

import "strings"

// Heap owns the pair allocation list and the interned symbol table — the
// two process-wide mutable singletons spec.md §3/§5 describes. A Heap must
// not be shared between goroutines without external synchronization.
type Heap struct {
	allocList *Pair // head of the singly-linked list of every live Pair.
	liveCount int

	symbolTable Atom // proper list of Symbol atoms; itself a GC root.

	steps       int // drive-steps executed since the last GC.
	gcThreshold int // trigger a cycle every this-many drive-steps.

	lastGCFreed int // pairs reclaimed by the most recent sweep, for diagnostics.
}

// DefaultGCThreshold is the implementation-defined "every N steps" trigger
// from spec.md §4.7.
const DefaultGCThreshold = 10000

// NewHeap returns a fresh, empty heap with the default GC threshold.
func NewHeap() *Heap {
	return &Heap{symbolTable: Nil, gcThreshold: DefaultGCThreshold}
}

// Cons allocates one pair plus its GC header and prepends it to the
// allocation list. Construction never fails — allocation exhaustion, per
// spec.md §4.1, is fatal and left to the host's own memory limits rather
// than surfaced as an Atom error.
func (h *Heap) Cons(car, cdr Atom) Atom {
	p := &Pair{car: car, cdr: cdr, next: h.allocList}
	h.allocList = p
	h.liveCount++
	return Atom{kind: KindPair, pair: p}
}

// consTagged allocates a pair chain cell but tags the result atom with a
// non-Pair kind (Closure, Macro) so the evaluator dispatches on it
// structurally while GC still walks it as a plain pair (the printer gives
// these kinds their own #<...> notation).
func (h *Heap) consTagged(kind Kind, car, cdr Atom) Atom {
	a := h.Cons(car, cdr)
	a.kind = kind
	return a
}

// LiveCount reports the number of pairs currently on the allocation list.
func (h *Heap) LiveCount() int { return h.liveCount }

// LastGCFreed reports how many pairs the most recent collection cycle
// reclaimed.
func (h *Heap) LastGCFreed() int { return h.lastGCFreed }

// SymbolTable returns the interned-symbol root list.
func (h *Heap) SymbolTable() Atom { return h.symbolTable }

// MakeSymbol interns name (upper-cased by the caller — the reader
// case-normalizes, per spec.md §4.2) and returns the canonical Symbol
// atom: a hit returns the existing atom, a miss prepends a freshly
// allocated, owned name record to the table.
func (h *Heap) MakeSymbol(name string) Atom {
	for p := h.symbolTable; !p.IsNil(); p = Cdr(p) {
		candidate := Car(p)
		if candidate.SymbolName() == name {
			return candidate
		}
	}
	rec := &symbolRecord{name: name}
	sym := Atom{kind: KindSymbol, sym: rec}
	h.symbolTable = h.Cons(sym, h.symbolTable)
	return sym
}

// Intern is shorthand for MakeSymbol with upper-casing applied, matching
// the reader's case normalization (spec.md §4.2) for call sites outside
// the reader (e.g. special-form dispatch, primitive registration).
func (h *Heap) Intern(name string) Atom {
	return h.MakeSymbol(strings.ToUpper(name))
}

// MakeBuiltin wraps a host function as a Builtin atom under the given
// printable name.
func (h *Heap) MakeBuiltin(name string, fn BuiltinFn) Atom {
	return Atom{kind: KindBuiltin, fn: &builtinRecord{name: name, fn: fn}}
}

// NewClosure builds a Closure atom whose underlying pair chain has shape
// (env arglist . body) per spec.md §3 invariant 2 and §9's design note:
// Cons(env, Cons(arglist, body)) with body already a proper list, so the
// three logical slots share one flat pair chain that GC walks without a
// dedicated path.
func (h *Heap) NewClosure(env, arglist, body Atom) Atom {
	inner := h.Cons(arglist, body)
	return h.consTagged(KindClosure, env, inner)
}

// NewMacro builds a Macro atom with the identical shape as NewClosure; only
// the tag differs, changing how the evaluator applies it (spec.md §9).
func (h *Heap) NewMacro(env, arglist, body Atom) Atom {
	inner := h.Cons(arglist, body)
	return h.consTagged(KindMacro, env, inner)
}

// ClosureEnv, ClosureArgs, ClosureBody unpack a Closure/Macro atom's three
// logical slots out of its flat pair-chain representation.
func ClosureEnv(c Atom) Atom  { return Car(c) }
func ClosureArgs(c Atom) Atom { return Car(Cdr(c)) }
func ClosureBody(c Atom) Atom { return Cdr(Cdr(c)) }

// List builds a proper list from the given atoms, right to left.
func (h *Heap) List(items ...Atom) Atom {
	return h.ConsList(items, Nil)
}

// ConsList builds a pair chain from items with the given final cdr — Nil
// for a proper list, anything else for a dotted (improper) list. Used by
// both List and the reader's dotted-pair parsing.
func (h *Heap) ConsList(items []Atom, tail Atom) Atom {
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = h.Cons(items[i], result)
	}
	return result
}

// ListToSlice flattens a proper list into a Go slice; it stops at the
// first non-pair cdr (so it tolerates improper lists by returning the
// proper prefix only — callers that must reject impropriety check
// IsProperList first).
func ListToSlice(list Atom) []Atom {
	var out []Atom
	for p := list; p.IsPair(); p = Cdr(p) {
		out = append(out, Car(p))
	}
	return out
}

// IsProperList reports whether list is Nil or a chain of Pairs ending in
// Nil.
func IsProperList(list Atom) bool {
	for {
		if list.IsNil() {
			return true
		}
		if !list.IsPair() {
			return false
		}
		list = Cdr(list)
	}
}

// ListLength returns the number of elements in a proper list.
func ListLength(list Atom) int {
	n := 0
	for p := list; p.IsPair(); p = Cdr(p) {
		n++
	}
	return n
}
