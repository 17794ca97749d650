// Package lisp implements the evaluator core: the atom/pair heap, the
// interned symbol table, the reader, the lexical environment, the
// stack-frame evaluator, and the mark-and-sweep collector.
package lisp

// Kind tags the variant an Atom carries.
type Kind int

const (
	KindNil Kind = iota
	KindInteger
	KindSymbol
	KindPair
	KindBuiltin
	KindClosure
	KindMacro
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "NIL"
	case KindInteger:
		return "INTEGER"
	case KindSymbol:
		return "SYMBOL"
	case KindPair:
		return "PAIR"
	case KindBuiltin:
		return "BUILTIN"
	case KindClosure:
		return "CLOSURE"
	case KindMacro:
		return "MACRO"
	default:
		return "?"
	}
}

// symbolRecord is the heap-resident interned-name record; its address is
// the symbol's "handle" per spec.md §3 — pointer identity is what makes
// symbol equality collapse to identity.
type symbolRecord struct {
	name string
}

// Pair is a two-cell heap record. cdr is destructively updated during
// argument evaluation and environment extension (spec.md §3).
type Pair struct {
	car, cdr Atom

	marked bool  // GC mark bit; zero outside of a collection cycle.
	next   *Pair // allocation-list link, not part of the car/cdr payload.
}

// BuiltinFn is a host-provided primitive: it takes the (already evaluated)
// argument list as a proper Atom list and returns a result or an error.
type BuiltinFn func(args Atom) (Atom, error)

type builtinRecord struct {
	name string
	fn   BuiltinFn
}

// Atom is the tagged value type exchanged throughout the interpreter.
// Builtin carries a *builtinRecord rather than a bare func so that Atom
// equality (Eq) and printing can see a stable, name-bearing handle.
type Atom struct {
	kind    Kind
	integer int64
	sym     *symbolRecord
	pair    *Pair
	fn      *builtinRecord
}

// Nil is the empty list / false-ish singleton. The zero Atom is Nil.
var Nil = Atom{kind: KindNil}

// MakeInt builds an Integer atom.
func MakeInt(i int64) Atom {
	return Atom{kind: KindInteger, integer: i}
}

// IsNil reports whether a is the Nil atom.
func (a Atom) IsNil() bool { return a.kind == KindNil }

// IsPair reports whether a is a cons cell (Pair, Closure, or Macro all
// share the pair-chain representation but only Pair is "plain data").
func (a Atom) IsPair() bool { return a.kind == KindPair }

// IsInteger reports whether a is an Integer.
func (a Atom) IsInteger() bool { return a.kind == KindInteger }

// IsSymbol reports whether a is a Symbol.
func (a Atom) IsSymbol() bool { return a.kind == KindSymbol }

// IsBuiltin reports whether a is a host-provided primitive.
func (a Atom) IsBuiltin() bool { return a.kind == KindBuiltin }

// IsClosure reports whether a is a user-defined Closure.
func (a Atom) IsClosure() bool { return a.kind == KindClosure }

// IsMacro reports whether a is a Macro.
func (a Atom) IsMacro() bool { return a.kind == KindMacro }

// IsCallable reports whether a can appear in operator position.
func (a Atom) IsCallable() bool {
	return a.kind == KindBuiltin || a.kind == KindClosure || a.kind == KindMacro
}

// Kind exposes the atom's variant tag.
func (a Atom) Kind() Kind { return a.kind }

// IntValue returns the payload of an Integer atom; callers must check
// IsInteger first.
func (a Atom) IntValue() int64 { return a.integer }

// SymbolName returns the interned name of a Symbol atom.
func (a Atom) SymbolName() string {
	if a.sym == nil {
		return ""
	}
	return a.sym.name
}

// BuiltinName returns the printable name of a Builtin atom.
func (a Atom) BuiltinName() string {
	if a.fn == nil {
		return ""
	}
	return a.fn.name
}

// Builtin returns the callable function of a Builtin atom.
func (a Atom) Builtin() BuiltinFn {
	if a.fn == nil {
		return nil
	}
	return a.fn.fn
}

// Car returns the first cell of a Pair/Closure/Macro atom; Nil otherwise
// (mirrors the teacher's tolerant CAR/CDR-of-NIL contract, spec.md §6).
func Car(a Atom) Atom {
	if a.pair == nil {
		return Nil
	}
	return a.pair.car
}

// Cdr returns the second cell of a Pair/Closure/Macro atom; Nil otherwise.
func Cdr(a Atom) Atom {
	if a.pair == nil {
		return Nil
	}
	return a.pair.cdr
}

// SetCar destructively updates the first cell. Atom must carry a Pair.
func SetCar(a Atom, v Atom) {
	a.pair.car = v
}

// SetCdr destructively updates the second cell. Atom must carry a Pair.
func SetCdr(a Atom, v Atom) {
	a.pair.cdr = v
}

// Eq implements the EQ? primitive's contract (spec.md §6): identity on
// pairs/closures/macros/builtins, name identity on symbols, value equality
// on integers, always true on NIL, false across differing tags.
func Eq(a, b Atom) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindInteger:
		return a.integer == b.integer
	case KindSymbol:
		return a.sym == b.sym
	case KindPair, KindClosure, KindMacro:
		return a.pair == b.pair
	case KindBuiltin:
		return a.fn == b.fn
	default:
		return false
	}
}
