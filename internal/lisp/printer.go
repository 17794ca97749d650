package lisp

import (
	"strconv"
	"strings"
)

// Sprint renders a as its external representation. Nil, integers, symbols
// and pairs print read-back-compatibly (spec.md §8's read-print round trip
// property): they parse back to an Eq-equal atom (symbols/integers) or a
// structurally equal one (pairs). Builtins, closures and macros print in
// an opaque #<...> notation that does not read back.
func Sprint(a Atom) string {
	var b strings.Builder
	writeAtom(&b, a)
	return b.String()
}

func writeAtom(b *strings.Builder, a Atom) {
	switch a.Kind() {
	case KindNil:
		b.WriteString("NIL")
	case KindInteger:
		b.WriteString(strconv.FormatInt(a.IntValue(), 10))
	case KindSymbol:
		b.WriteString(a.SymbolName())
	case KindPair:
		b.WriteByte('(')
		writeList(b, a)
		b.WriteByte(')')
	case KindBuiltin:
		b.WriteString("#<BUILTIN ")
		b.WriteString(a.BuiltinName())
		b.WriteByte('>')
	case KindClosure:
		b.WriteString("#<CLOSURE ")
		writeAtom(b, ClosureArgs(a))
		b.WriteByte('>')
	case KindMacro:
		b.WriteString("#<MACRO ")
		writeAtom(b, ClosureArgs(a))
		b.WriteByte('>')
	}
}

// writeList prints the elements of a pair chain without the enclosing
// parens, switching to dotted notation if the chain is improper.
func writeList(b *strings.Builder, a Atom) {
	first := true
	cur := a
	for cur.IsPair() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		writeAtom(b, Car(cur))
		cur = Cdr(cur)
	}
	if !cur.IsNil() {
		b.WriteString(" . ")
		writeAtom(b, cur)
	}
}
