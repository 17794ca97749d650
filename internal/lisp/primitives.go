package lisp

// NewGlobalEnv builds the initial top-level environment (parent Nil) with
// every binding spec.md §6 names: the truth symbol T, the list primitives
// CAR/CDR/CONS/PAIR?/EQ?/APPLY, integer arithmetic, and integer ordering.
// Contracts are exactly spec.md §6's "Contracts of primitives".
func NewGlobalEnv(h *Heap, ev *Evaluator) Atom {
	env := h.NewEnv(Nil)

	t := h.Intern("T")
	h.EnvSet(env, t, t)

	def := func(name string, fn BuiltinFn) {
		sym := h.Intern(name)
		h.EnvSet(env, sym, h.MakeBuiltin(name, fn))
	}

	def("CAR", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 1)
		if err != nil {
			return Nil, err
		}
		x := a[0]
		if x.IsNil() {
			return Nil, nil
		}
		if !x.IsPair() {
			return Nil, typeErr("CAR requires a pair, got %s", describeAtom(x))
		}
		return Car(x), nil
	})

	def("CDR", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 1)
		if err != nil {
			return Nil, err
		}
		x := a[0]
		if x.IsNil() {
			return Nil, nil
		}
		if !x.IsPair() {
			return Nil, typeErr("CDR requires a pair, got %s", describeAtom(x))
		}
		return Cdr(x), nil
	})

	def("CONS", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		return h.Cons(a[0], a[1]), nil
	})

	def("PAIR?", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 1)
		if err != nil {
			return Nil, err
		}
		if a[0].IsPair() {
			return t, nil
		}
		return Nil, nil
	})

	def("EQ?", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		if Eq(a[0], a[1]) {
			return t, nil
		}
		return Nil, nil
	})

	def("APPLY", func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		if !IsProperList(a[1]) {
			return Nil, typeErr("APPLY requires a proper list of arguments")
		}
		return ev.ApplyValue(a[0], a[1])
	})

	def("+", arithFold(0, func(acc, v int64) int64 { return acc + v }))
	def("-", arithBinary(func(x, y int64) (int64, error) { return x - y, nil }))
	def("*", arithFold(1, func(acc, v int64) int64 { return acc * v }))
	def("/", arithBinary(func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, typeErr("division by zero")
		}
		return x / y, nil
	}))

	def("=", relational(t, func(x, y int64) bool { return x == y }))
	def("<", relational(t, func(x, y int64) bool { return x < y }))
	def("<=", relational(t, func(x, y int64) bool { return x <= y }))
	def(">", relational(t, func(x, y int64) bool { return x > y }))
	def(">=", relational(t, func(x, y int64) bool { return x >= y }))

	return env
}

// expectArity unpacks args (a proper list) into exactly n atoms or returns
// an Args error.
func expectArity(args Atom, n int) ([]Atom, error) {
	items := ListToSlice(args)
	if !IsProperList(args) || len(items) != n {
		return nil, argsErr("expected %d argument(s), got %d", n, len(items))
	}
	return items, nil
}

func expectIntegers(args []Atom) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		if !a.IsInteger() {
			return nil, typeErr("expected an integer, got %s", describeAtom(a))
		}
		out[i] = a.IntValue()
	}
	return out, nil
}

// arithBinary builds a strictly-two-operand arithmetic primitive, per
// spec.md §6 ("Arithmetic ... (binary, integer-only)").
func arithBinary(op func(x, y int64) (int64, error)) BuiltinFn {
	return func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		ints, err := expectIntegers(a)
		if err != nil {
			return Nil, err
		}
		v, err := op(ints[0], ints[1])
		if err != nil {
			return Nil, err
		}
		return MakeInt(v), nil
	}
}

// arithFold folds + and * over exactly two operands like arithBinary; kept
// as a fold so the identity element documents the operator's algebraic
// role even though this dialect only ever calls it with two arguments.
func arithFold(identity int64, step func(acc, v int64) int64) BuiltinFn {
	return func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		ints, err := expectIntegers(a)
		if err != nil {
			return Nil, err
		}
		acc := identity
		for _, v := range ints {
			acc = step(acc, v)
		}
		return MakeInt(acc), nil
	}
}

func relational(t Atom, cmp func(x, y int64) bool) BuiltinFn {
	return func(args Atom) (Atom, error) {
		a, err := expectArity(args, 2)
		if err != nil {
			return Nil, err
		}
		ints, err := expectIntegers(a)
		if err != nil {
			return Nil, err
		}
		if cmp(ints[0], ints[1]) {
			return t, nil
		}
		return Nil, nil
	}
}
