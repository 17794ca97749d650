package lisp

// An environment is encoded as a pair (parent . bindings), where bindings
// is a proper list of (symbol . value) pairs and parent is either Nil (the
// global frame) or another environment (spec.md §3).

// NewEnv allocates a fresh, empty frame with the given parent (Nil for the
// global environment).
func (h *Heap) NewEnv(parent Atom) Atom {
	return h.Cons(parent, Nil)
}

// envParent and envBindings unpack an environment atom's two slots.
func envParent(env Atom) Atom    { return Car(env) }
func envBindings(env Atom) Atom  { return Cdr(env) }
func setEnvBindings(env, b Atom) { SetCdr(env, b) }

// EnvGet walks bindings then recurses into parent, returning Unbound (via
// ok=false) when the symbol is not found in any frame (spec.md §4.4).
func EnvGet(env, sym Atom) (Atom, bool) {
	for e := env; !e.IsNil(); e = envParent(e) {
		for b := envBindings(e); !b.IsNil(); b = Cdr(b) {
			binding := Car(b)
			if Eq(Car(binding), sym) {
				return Cdr(binding), true
			}
		}
	}
	return Nil, false
}

// EnvSet mutates an existing binding when sym matches in the SAME frame;
// otherwise it prepends a new binding to that frame. It never ascends to
// parents (spec.md §3's env_set contract — this is DEFINE's behavior).
func (h *Heap) EnvSet(env, sym, value Atom) {
	for b := envBindings(env); !b.IsNil(); b = Cdr(b) {
		binding := Car(b)
		if Eq(Car(binding), sym) {
			SetCdr(binding, value)
			return
		}
	}
	binding := h.Cons(sym, value)
	setEnvBindings(env, h.Cons(binding, envBindings(env)))
}

// EnvAssign implements SET!-style lookup-then-mutate: it finds the
// innermost frame already binding sym and mutates it there, ascending to
// parents (unlike EnvSet/DEFINE). Returns false if sym is unbound anywhere.
func EnvAssign(env, sym, value Atom) bool {
	for e := env; !e.IsNil(); e = envParent(e) {
		for b := envBindings(e); !b.IsNil(); b = Cdr(b) {
			binding := Car(b)
			if Eq(Car(binding), sym) {
				SetCdr(binding, value)
				return true
			}
		}
	}
	return false
}

// EnvBindingNames returns the symbol names bound directly in env's own
// frame (not ancestors) — used by the REPL's tab completer, which only
// ever completes over the top-level frame (SPEC_FULL.md §6).
func EnvBindingNames(env Atom) []string {
	var names []string
	for b := envBindings(env); !b.IsNil(); b = Cdr(b) {
		names = append(names, Car(Car(b)).SymbolName())
	}
	return names
}
