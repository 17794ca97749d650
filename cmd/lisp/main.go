// Command lisp is the interactive REPL for the evaluator core in
// internal/lisp: it wires up line editing, history, tab completion, the
// startup banner, and prelude loading — none of which the core itself
// knows anything about.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cnf/structhash"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/pterm/pterm"

	"github.com/pkelchte/smalllisp/internal/lisp"
)

func main() {
	historyPath := flag.String("history", ".lisp_history", "history file path")
	preludePath := flag.String("prelude", "library.lisp", "prelude file to load on startup")
	flag.Parse()

	initDisplay()
	pterm.Info.Println("Small Lisp — type :q or press <ctrl>D to exit")

	heap := lisp.NewHeap()
	ev := lisp.NewEvaluator(heap)
	env := lisp.NewGlobalEnv(heap, ev)

	loadPreludeFile(ev, env, *preludePath)

	repl, err := readline.NewEx(&readline.Config{
		Prompt:                 "lisp> ",
		HistoryFile:            *historyPath,
		DisableAutoSaveHistory: true,
		AutoComplete:           newEnvCompleter(env),
	})
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	defer repl.Close()

	runREPL(ev, env, repl)
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " info ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " error ",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func loadPreludeFile(ev *lisp.Evaluator, env lisp.Atom, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		pterm.Error.Println("reading prelude: " + err.Error())
		return
	}
	ev.LoadPrelude(string(data), env, func(loadErr error) {
		pterm.Error.Println("prelude: " + loadErr.Error())
	})
}

// runREPL reads one line per prompt, evaluates every expression on it in
// order (see evalLine), and prints each result or the matching error
// label (spec.md §6/§7). A
// line that lexes to nothing (blank, or comment-only) is silently
// ignored. Seen-line fingerprints, keyed by structhash, keep an
// immediately-repeated line from bloating the history file.
func runREPL(ev *lisp.Evaluator, env lisp.Atom, repl *readline.Instance) {
	var lastFingerprint string

	for {
		line, err := repl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			pterm.Error.Println(err.Error())
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == ":q" {
			break
		}

		if fp := fingerprint(trimmed); fp != lastFingerprint {
			lastFingerprint = fp
			repl.SaveHistory(line)
		}

		if len(lisp.Tokenize(trimmed)) == 0 {
			continue
		}

		evalLine(ev, env, trimmed)
	}
	pterm.Info.Println("Goodbye")
}

// evalLine parses and evaluates every expression on the line, in order.
// Per spec.md §4.7 "GC is also invoked when the evaluator returns to the
// REPL with an empty stack", each top-level result triggers a collection
// before the next expression runs.
func evalLine(ev *lisp.Evaluator, env lisp.Atom, line string) {
	h := ev.Heap
	exprs, err := h.ReadAll(line)
	if err != nil {
		printEvalError(err)
		return
	}
	for _, expr := range exprs {
		result, err := ev.Eval(expr, env)
		if err != nil {
			printEvalError(err)
			continue
		}
		fmt.Println(lisp.Sprint(result))
		ev.CollectGarbage(env)
	}
}

func printEvalError(err error) {
	if lerr, ok := err.(*lisp.Error); ok {
		pterm.Error.Println(lerr.Kind.Label())
		return
	}
	pterm.Error.Println(err.Error())
}

// fingerprint returns a short content hash of a history line, used only to
// dedup consecutive repeats — not a correctness-critical value.
func fingerprint(line string) string {
	h, err := structhash.Hash(struct{ Line string }{Line: line}, 1)
	if err != nil {
		return line
	}
	return h
}

// envCompleter enumerates names bound in the top-level frame (spec.md §6
// "Tab completion enumerates symbols bound in the top-level environment")
// whose names case-insensitively share the prefix being completed. A
// treeset keeps candidates sorted and deduplicated before readline renders
// them.
type envCompleter struct {
	env lisp.Atom
}

func newEnvCompleter(env lisp.Atom) *envCompleter {
	return &envCompleter{env: env}
}

func (c *envCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	prefix := currentWord(string(line[:pos]))
	upperPrefix := strings.ToUpper(prefix)

	names := treeset.NewWithStringComparator()
	for _, name := range lisp.EnvBindingNames(c.env) {
		names.Add(name)
	}

	var matches [][]rune
	for _, v := range names.Values() {
		name := v.(string)
		if strings.HasPrefix(name, upperPrefix) {
			matches = append(matches, []rune(name[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

func currentWord(prefix string) string {
	i := len(prefix)
	for i > 0 {
		c := prefix[i-1]
		if c == ' ' || c == '\t' || c == '(' || c == ')' || c == '\'' || c == '`' || c == ',' {
			break
		}
		i--
	}
	return prefix[i:]
}
