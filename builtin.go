// builtin.go: built-in procedures exposed as first-class structures.
package amlang

// BuiltInFn receives already-evaluated arguments. The agent is available for
// designation-aware behavior (printing, boolean nodes).
type BuiltInFn func(a *Agent, args []Sexp) (Sexp, error)

// BuiltIn is named native code. Identity for serialization and comparison is
// the name alone; the function pointer is rebound on load from the registry.
type BuiltIn struct {
	name string
	fn   BuiltInFn
}

func NewBuiltIn(name string, fn BuiltInFn) *BuiltIn {
	return &BuiltIn{name: name, fn: fn}
}

func (b *BuiltIn) Name() string { return b.name }

func (b *BuiltIn) Call(a *Agent, args []Sexp) (Sexp, error) {
	return b.fn(a, args)
}
