// builtins.go: the native procedure set bound into the lang env at
// bootstrap. Arithmetic folds same-kind numbers; eq yields the lang
// true/false nodes; println renders through the agent so designated nodes
// print by name.
package amlang

import "fmt"

func builtinRegistry() map[string]*BuiltIn {
	out := make(map[string]*BuiltIn)
	add := func(name string, fn BuiltInFn) {
		out[name] = NewBuiltIn(name, fn)
	}

	add("+", foldNum(opAdd))
	add("-", foldNum(opSub))
	add("*", foldNum(opMul))
	add("/", foldNum(opDiv))

	add("car", func(a *Agent, args []Sexp) (Sexp, error) {
		c, err := consArg(a, args)
		if err != nil {
			return Sexp{}, err
		}
		if c.Car == nil {
			return Nil(), nil
		}
		return c.Car.Copy(), nil
	})
	add("cdr", func(a *Agent, args []Sexp) (Sexp, error) {
		c, err := consArg(a, args)
		if err != nil {
			return Sexp{}, err
		}
		if c.Cdr == nil {
			return Nil(), nil
		}
		return c.Cdr.Copy(), nil
	})
	add("cons", func(a *Agent, args []Sexp) (Sexp, error) {
		if len(args) != 2 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: Exactly(2)})
		}
		return Cons2(args[0], args[1]), nil
	})
	add("list-len", func(a *Agent, args []Sexp) (Sexp, error) {
		if len(args) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: Exactly(1)})
		}
		n, ok := args[0].ListLen()
		if !ok {
			return Sexp{}, newError(a, &InvalidArgument{
				Given: args[0], Expected: "proper list"})
		}
		return Int(int64(n)), nil
	})
	add("println", func(a *Agent, args []Sexp) (Sexp, error) {
		if len(args) != 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: Exactly(1)})
		}
		fmt.Println(a.SexpString(args[0]))
		return Nil(), nil
	})
	add("eq", func(a *Agent, args []Sexp) (Sexp, error) {
		if len(args) != 2 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: Exactly(2)})
		}
		return NodeSexp(a.BoolNode(Equal(args[0], args[1]))), nil
	})

	return out
}

// LookupBuiltIn resolves a serialized builtin reference back to native code.
func LookupBuiltIn(name string) (*BuiltIn, bool) {
	b, ok := builtinRegistry()[name]
	return b, ok
}

func foldNum(op numOp) BuiltInFn {
	return func(a *Agent, args []Sexp) (Sexp, error) {
		if len(args) < 1 {
			return Sexp{}, newError(a, &WrongArgumentCount{
				Given: len(args), Expected: AtLeast(1)})
		}
		acc, ok := args[0].AsNumber()
		if !ok {
			return Sexp{}, newError(a, &InvalidArgument{
				Given: args[0], Expected: "Number"})
		}
		for _, arg := range args[1:] {
			n, ok := arg.AsNumber()
			if !ok {
				return Sexp{}, newError(a, &InvalidArgument{
					Given: arg, Expected: "Number"})
			}
			next, err := acc.apply(op, n)
			if err != nil {
				return Sexp{}, newError(a, &InvalidArgument{
					Given: arg, Expected: err.Error()})
			}
			acc = next
		}
		return NumSexp(acc), nil
	}
}

func consArg(a *Agent, args []Sexp) (*Cons, error) {
	if len(args) != 1 {
		return nil, newError(a, &WrongArgumentCount{
			Given: len(args), Expected: Exactly(1)})
	}
	c, ok := args[0].AsCons()
	if !ok {
		return nil, newError(a, &InvalidArgument{
			Given: args[0], Expected: "Cons"})
	}
	return c, nil
}
