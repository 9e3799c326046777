// serialize.go: writing one environment to its env file.
//
// Layout is line-oriented for diffability but parsed as a plain sexp
// stream: a header record, a nodes section in id order, a triples section
// in insertion order, and a designations section sorted by symbol.
package amlang

import (
	"fmt"
	"io"
	"strings"
)

// SerializeEnv writes e, known as envNode in the meta-env, to w. extra is
// carried into the header opaquely (a reloaded header's Extra round-trips
// through here).
func SerializeEnv(w io.Writer, e *Environment, envNode LocalNode, extra []Sexp) error {
	header := &EnvHeader{
		Version:     FormatVersion,
		NodeCount:   e.NodeCount(),
		TripleCount: e.TripleCount(),
		Extra:       extra,
	}
	var b strings.Builder
	b.WriteString(header.Reify().String())
	b.WriteString("\n\n")

	b.WriteString("(nodes")
	for _, id := range e.AllNodes() {
		b.WriteString("\n\t")
		if structure, ok := e.Entry(id); ok {
			fmt.Fprintf(&b, "(%s %s)", localSigil(id), serializeStructure(e, envNode, structure))
		} else {
			b.WriteString(localSigil(id))
		}
	}
	b.WriteString("\n)\n\n")

	b.WriteString("(triples")
	for _, id := range e.MatchAll() {
		t, _ := e.NodeAsTriple(id)
		fmt.Fprintf(&b, "\n\t(%s %s %s)",
			refString(e, envNode, NewNode(envNode, t.Subject)),
			refString(e, envNode, NewNode(envNode, t.Predicate)),
			refString(e, envNode, NewNode(envNode, t.Object)))
	}
	b.WriteString("\n)\n\n")

	b.WriteString("(designations")
	for _, pair := range e.DesignationPairs(NodeDesignation) {
		fmt.Fprintf(&b, "\n\t(%s . %s)", pair.Sym, localSigil(pair.Node))
	}
	b.WriteString("\n)\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return &Error{Kind: &IoError{Op: "serialize env", Err: err}}
	}
	return nil
}
