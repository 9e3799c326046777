// printer.go: read-syntax rendering.
//
// writeSexp walks cons structure; leaf rendering is pluggable so the agent
// can print nodes by their designated names while the plain printer falls
// back to sigils.
package amlang

import (
	"fmt"
	"strings"
)

type primWriter func(b *strings.Builder, s Sexp)

func writeSexp(b *strings.Builder, s Sexp, prim primWriter) {
	if s.IsNil() {
		b.WriteString("()")
		return
	}
	if s.Tag != TagCons {
		prim(b, s)
		return
	}

	// Quote shorthand.
	if elems, tail := s.Elements(); tail == nil && len(elems) == 2 {
		if sym, ok := elems[0].AsSymbol(); ok && sym == "quote" {
			b.WriteByte('\'')
			writeSexp(b, elems[1], prim)
			return
		}
	}

	b.WriteByte('(')
	elems, tail := s.Elements()
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeSexp(b, e, prim)
	}
	if tail != nil {
		b.WriteString(" . ")
		writeSexp(b, *tail, prim)
	}
	b.WriteByte(')')
}

// writePrimitivePlain renders leaves with no designation context: nodes as
// global sigils, procedures and tables as reified lists.
func writePrimitivePlain(b *strings.Builder, s Sexp) {
	switch s.Tag {
	case TagNumber:
		n, _ := s.AsNumber()
		b.WriteString(n.String())
	case TagSymbol:
		sym, _ := s.AsSymbol()
		b.WriteString(string(sym))
	case TagString:
		str, _ := s.AsString()
		writeQuotedString(b, str)
	case TagPath:
		p, _ := s.AsPath()
		b.WriteString("(__path ")
		writeQuotedString(b, p)
		b.WriteByte(')')
	case TagNode:
		n, _ := s.AsNode()
		b.WriteString(globalSigil(n))
	case TagBuiltIn:
		bi, _ := s.AsBuiltIn()
		fmt.Fprintf(b, "(__builtin %s)", bi.Name())
	case TagProcedure:
		p, _ := s.AsProcedure()
		writeSexp(b, p.Reify(func(n Node) Sexp { return NodeSexp(n) }), writePrimitivePlain)
	case TagSymNodeTable:
		t, _ := s.AsSymNodeTable()
		b.WriteString("(__sym_node_table")
		for _, pair := range t.Pairs() {
			fmt.Fprintf(b, " (%s . %s)", pair.Sym, globalSigil(pair.Node))
		}
		b.WriteByte(')')
	case TagLocalNodeTable:
		t, _ := s.AsLocalNodeTable()
		b.WriteString("(__local_node_table")
		for _, pair := range t.Pairs() {
			fmt.Fprintf(b, " (%s . %s)", localSigil(pair.Key), localSigil(pair.Val))
		}
		b.WriteByte(')')
	case TagSymSexpTable:
		t, _ := s.AsSymSexpTable()
		b.WriteString("(__sym_sexp_table")
		for _, pair := range t.Pairs() {
			b.WriteString(" (")
			b.WriteString(string(pair.Sym))
			b.WriteString(" . ")
			writeSexp(b, pair.Val, writePrimitivePlain)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case TagVector:
		v, _ := s.AsVector()
		b.WriteString("(__vector")
		for _, e := range v {
			b.WriteByte(' ')
			writeSexp(b, e, writePrimitivePlain)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "#<unprintable tag=%d>", s.Tag)
	}
}

// localSigil renders an id relative to its own environment: ^id for nodes,
// ^t<idx> for triples.
func localSigil(n LocalNode) string {
	if n.IsTriple() {
		return fmt.Sprintf("^t%d", tripleIndexFromID(n))
	}
	return fmt.Sprintf("^%d", uint64(n))
}

// globalSigil renders a node with its environment prefix: ^env^id or
// ^env^t<idx>.
func globalSigil(n Node) string {
	if n.Local.IsTriple() {
		return fmt.Sprintf("^%d^t%d", uint64(n.Env), tripleIndexFromID(n.Local))
	}
	return fmt.Sprintf("^%d^%d", uint64(n.Env), uint64(n.Local))
}

func writeQuotedString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
