// sexp.go: the core s-expression value model.
//
// A Sexp is a tagged union over a cons cell and the primitive variants
// (number, symbol, string, path, built-in, node reference, tables, vector,
// procedure). The zero value is the empty cons, written `()`.
package amlang

import "strings"

// Tag discriminates the payload held in Sexp.Data.
type Tag uint8

const (
	TagCons Tag = iota // *Cons (nil Data is the empty cons)
	TagNumber
	TagSymbol
	TagString
	TagPath
	TagBuiltIn
	TagNode
	TagProcedure
	TagSymNodeTable
	TagLocalNodeTable
	TagSymSexpTable
	TagVector
)

// Sexp is the universal value type. Data holds the payload matching Tag:
// *Cons, Number, Symbol, string (TagString and TagPath), *BuiltIn, Node,
// *Procedure, *SymNodeTable, *LocalNodeTable, *SymSexpTable, or []Sexp.
type Sexp struct {
	Tag  Tag
	Data any
}

// Cons pairs two optional values. A nil Car or Cdr is absent; both absent is
// the empty cons.
type Cons struct {
	Car *Sexp
	Cdr *Sexp
}

func Nil() Sexp { return Sexp{} }

func (s Sexp) IsNil() bool {
	if s.Tag != TagCons {
		return false
	}
	c, _ := s.Data.(*Cons)
	return c == nil || (c.Car == nil && c.Cdr == nil)
}

// Constructors.

func ConsSexp(c *Cons) Sexp { return Sexp{TagCons, c} }

func Cons2(car, cdr Sexp) Sexp {
	return Sexp{TagCons, &Cons{Car: &car, Cdr: &cdr}}
}

func Sym(name string) Sexp           { return Sexp{TagSymbol, Symbol(name)} }
func SymSexp(sym Symbol) Sexp        { return Sexp{TagSymbol, sym} }
func Str(s string) Sexp              { return Sexp{TagString, s} }
func PathSexp(p string) Sexp         { return Sexp{TagPath, p} }
func NumSexp(n Number) Sexp          { return Sexp{TagNumber, n} }
func Int(i int64) Sexp               { return Sexp{TagNumber, NewI64(i)} }
func USizeSexp(u uint64) Sexp        { return Sexp{TagNumber, NewUSize(u)} }
func NodeSexp(n Node) Sexp           { return Sexp{TagNode, n} }
func BuiltInSexp(b *BuiltIn) Sexp    { return Sexp{TagBuiltIn, b} }
func ProcSexp(p *Procedure) Sexp     { return Sexp{TagProcedure, p} }
func VectorSexp(items []Sexp) Sexp   { return Sexp{TagVector, items} }
func SymNodeSexp(t *SymNodeTable) Sexp {
	return Sexp{TagSymNodeTable, t}
}
func LocalNodeTableSexp(t *LocalNodeTable) Sexp {
	return Sexp{TagLocalNodeTable, t}
}
func SymSexpTableSexp(t *SymSexpTable) Sexp {
	return Sexp{TagSymSexpTable, t}
}

// List builds a proper list from items.
func List(items ...Sexp) Sexp {
	return ListDot(Nil(), items...)
}

// ListDot builds a list of items terminated by tail. A Nil tail yields a
// proper list.
func ListDot(tail Sexp, items ...Sexp) Sexp {
	out := tail
	for i := len(items) - 1; i >= 0; i-- {
		out = Cons2(items[i], out)
	}
	return out
}

// Accessors.

func (s Sexp) AsCons() (*Cons, bool) {
	if s.Tag != TagCons {
		return nil, false
	}
	c, _ := s.Data.(*Cons)
	if c == nil {
		return &Cons{}, true
	}
	return c, true
}

func (s Sexp) AsSymbol() (Symbol, bool) {
	if s.Tag != TagSymbol {
		return "", false
	}
	return s.Data.(Symbol), true
}

func (s Sexp) AsNumber() (Number, bool) {
	if s.Tag != TagNumber {
		return Number{}, false
	}
	return s.Data.(Number), true
}

func (s Sexp) AsString() (string, bool) {
	if s.Tag != TagString {
		return "", false
	}
	return s.Data.(string), true
}

func (s Sexp) AsPath() (string, bool) {
	if s.Tag != TagPath {
		return "", false
	}
	return s.Data.(string), true
}

func (s Sexp) AsNode() (Node, bool) {
	if s.Tag != TagNode {
		return Node{}, false
	}
	return s.Data.(Node), true
}

func (s Sexp) AsBuiltIn() (*BuiltIn, bool) {
	if s.Tag != TagBuiltIn {
		return nil, false
	}
	return s.Data.(*BuiltIn), true
}

func (s Sexp) AsProcedure() (*Procedure, bool) {
	if s.Tag != TagProcedure {
		return nil, false
	}
	return s.Data.(*Procedure), true
}

func (s Sexp) AsSymNodeTable() (*SymNodeTable, bool) {
	if s.Tag != TagSymNodeTable {
		return nil, false
	}
	return s.Data.(*SymNodeTable), true
}

func (s Sexp) AsLocalNodeTable() (*LocalNodeTable, bool) {
	if s.Tag != TagLocalNodeTable {
		return nil, false
	}
	return s.Data.(*LocalNodeTable), true
}

func (s Sexp) AsSymSexpTable() (*SymSexpTable, bool) {
	if s.Tag != TagSymSexpTable {
		return nil, false
	}
	return s.Data.(*SymSexpTable), true
}

func (s Sexp) AsVector() ([]Sexp, bool) {
	if s.Tag != TagVector {
		return nil, false
	}
	return s.Data.([]Sexp), true
}

// Elements walks s as a list, returning the proper elements in order and the
// improper tail, if any. A proper list (or the empty cons) has a nil tail.
// A non-cons s is its own tail.
func (s Sexp) Elements() (elems []Sexp, tail *Sexp) {
	cur := s
	for {
		if cur.IsNil() {
			return elems, nil
		}
		c, ok := cur.AsCons()
		if !ok {
			t := cur
			return elems, &t
		}
		if c.Car != nil {
			elems = append(elems, *c.Car)
		} else {
			elems = append(elems, Nil())
		}
		if c.Cdr == nil {
			return elems, nil
		}
		cur = *c.Cdr
	}
}

// ListLen returns the length of a proper list, or false if s is improper.
func (s Sexp) ListLen() (int, bool) {
	elems, tail := s.Elements()
	if tail != nil {
		return 0, false
	}
	return len(elems), true
}

// Equal compares two values structurally. Tables compare by contents,
// built-ins by name, procedures by shape.
func Equal(a, b Sexp) bool {
	if a.IsNil() || b.IsNil() {
		return a.IsNil() && b.IsNil()
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagCons:
		ca, _ := a.AsCons()
		cb, _ := b.AsCons()
		return consSideEqual(ca.Car, cb.Car) && consSideEqual(ca.Cdr, cb.Cdr)
	case TagNumber:
		na, _ := a.AsNumber()
		nb, _ := b.AsNumber()
		return na == nb
	case TagSymbol, TagString, TagPath, TagNode:
		return a.Data == b.Data
	case TagBuiltIn:
		ba, _ := a.AsBuiltIn()
		bb, _ := b.AsBuiltIn()
		return ba.Name() == bb.Name()
	case TagProcedure:
		pa, _ := a.AsProcedure()
		pb, _ := b.AsProcedure()
		return pa.equal(pb)
	case TagSymNodeTable:
		ta, _ := a.AsSymNodeTable()
		tb, _ := b.AsSymNodeTable()
		return ta.equal(tb)
	case TagLocalNodeTable:
		ta, _ := a.AsLocalNodeTable()
		tb, _ := b.AsLocalNodeTable()
		return ta.equal(tb)
	case TagSymSexpTable:
		ta, _ := a.AsSymSexpTable()
		tb, _ := b.AsSymSexpTable()
		return ta.equal(tb)
	case TagVector:
		va, _ := a.AsVector()
		vb, _ := b.AsVector()
		if len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func consSideEqual(a, b *Sexp) bool {
	if a == nil || b == nil {
		an, bn := Nil(), Nil()
		if a != nil {
			an = *a
		}
		if b != nil {
			bn = *b
		}
		return Equal(an, bn)
	}
	return Equal(*a, *b)
}

// Copy returns a deep copy of s. Cons cells and vectors are duplicated;
// immutable payloads are shared.
func (s Sexp) Copy() Sexp {
	switch s.Tag {
	case TagCons:
		c, _ := s.AsCons()
		if c == nil || (c.Car == nil && c.Cdr == nil) {
			return Nil()
		}
		out := &Cons{}
		if c.Car != nil {
			car := c.Car.Copy()
			out.Car = &car
		}
		if c.Cdr != nil {
			cdr := c.Cdr.Copy()
			out.Cdr = &cdr
		}
		return ConsSexp(out)
	case TagVector:
		v, _ := s.AsVector()
		out := make([]Sexp, len(v))
		for i := range v {
			out[i] = v[i].Copy()
		}
		return VectorSexp(out)
	case TagProcedure:
		p, _ := s.AsProcedure()
		return ProcSexp(p.copy())
	case TagSymNodeTable:
		t, _ := s.AsSymNodeTable()
		return SymNodeSexp(t.copy())
	case TagLocalNodeTable:
		t, _ := s.AsLocalNodeTable()
		return LocalNodeTableSexp(t.copy())
	case TagSymSexpTable:
		t, _ := s.AsSymSexpTable()
		return SymSexpTableSexp(t.copy())
	default:
		return s
	}
}

// String renders s in plain read syntax with no designation awareness.
func (s Sexp) String() string {
	var b strings.Builder
	writeSexp(&b, s, writePrimitivePlain)
	return b.String()
}
