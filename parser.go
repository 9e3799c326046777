// parser.go: depth-tracking parser from tokens to s-expressions.
//
// The parser is fed tokens and exposes completed top-level expressions
// through Next, so a front-end can interleave reading and evaluation.
// Supports quote and dotted pairs; list depth is bounded by MaxListDepth.
package amlang

import "strings"

const MaxListDepth = 128

type Parser struct {
	frames []*parseFrame
	out    []Sexp

	// Quotes pending at top level, waiting for the next expression.
	quotes    int
	lastQuote Token
}

type parseFrame struct {
	open    Token
	elems   []Sexp
	quotes  int
	dotSeen bool
	tailSet bool
	tail    Sexp
}

func NewParser() *Parser { return &Parser{} }

// Next pops the next completed top-level expression.
func (p *Parser) Next() (Sexp, bool) {
	if len(p.out) == 0 {
		return Sexp{}, false
	}
	s := p.out[0]
	p.out = p.out[1:]
	return s, true
}

// Feed consumes one token.
func (p *Parser) Feed(tok Token) error {
	switch tok.Kind {
	case TokOpen:
		if len(p.frames) >= MaxListDepth {
			return parseErr(ParseDepthOverflow, tok)
		}
		f := &parseFrame{open: tok}
		p.frames = append(p.frames, f)

	case TokClose:
		if len(p.frames) == 0 {
			return parseErr(ParseUnmatchedClose, tok)
		}
		f := p.frames[len(p.frames)-1]
		if f.quotes > 0 {
			return parseErr(ParseTrailingQuote, tok)
		}
		if f.dotSeen && !f.tailSet {
			return parseErr(ParseNotPenultimatePeriod, tok)
		}
		p.frames = p.frames[:len(p.frames)-1]
		tail := Nil()
		if f.tailSet {
			tail = f.tail
		}
		p.deliver(ListDot(tail, f.elems...))

	case TokQuote:
		if len(p.frames) == 0 {
			p.quotes++
			p.lastQuote = tok
		} else {
			f := p.frames[len(p.frames)-1]
			f.quotes++
		}

	case TokPeriod:
		if len(p.frames) == 0 {
			return parseErr(ParseIsolatedPeriod, tok)
		}
		f := p.frames[len(p.frames)-1]
		if f.quotes > 0 || len(f.elems) == 0 {
			return parseErr(ParseIsolatedPeriod, tok)
		}
		if f.dotSeen {
			return parseErr(ParseNotPenultimatePeriod, tok)
		}
		f.dotSeen = true

	case TokPrimitive:
		if len(p.frames) > 0 {
			f := p.frames[len(p.frames)-1]
			if f.dotSeen && f.tailSet {
				return parseErr(ParseNotPenultimatePeriod, tok)
			}
		}
		p.deliver(tok.Lit)
	}
	return nil
}

// Finish reports an error if a form is still open.
func (p *Parser) Finish() error {
	if len(p.frames) > 0 {
		return parseErr(ParseUnmatchedOpen, p.frames[len(p.frames)-1].open)
	}
	if p.quotes > 0 {
		return parseErr(ParseTrailingQuote, p.lastQuote)
	}
	return nil
}

// deliver routes a completed expression to the enclosing frame, applying any
// pending quotes, or to the output queue at top level.
func (p *Parser) deliver(s Sexp) {
	if len(p.frames) == 0 {
		for ; p.quotes > 0; p.quotes-- {
			s = List(Sym("quote"), s)
		}
		p.out = append(p.out, s)
		return
	}
	f := p.frames[len(p.frames)-1]
	for ; f.quotes > 0; f.quotes-- {
		s = List(Sym("quote"), s)
	}
	if f.dotSeen {
		f.tail = s
		f.tailSet = true
		return
	}
	f.elems = append(f.elems, s)
}

func parseErr(reason ParseReason, tok Token) error {
	return &Error{Kind: &ParseError{Reason: reason, Tok: tok}}
}

// ParseString tokenizes and parses a complete source string under policy.
// It stops at the first error.
func ParseString(src string, policy SymbolPolicy) ([]Sexp, error) {
	tz := NewTokenizer(policy)
	parser := NewParser()
	for _, line := range strings.Split(src, "\n") {
		if err := tz.Feed(line); err != nil {
			return nil, err
		}
		for _, tok := range tz.Drain() {
			if err := parser.Feed(tok); err != nil {
				return nil, err
			}
		}
	}
	if err := tz.Finish(); err != nil {
		return nil, err
	}
	for _, tok := range tz.Drain() {
		if err := parser.Feed(tok); err != nil {
			return nil, err
		}
	}
	if err := parser.Finish(); err != nil {
		return nil, err
	}
	var out []Sexp
	for {
		s, ok := parser.Next()
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseOne parses exactly one expression from src.
func ParseOne(src string, policy SymbolPolicy) (Sexp, error) {
	sexps, err := ParseString(src, policy)
	if err != nil {
		return Sexp{}, err
	}
	if len(sexps) == 0 {
		return Sexp{}, &Error{Kind: &DeserializeError{Reason: DeserializeMissingData}}
	}
	if len(sexps) > 1 {
		return Sexp{}, &Error{Kind: &DeserializeError{
			Reason: DeserializeExtraneousData, Detail: sexps[1].String()}}
	}
	return sexps[0], nil
}
