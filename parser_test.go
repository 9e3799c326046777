package amlang

import (
	"errors"
	"strings"
	"testing"
)

func parseOne(t *testing.T, src string) Sexp {
	t.Helper()
	s, err := ParseOne(src, PolicyBase)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return s
}

// parseReason extracts the ParseReason of an error, failing the test if the
// error is of any other kind.
func parseReason(t *testing.T, src string, err error) ParseReason {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("parse %q: error %v is not an *Error", src, err)
	}
	pe, ok := e.Kind.(*ParseError)
	if !ok {
		t.Fatalf("parse %q: kind %T, want *ParseError", src, e.Kind)
	}
	return pe.Reason
}

func TestParseBasicForms(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"()", "()"},
		{"a", "a"},
		{"42", "42"},
		{"-3.5", "-3.5"},
		{`"hi there"`, `"hi there"`},
		{"(a b c)", "(a b c)"},
		{"(a (b c) d)", "(a (b c) d)"},
		{"(a . b)", "(a . b)"},
		{"(a b . c)", "(a b . c)"},
		{"'x", "'x"},
		{"''x", "''x"},
		{"'(a 'b)", "'(a 'b)"},
		{"(a . ())", "(a)"},
	}
	for _, c := range cases {
		got := parseOne(t, c.src)
		if got.String() != c.want {
			t.Errorf("parse %q = %s, want %s", c.src, got.String(), c.want)
		}
	}
}

func TestParseMultiline(t *testing.T) {
	src := `
; leading comment
(def fact          ; trailing comment
  (lambda (n)
    (if (eq n 0) 1
        (* n (fact (- n 1))))))
(fact 4)
`
	sexps, err := ParseString(src, PolicyBase)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sexps) != 2 {
		t.Fatalf("parsed %d expressions, want 2", len(sexps))
	}
	elems, _ := sexps[0].Elements()
	if len(elems) == 0 || !Equal(elems[0], Sym("def")) {
		t.Fatalf("first expr: %s", sexps[0].String())
	}
	if sexps[1].String() != "(fact 4)" {
		t.Fatalf("second expr: %s", sexps[1].String())
	}
}

func TestParseErrors(t *testing.T) {
	deep := strings.Repeat("(", MaxListDepth+1)
	cases := []struct {
		src  string
		want ParseReason
	}{
		{")", ParseUnmatchedClose},
		{"(a", ParseUnmatchedOpen},
		{"(a ')", ParseTrailingQuote},
		{"'", ParseTrailingQuote},
		{".", ParseIsolatedPeriod},
		{"(. a)", ParseIsolatedPeriod},
		{"(a .)", ParseNotPenultimatePeriod},
		{"(a . b c)", ParseNotPenultimatePeriod},
		{"(a . b . c)", ParseNotPenultimatePeriod},
		{deep, ParseDepthOverflow},
	}
	for _, c := range cases {
		_, err := ParseString(c.src, PolicyBase)
		if err == nil {
			t.Errorf("parse %q: no error", c.src)
			continue
		}
		if got := parseReason(t, c.src, err); got != c.want {
			t.Errorf("parse %q: reason %v, want %v", c.src, got, c.want)
		}
	}
}

func TestTokenizeStrings(t *testing.T) {
	s := parseOne(t, `"a\"b\\c\nd\te"`)
	str, ok := s.AsString()
	if !ok {
		t.Fatalf("not a string: %s", s.String())
	}
	if str != "a\"b\\c\nd\te" {
		t.Fatalf("escapes: %q", str)
	}

	// Strings continue across physical lines.
	multi := parseOne(t, "\"one\ntwo\"")
	str, _ = multi.AsString()
	if str != "one\ntwo" {
		t.Fatalf("multi-line string: %q", str)
	}
}

func TestTokenizeErrors(t *testing.T) {
	reason := func(src string, policy SymbolPolicy) TokenizeReason {
		t.Helper()
		_, err := ParseString(src, policy)
		if err == nil {
			t.Fatalf("tokenize %q: no error", src)
		}
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("tokenize %q: %v is not an *Error", src, err)
		}
		te, ok := e.Kind.(*TokenizeError)
		if !ok {
			t.Fatalf("tokenize %q: kind %T, want *TokenizeError", src, e.Kind)
		}
		return te.Reason
	}

	if r := reason(`"open`, PolicyBase); r != TokenizeUnterminatedString {
		t.Errorf("unterminated string: %v", r)
	}
	if r := reason(`"bad \q escape"`, PolicyBase); r != TokenizeBadEscape {
		t.Errorf("bad escape: %v", r)
	}
	if r := reason("__hidden", PolicyBase); r != TokenizeInvalidSymbol {
		t.Errorf("dunder under base policy: %v", r)
	}
	if r := reason("^4", PolicyBase); r != TokenizeInvalidSymbol {
		t.Errorf("sigil under base policy: %v", r)
	}

	// The serde policy admits both the dunder namespace and sigils.
	if _, err := ParseString("__hidden ^4 ^2^t7", PolicyEnvSerde); err != nil {
		t.Errorf("serde policy: %v", err)
	}
}

func TestTokenizerDepth(t *testing.T) {
	tz := NewTokenizer(PolicyBase)
	feed := func(line string, want int) {
		t.Helper()
		if err := tz.Feed(line); err != nil {
			t.Fatalf("feed %q: %v", line, err)
		}
		if tz.Depth() != want {
			t.Fatalf("after %q: depth %d, want %d", line, tz.Depth(), want)
		}
	}
	feed("(lambda (x)", 1)
	feed("  (+ x", 2)
	feed("     1))", 0)
	feed(`"still open`, 1)
	feed(`done"`, 0)
}

func TestParseSigil(t *testing.T) {
	cases := []struct {
		sym  Symbol
		want SigilInfo
	}{
		{"^12", SigilInfo{ID: 12}},
		{"^t3", SigilInfo{Triple: true, ID: 3}},
		{"^2^7", SigilInfo{Global: true, Env: 2, ID: 7}},
		{"^2^t4", SigilInfo{Global: true, Triple: true, Env: 2, ID: 4}},
	}
	for _, c := range cases {
		got, ok := ParseSigil(c.sym)
		if !ok || got != c.want {
			t.Errorf("ParseSigil(%q) = %+v %v, want %+v", c.sym, got, ok, c.want)
		}
	}
	for _, bad := range []Symbol{"x", "^", "^t", "^1^", "^^2", "^a", "12"} {
		if _, ok := ParseSigil(bad); ok {
			t.Errorf("ParseSigil(%q) should fail", bad)
		}
	}
}
