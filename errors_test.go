package amlang

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorReifyShape(t *testing.T) {
	err := &Error{Kind: &WrongArgumentCount{Given: 2, Expected: Exactly(1)}}
	want := "(WrongArgumentCount (given . 2) (expected Exactly 1))"
	if got := err.Reify().String(); got != want {
		t.Fatalf("reify: %s, want %s", got, want)
	}

	err = &Error{Kind: &UnboundSymbol{Name: "ghost"}}
	if got := err.Reify().String(); got != "(UnboundSymbol (name . ghost))" {
		t.Fatalf("reify: %s", got)
	}
}

func TestErrorKindMatching(t *testing.T) {
	var err error = &Error{Kind: &DuplicateTriple{Triple: Nil()}}

	var dup *DuplicateTriple
	if !errors.As(err, &dup) {
		t.Fatalf("errors.As did not reach the kind")
	}
	var unbound *UnboundSymbol
	if errors.As(err, &unbound) {
		t.Fatalf("errors.As matched the wrong kind")
	}
}

func TestRenderErrorTrace(t *testing.T) {
	itp := newTestInterpreter(t)
	eval(t, itp, "(def boom (lambda (f) (f 1)))")
	err := evalErr(t, itp, "(boom 4)")

	rendered := RenderError(itp.Agent(), err)
	if !strings.Contains(rendered, "InvalidArgument") {
		t.Fatalf("rendered error lacks the kind:\n%s", rendered)
	}
	if !strings.Contains(rendered, "--TRACE--") {
		t.Fatalf("rendered error lacks the trace:\n%s", rendered)
	}
}

func TestRenderErrorWithoutAgent(t *testing.T) {
	err := &Error{Kind: &InvalidState{Actual: "a", Expected: "b"}}
	rendered := RenderError(nil, err)
	if !strings.Contains(rendered, "InvalidState") {
		t.Fatalf("rendered: %s", rendered)
	}
}
