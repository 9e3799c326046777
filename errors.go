// errors.go: the error taxonomy and its carrier.
//
// What this file does
// -------------------
// Every fallible operation in this package returns an *Error: an error kind
// plus an optional snapshot of the agent's execution stack captured at the
// point of failure. Kinds are small structs implementing ErrorKind; each can
// reify itself into an s-expression of the shape `(KindName (field . value)
// …)`, which is what front-ends print. Construction is cheap when no agent
// state is at hand (newError with a nil agent), and callers branch on kinds
// with errors.As.
package amlang

import (
	"fmt"
	"strings"
)

// ErrorKind is one member of the error taxonomy.
type ErrorKind interface {
	error
	Reify() Sexp
}

// Error carries a kind plus, when available, the exec-stack snapshot taken
// when the error was raised.
type Error struct {
	Kind  ErrorKind
	stack []*ExecFrame
}

func (e *Error) Error() string { return e.Kind.Error() }

func (e *Error) Unwrap() error { return e.Kind }

// Stack returns the captured exec-stack snapshot, newest frame last. Nil if
// the error was raised without agent state.
func (e *Error) Stack() []*ExecFrame { return e.stack }

// Reify renders the error kind as an s-expression.
func (e *Error) Reify() Sexp { return e.Kind.Reify() }

// newError wraps kind, snapshotting a's execution stack when a is non-nil.
func newError(a *Agent, kind ErrorKind) *Error {
	err := &Error{Kind: kind}
	if a != nil && len(a.execStack) > 0 {
		err.stack = make([]*ExecFrame, len(a.execStack))
		copy(err.stack, a.execStack)
	}
	return err
}

func reifyStruct(name string, fields ...Sexp) Sexp {
	return ListDot(List(fields...), Sym(name))
}

func field(name string, val Sexp) Sexp {
	return Cons2(Sym(name), val)
}

// Language-level kinds.

type InvalidArgument struct {
	Given    Sexp
	Expected string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: given %s, expected %s", e.Given, e.Expected)
}
func (e *InvalidArgument) Reify() Sexp {
	return reifyStruct("InvalidArgument",
		field("given", e.Given), field("expected", Str(e.Expected)))
}

type InvalidState struct {
	Actual   string
	Expected string
}

func (e *InvalidState) Error() string {
	return fmt.Sprintf("invalid state: %s, expected %s", e.Actual, e.Expected)
}
func (e *InvalidState) Reify() Sexp {
	return reifyStruct("InvalidState",
		field("actual", Str(e.Actual)), field("expected", Str(e.Expected)))
}

type InvalidSexp struct {
	Val Sexp
}

func (e *InvalidSexp) Error() string {
	return fmt.Sprintf("invalid sexp: %s", e.Val)
}
func (e *InvalidSexp) Reify() Sexp {
	return reifyStruct("InvalidSexp", field("val", e.Val))
}

type CountKind uint8

const (
	CountExactly CountKind = iota
	CountAtLeast
	CountAtMost
)

// ExpectedCount describes an arity constraint.
type ExpectedCount struct {
	Kind CountKind
	N    int
}

func Exactly(n int) ExpectedCount { return ExpectedCount{CountExactly, n} }
func AtLeast(n int) ExpectedCount { return ExpectedCount{CountAtLeast, n} }
func AtMost(n int) ExpectedCount  { return ExpectedCount{CountAtMost, n} }

func (c ExpectedCount) String() string {
	switch c.Kind {
	case CountAtLeast:
		return fmt.Sprintf("at least %d", c.N)
	case CountAtMost:
		return fmt.Sprintf("at most %d", c.N)
	}
	return fmt.Sprintf("exactly %d", c.N)
}

func (c ExpectedCount) reify() Sexp {
	name := "Exactly"
	switch c.Kind {
	case CountAtLeast:
		name = "AtLeast"
	case CountAtMost:
		name = "AtMost"
	}
	return List(Sym(name), Int(int64(c.N)))
}

type WrongArgumentCount struct {
	Given    int
	Expected ExpectedCount
}

func (e *WrongArgumentCount) Error() string {
	return fmt.Sprintf("wrong argument count: given %d, expected %s", e.Given, e.Expected)
}
func (e *WrongArgumentCount) Reify() Sexp {
	return reifyStruct("WrongArgumentCount",
		field("given", Int(int64(e.Given))), field("expected", e.Expected.reify()))
}

type UnboundSymbol struct {
	Name Symbol
}

func (e *UnboundSymbol) Error() string {
	return fmt.Sprintf("unbound symbol: %s", e.Name)
}
func (e *UnboundSymbol) Reify() Sexp {
	return reifyStruct("UnboundSymbol", field("name", SymSexp(e.Name)))
}

type AlreadyBoundSymbol struct {
	Name Symbol
}

func (e *AlreadyBoundSymbol) Error() string {
	return fmt.Sprintf("already bound symbol: %s", e.Name)
}
func (e *AlreadyBoundSymbol) Reify() Sexp {
	return reifyStruct("AlreadyBoundSymbol", field("name", SymSexp(e.Name)))
}

type DuplicateTriple struct {
	Triple Sexp
}

func (e *DuplicateTriple) Error() string {
	return fmt.Sprintf("duplicate triple: %s", e.Triple)
}
func (e *DuplicateTriple) Reify() Sexp {
	return reifyStruct("DuplicateTriple", field("triple", e.Triple))
}

type RejectedTriple struct {
	Triple Sexp
	Result Sexp
}

func (e *RejectedTriple) Error() string {
	return fmt.Sprintf("rejected triple: %s (handler returned %s)", e.Triple, e.Result)
}
func (e *RejectedTriple) Reify() Sexp {
	return reifyStruct("RejectedTriple",
		field("triple", e.Triple), field("result", e.Result))
}

type Unsupported struct {
	Msg string
}

func (e *Unsupported) Error() string { return "unsupported: " + e.Msg }
func (e *Unsupported) Reify() Sexp {
	return reifyStruct("Unsupported", field("msg", Str(e.Msg)))
}

// Tokenize and parse kinds.

type TokenizeReason uint8

const (
	TokenizeInvalidSymbol TokenizeReason = iota
	TokenizeUnterminatedString
	TokenizeBadEscape
)

func (r TokenizeReason) String() string {
	switch r {
	case TokenizeInvalidSymbol:
		return "InvalidSymbol"
	case TokenizeUnterminatedString:
		return "UnterminatedString"
	case TokenizeBadEscape:
		return "BadEscape"
	}
	return "?"
}

type TokenizeError struct {
	Reason TokenizeReason
	Text   string
	Line   int
	Cause  error
}

func (e *TokenizeError) Error() string {
	msg := fmt.Sprintf("tokenize error at line %d: %s %q", e.Line, e.Reason, e.Text)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}
func (e *TokenizeError) Unwrap() error { return e.Cause }
func (e *TokenizeError) Reify() Sexp {
	return reifyStruct("TokenizeError",
		field("reason", Sym(e.Reason.String())),
		field("text", Str(e.Text)),
		field("line", Int(int64(e.Line))))
}

type ParseReason uint8

const (
	ParseDepthOverflow ParseReason = iota
	ParseUnmatchedOpen
	ParseUnmatchedClose
	ParseIsolatedPeriod
	ParseNotPenultimatePeriod
	ParseTrailingQuote
)

func (r ParseReason) String() string {
	switch r {
	case ParseDepthOverflow:
		return "DepthOverflow"
	case ParseUnmatchedOpen:
		return "UnmatchedOpen"
	case ParseUnmatchedClose:
		return "UnmatchedClose"
	case ParseIsolatedPeriod:
		return "IsolatedPeriod"
	case ParseNotPenultimatePeriod:
		return "NotPenultimatePeriod"
	case ParseTrailingQuote:
		return "TrailingQuote"
	}
	return "?"
}

type ParseError struct {
	Reason ParseReason
	Tok    Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s near %q",
		e.Tok.Line, e.Tok.Col, e.Reason, e.Tok.Text)
}
func (e *ParseError) Reify() Sexp {
	return reifyStruct("ParseError",
		field("reason", Sym(e.Reason.String())),
		field("line", Int(int64(e.Tok.Line))),
		field("col", Int(int64(e.Tok.Col))))
}

// Deserialization kinds.

type DeserializeReason uint8

const (
	DeserializeMissingHeaderSection DeserializeReason = iota
	DeserializeMissingNodeSection
	DeserializeMissingTripleSection
	DeserializeUnexpectedCommand
	DeserializeExpectedSymbol
	DeserializeUnrecognizedBuiltIn
	DeserializeInvalidNodeEntry
	DeserializeExtraneousData
	DeserializeMissingData
	DeserializeTypeMismatch
	DeserializeVersionMismatch
)

func (r DeserializeReason) String() string {
	switch r {
	case DeserializeMissingHeaderSection:
		return "MissingHeaderSection"
	case DeserializeMissingNodeSection:
		return "MissingNodeSection"
	case DeserializeMissingTripleSection:
		return "MissingTripleSection"
	case DeserializeUnexpectedCommand:
		return "UnexpectedCommand"
	case DeserializeExpectedSymbol:
		return "ExpectedSymbol"
	case DeserializeUnrecognizedBuiltIn:
		return "UnrecognizedBuiltIn"
	case DeserializeInvalidNodeEntry:
		return "InvalidNodeEntry"
	case DeserializeExtraneousData:
		return "ExtraneousData"
	case DeserializeMissingData:
		return "MissingData"
	case DeserializeTypeMismatch:
		return "TypeMismatch"
	case DeserializeVersionMismatch:
		return "VersionMismatch"
	}
	return "?"
}

type DeserializeError struct {
	Reason DeserializeReason
	Detail string
}

func (e *DeserializeError) Error() string {
	msg := "deserialize error: " + e.Reason.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
func (e *DeserializeError) Reify() Sexp {
	fields := []Sexp{field("reason", Sym(e.Reason.String()))}
	if e.Detail != "" {
		fields = append(fields, field("detail", Str(e.Detail)))
	}
	return reifyStruct("DeserializeError", fields...)
}

// IoError wraps an underlying file-system error.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}
func (e *IoError) Unwrap() error { return e.Err }
func (e *IoError) Reify() Sexp {
	return reifyStruct("IoError",
		field("op", Str(e.Op)), field("err", Str(e.Err.Error())))
}

// RenderError formats an error for a front-end: the reified kind, then the
// execution trace if a snapshot was captured.
func RenderError(a *Agent, err error) string {
	var b strings.Builder
	if e, ok := err.(*Error); ok {
		if a != nil {
			b.WriteString(a.SexpString(e.Reify()))
		} else {
			b.WriteString(e.Reify().String())
		}
		if frames := e.Stack(); len(frames) > 0 {
			b.WriteString("\n  --TRACE--")
			for i := len(frames) - 1; i >= 0; i-- {
				b.WriteString(fmt.Sprintf("\n   %d)  ", len(frames)-1-i))
				if a != nil {
					b.WriteString(a.SexpString(NodeSexp(frames[i].Context())))
				} else {
					b.WriteString(NodeSexp(frames[i].Context()).String())
				}
			}
		}
		return b.String()
	}
	return err.Error()
}
