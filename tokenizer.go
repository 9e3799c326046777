// tokenizer.go: push-driven, line-based tokenizer.
//
// Lines are fed in with Feed and completed tokens are pulled with Next; the
// REPL uses Depth to decide whether a form is still open and a continuation
// prompt is needed. Strings may span lines; a still-open string counts
// toward Depth. Comments run from ';' to end of line.
package amlang

import "strings"

type TokenKind uint8

const (
	TokOpen TokenKind = iota
	TokClose
	TokQuote
	TokPeriod
	TokPrimitive
)

func (k TokenKind) String() string {
	switch k {
	case TokOpen:
		return "("
	case TokClose:
		return ")"
	case TokQuote:
		return "'"
	case TokPeriod:
		return "."
	case TokPrimitive:
		return "primitive"
	}
	return "?"
}

// Token is one lexical item. Lit is populated for TokPrimitive.
type Token struct {
	Kind TokenKind
	Lit  Sexp
	Text string
	Line int // 1-based
	Col  int // 1-based
}

type Tokenizer struct {
	policy SymbolPolicy
	out    []Token

	line  int
	depth int

	inString bool
	escaped  bool
	buf      strings.Builder
	bufLine  int
	bufCol   int
}

func NewTokenizer(policy SymbolPolicy) *Tokenizer {
	if policy == nil {
		policy = PolicyBase
	}
	return &Tokenizer{policy: policy}
}

// Depth is the number of currently open parens, plus one if inside an
// unterminated string.
func (t *Tokenizer) Depth() int {
	d := t.depth
	if t.inString {
		d++
	}
	return d
}

// Next pops the next ready token.
func (t *Tokenizer) Next() (Token, bool) {
	if len(t.out) == 0 {
		return Token{}, false
	}
	tok := t.out[0]
	t.out = t.out[1:]
	return tok, true
}

// Drain pops all ready tokens.
func (t *Tokenizer) Drain() []Token {
	out := t.out
	t.out = nil
	return out
}

// Feed tokenizes one line (without its newline).
func (t *Tokenizer) Feed(line string) error {
	t.line++
	col := 0
	for _, r := range line {
		col++
		if t.inString {
			if t.escaped {
				t.escaped = false
				switch r {
				case 't':
					t.buf.WriteByte('\t')
				case 'r':
					t.buf.WriteByte('\r')
				case 'n':
					t.buf.WriteByte('\n')
				case '\\':
					t.buf.WriteByte('\\')
				case '"':
					t.buf.WriteByte('"')
				default:
					return &Error{Kind: &TokenizeError{
						Reason: TokenizeBadEscape,
						Text:   string(r),
						Line:   t.line,
					}}
				}
				continue
			}
			switch r {
			case '\\':
				t.escaped = true
			case '"':
				t.inString = false
				t.push(Token{Kind: TokPrimitive, Lit: Str(t.buf.String()),
					Text: t.buf.String(), Line: t.bufLine, Col: t.bufCol})
				t.buf.Reset()
			default:
				t.buf.WriteRune(r)
			}
			continue
		}

		switch {
		case r == ';':
			// Comment to end of line.
			if err := t.endWord(); err != nil {
				return err
			}
			return nil
		case r == '"':
			if err := t.endWord(); err != nil {
				return err
			}
			t.inString = true
			t.bufLine, t.bufCol = t.line, col
		case r == '(':
			if err := t.endWord(); err != nil {
				return err
			}
			t.depth++
			t.push(Token{Kind: TokOpen, Text: "(", Line: t.line, Col: col})
		case r == ')':
			if err := t.endWord(); err != nil {
				return err
			}
			if t.depth > 0 {
				t.depth--
			}
			t.push(Token{Kind: TokClose, Text: ")", Line: t.line, Col: col})
		case r == '\'':
			if err := t.endWord(); err != nil {
				return err
			}
			t.push(Token{Kind: TokQuote, Text: "'", Line: t.line, Col: col})
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			if err := t.endWord(); err != nil {
				return err
			}
		default:
			if t.buf.Len() == 0 {
				t.bufLine, t.bufCol = t.line, col
			}
			t.buf.WriteRune(r)
		}
	}

	if t.inString {
		// Strings continue across lines.
		t.buf.WriteByte('\n')
		return nil
	}
	return t.endWord()
}

// Finish reports an error if input ended inside a string.
func (t *Tokenizer) Finish() error {
	if t.inString {
		return &Error{Kind: &TokenizeError{
			Reason: TokenizeUnterminatedString,
			Text:   t.buf.String(),
			Line:   t.bufLine,
		}}
	}
	return t.endWord()
}

func (t *Tokenizer) push(tok Token) {
	t.out = append(t.out, tok)
}

func (t *Tokenizer) endWord() error {
	if t.buf.Len() == 0 {
		return nil
	}
	word := t.buf.String()
	t.buf.Reset()

	tok := Token{Kind: TokPrimitive, Text: word, Line: t.bufLine, Col: t.bufCol}
	if word == "." {
		tok.Kind = TokPeriod
		t.push(tok)
		return nil
	}
	if num, ok := ParseNumber(word); ok {
		tok.Lit = NumSexp(num)
		t.push(tok)
		return nil
	}
	if err := t.policy(word); err != nil {
		return &Error{Kind: &TokenizeError{
			Reason: TokenizeInvalidSymbol,
			Text:   word,
			Line:   t.bufLine,
			Cause:  err,
		}}
	}
	tok.Lit = SymSexp(Symbol(word))
	t.push(tok)
	return nil
}
