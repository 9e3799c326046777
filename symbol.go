// symbol.go: symbol primitive and the policies that gate which identifier
// strings may become symbols in a given setting.
//
// Plain user code runs under PolicyBase, which rejects the administrative
// namespace (dunder prefixes and caret sigils). The env (de)serializer runs
// under PolicyEnvSerde, which additionally admits node/triple sigils like
// `^12`, `^t3`, `^2^7` and `^2^t4`.
package amlang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type Symbol string

func (s Symbol) String() string { return string(s) }

// SymbolPolicy validates an identifier string.
type SymbolPolicy func(s string) error

func symbolChar(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	switch r {
	case '(', ')', '\'', '"', ';':
		return false
	}
	return true
}

func wellFormedIdentifier(s string) error {
	if s == "" {
		return fmt.Errorf("empty symbol")
	}
	for _, r := range s {
		if !symbolChar(r) {
			return fmt.Errorf("invalid symbol char %q in %q", r, s)
		}
	}
	return nil
}

// PolicyBase admits ordinary identifiers only.
func PolicyBase(s string) error {
	if err := wellFormedIdentifier(s); err != nil {
		return err
	}
	if strings.HasPrefix(s, "__") {
		return fmt.Errorf("dunder prefix is reserved: %q", s)
	}
	if strings.ContainsRune(s, '^') {
		return fmt.Errorf("caret is reserved for node sigils: %q", s)
	}
	return nil
}

// PolicyAdmin additionally admits the dunder namespace.
func PolicyAdmin(s string) error {
	if err := wellFormedIdentifier(s); err != nil {
		return err
	}
	if strings.ContainsRune(s, '^') {
		return fmt.Errorf("caret is reserved for node sigils: %q", s)
	}
	return nil
}

// PolicyEnvSerde additionally admits node and triple sigils.
func PolicyEnvSerde(s string) error {
	if _, ok := ParseSigil(Symbol(s)); ok {
		return nil
	}
	return PolicyAdmin(s)
}

var (
	reLocalNode    = regexp.MustCompile(`^\^(\d+)$`)
	reLocalTriple  = regexp.MustCompile(`^\^t(\d+)$`)
	reGlobalNode   = regexp.MustCompile(`^\^(\d+)\^(\d+)$`)
	reGlobalTriple = regexp.MustCompile(`^\^(\d+)\^t(\d+)$`)
)

// SigilInfo is the decoded form of an administrative node sigil.
type SigilInfo struct {
	Global bool
	Triple bool
	Env    uint64 // meta-env local id; meaningful when Global
	ID     uint64 // node id, or triple index when Triple
}

// ParseSigil decodes the four sigil shapes. Non-sigil symbols return false.
func ParseSigil(sym Symbol) (SigilInfo, bool) {
	s := string(sym)
	if m := reLocalNode.FindStringSubmatch(s); m != nil {
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return SigilInfo{}, false
		}
		return SigilInfo{ID: id}, true
	}
	if m := reLocalTriple.FindStringSubmatch(s); m != nil {
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return SigilInfo{}, false
		}
		return SigilInfo{Triple: true, ID: id}, true
	}
	if m := reGlobalNode.FindStringSubmatch(s); m != nil {
		env, err1 := strconv.ParseUint(m[1], 10, 64)
		id, err2 := strconv.ParseUint(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			return SigilInfo{}, false
		}
		return SigilInfo{Global: true, Env: env, ID: id}, true
	}
	if m := reGlobalTriple.FindStringSubmatch(s); m != nil {
		env, err1 := strconv.ParseUint(m[1], 10, 64)
		id, err2 := strconv.ParseUint(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			return SigilInfo{}, false
		}
		return SigilInfo{Global: true, Triple: true, Env: env, ID: id}, true
	}
	return SigilInfo{}, false
}
