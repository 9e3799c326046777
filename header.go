// header.go: the versioned header record leading every env file.
package amlang

import (
	"fmt"
	"strings"
)

// FormatVersion is the env file format version this build reads and writes.
// Files whose major component differs are refused.
const FormatVersion = "0.1.0"

// EnvHeader is the parsed `(header …)` record. Entries beyond the known keys
// are preserved opaquely and re-emitted on serialize.
type EnvHeader struct {
	Version     string
	NodeCount   uint64
	TripleCount uint64
	Extra       []Sexp
}

func (h *EnvHeader) Reify() Sexp {
	entries := []Sexp{
		Sym("header"),
		List(Sym("version"), Str(h.Version)),
		List(Sym("node-count"), USizeSexp(h.NodeCount)),
		List(Sym("triple-count"), USizeSexp(h.TripleCount)),
	}
	entries = append(entries, h.Extra...)
	return List(entries...)
}

func parseHeader(s Sexp) (*EnvHeader, error) {
	elems, tail := s.Elements()
	if tail != nil || len(elems) == 0 {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeMissingHeaderSection, Detail: "malformed header record"}}
	}
	if head, ok := elems[0].AsSymbol(); !ok || head != "header" {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeMissingHeaderSection, Detail: "expected (header …)"}}
	}

	h := &EnvHeader{}
	seen := make(map[Symbol]bool)
	for _, entry := range elems[1:] {
		parts, etail := entry.Elements()
		if etail != nil || len(parts) != 2 {
			h.Extra = append(h.Extra, entry)
			continue
		}
		key, ok := parts[0].AsSymbol()
		if !ok {
			h.Extra = append(h.Extra, entry)
			continue
		}
		switch key {
		case "version", "node-count", "triple-count":
			if seen[key] {
				return nil, &Error{Kind: &DeserializeError{
					Reason: DeserializeTypeMismatch,
					Detail: fmt.Sprintf("duplicate header key %s", key)}}
			}
			seen[key] = true
		default:
			h.Extra = append(h.Extra, entry)
			continue
		}
		switch key {
		case "version":
			v, ok := parts[1].AsString()
			if !ok {
				return nil, &Error{Kind: &DeserializeError{
					Reason: DeserializeTypeMismatch, Detail: "version must be a string"}}
			}
			h.Version = v
		case "node-count":
			n, err := headerCount(parts[1])
			if err != nil {
				return nil, err
			}
			h.NodeCount = n
		case "triple-count":
			n, err := headerCount(parts[1])
			if err != nil {
				return nil, err
			}
			h.TripleCount = n
		}
	}

	if h.Version == "" {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeMissingHeaderSection, Detail: "header lacks version"}}
	}
	if majorOf(h.Version) != majorOf(FormatVersion) {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeVersionMismatch,
			Detail: fmt.Sprintf("file version %s, supported %s", h.Version, FormatVersion)}}
	}
	return h, nil
}

func headerCount(s Sexp) (uint64, error) {
	n, ok := s.AsNumber()
	if !ok {
		return 0, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch, Detail: "count must be a number"}}
	}
	u, ok := n.AsUint()
	if !ok {
		return 0, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch, Detail: "count must be non-negative"}}
	}
	return u, nil
}

func majorOf(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}
