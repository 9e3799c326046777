// deserialize.go: loading one environment from its env file.
//
// Loading is two-pass over the parsed sexp stream: designations first (so
// structure references can resolve by name), then node allocation in id
// order (skipping the already-seeded prelude), then triples inserted
// directly into the backend (the tell handler never fires on reload), and
// finally structure patching once every referenced id exists.
package amlang

import "fmt"

type nodeEntry struct {
	id        LocalNode
	structure *Sexp // parsed, unreflected
}

// DeserializeEnv loads src into e, which must be freshly prelude-seeded and
// known as envNode in the meta-env.
func DeserializeEnv(src string, e *Environment, envNode LocalNode) (*EnvHeader, error) {
	stream, err := ParseString(src, PolicyEnvSerde)
	if err != nil {
		return nil, err
	}

	var headerSexp, nodesSec, triplesSec, designationsSec *Sexp
	for i := range stream {
		s := stream[i]
		elems, tail := s.Elements()
		if tail != nil || len(elems) == 0 {
			return nil, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnexpectedCommand, Detail: s.String()}}
		}
		head, ok := elems[0].AsSymbol()
		if !ok {
			return nil, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnexpectedCommand, Detail: s.String()}}
		}
		switch head {
		case "header":
			headerSexp = &stream[i]
		case "nodes":
			nodesSec = &stream[i]
		case "triples":
			triplesSec = &stream[i]
		case "designations":
			designationsSec = &stream[i]
		default:
			return nil, &Error{Kind: &DeserializeError{
				Reason: DeserializeUnexpectedCommand, Detail: string(head)}}
		}
	}
	if headerSexp == nil {
		return nil, &Error{Kind: &DeserializeError{Reason: DeserializeMissingHeaderSection}}
	}
	if nodesSec == nil {
		return nil, &Error{Kind: &DeserializeError{Reason: DeserializeMissingNodeSection}}
	}
	if triplesSec == nil {
		return nil, &Error{Kind: &DeserializeError{Reason: DeserializeMissingTripleSection}}
	}

	header, err := parseHeader(*headerSexp)
	if err != nil {
		return nil, err
	}

	if designationsSec != nil {
		if err := loadDesignations(*designationsSec, e); err != nil {
			return nil, err
		}
	}

	entries, err := allocateNodes(*nodesSec, e)
	if err != nil {
		return nil, err
	}
	if header.NodeCount != e.NodeCount() {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch,
			Detail: fmt.Sprintf("node-count %d, file carries %d", header.NodeCount, e.NodeCount())}}
	}

	if err := loadTriples(*triplesSec, e, envNode); err != nil {
		return nil, err
	}
	if header.TripleCount != e.TripleCount() {
		return nil, &Error{Kind: &DeserializeError{
			Reason: DeserializeTypeMismatch,
			Detail: fmt.Sprintf("triple-count %d, file carries %d", header.TripleCount, e.TripleCount())}}
	}

	for _, entry := range entries {
		if entry.structure == nil {
			continue
		}
		structure, err := reflectStructure(*entry.structure, e, envNode)
		if err != nil {
			return nil, err
		}
		e.SetEntry(entry.id, structure)
	}
	return header, nil
}

func loadDesignations(section Sexp, e *Environment) error {
	elems, _ := section.Elements()
	for _, entry := range elems[1:] {
		key, val, err := reflectPair(entry)
		if err != nil {
			return err
		}
		sym, ok := key.AsSymbol()
		if !ok {
			return &Error{Kind: &DeserializeError{
				Reason: DeserializeExpectedSymbol, Detail: entry.String()}}
		}
		sigil, ok := val.AsSymbol()
		if !ok {
			return &Error{Kind: &DeserializeError{
				Reason: DeserializeExpectedSymbol, Detail: entry.String()}}
		}
		info, ok := ParseSigil(sigil)
		if !ok || info.Global || info.Triple {
			return &Error{Kind: &DeserializeError{
				Reason: DeserializeInvalidNodeEntry,
				Detail: fmt.Sprintf("designation target %q", sigil)}}
		}
		e.InsertDesignation(LocalNode(info.ID), sym, NodeDesignation)
	}
	return nil
}

// allocateNodes issues ids for every entry beyond the prelude, verifying the
// file's ids are dense and in order. Structures are returned unreflected for
// the patch pass.
func allocateNodes(section Sexp, e *Environment) ([]nodeEntry, error) {
	elems, _ := section.Elements()
	existing := e.NodeCount()
	var out []nodeEntry
	for i, entry := range elems[1:] {
		expect := LocalNode(i)
		var sigil Symbol
		var structure *Sexp
		if sym, ok := entry.AsSymbol(); ok {
			sigil = sym
		} else {
			parts, tail := entry.Elements()
			if tail != nil || len(parts) != 2 {
				return nil, &Error{Kind: &DeserializeError{
					Reason: DeserializeInvalidNodeEntry, Detail: entry.String()}}
			}
			sym, ok := parts[0].AsSymbol()
			if !ok {
				return nil, &Error{Kind: &DeserializeError{
					Reason: DeserializeInvalidNodeEntry, Detail: entry.String()}}
			}
			sigil = sym
			s := parts[1]
			structure = &s
		}
		info, ok := ParseSigil(sigil)
		if !ok || info.Global || info.Triple || LocalNode(info.ID) != expect {
			return nil, &Error{Kind: &DeserializeError{
				Reason: DeserializeInvalidNodeEntry,
				Detail: fmt.Sprintf("entry %d carries %q", i, sigil)}}
		}
		if uint64(expect) >= existing {
			e.InsertAtom()
		}
		out = append(out, nodeEntry{id: expect, structure: structure})
	}
	return out, nil
}

func loadTriples(section Sexp, e *Environment, envNode LocalNode) error {
	elems, _ := section.Elements()
	for _, entry := range elems[1:] {
		parts, tail := entry.Elements()
		if tail != nil || len(parts) != 3 {
			return &Error{Kind: &DeserializeError{
				Reason: DeserializeTypeMismatch, Detail: entry.String()}}
		}
		s, err := reflectLocal(parts[0], e, envNode)
		if err != nil {
			return err
		}
		p, err := reflectLocal(parts[1], e, envNode)
		if err != nil {
			return err
		}
		o, err := reflectLocal(parts[2], e, envNode)
		if err != nil {
			return err
		}
		e.InsertTriple(s, p, o)
	}
	return nil
}
