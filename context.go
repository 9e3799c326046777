// context.go: cached handles to the distinguished nodes the runtime needs.
//
// Contexts are loaded from environments by designation, never by hardcoded
// id, so a reloaded store keeps working however its ids were issued. Missing
// names are backfilled as fresh designated atoms.
package amlang

import "go.uber.org/zap"

// MetaEnvContext caches the meta-env nodes underpinning the import protocol
// and serialization bookkeeping.
type MetaEnvContext struct {
	// Imports is the predicate of (env imports otherEnv) triples.
	Imports LocalNode
	// ImportTable is the predicate tying an imports-triple to its
	// LocalNodeTable node.
	ImportTable LocalNode
	// SerializePath is the predicate tying an env node to its backing path.
	SerializePath LocalNode
}

func LoadMetaEnvContext(meta *Environment, log *zap.Logger) *MetaEnvContext {
	return &MetaEnvContext{
		Imports:       ensureDesignated(meta, "__imports", log),
		ImportTable:   ensureDesignated(meta, "__import_table", log),
		SerializePath: ensureDesignated(meta, "__serialize_path", log),
	}
}

// AmlangContext caches the language nodes of the lang env: special-form
// heads, the wildcard placeholder, booleans, and structural predicates. All
// locals are relative to LangEnv.
type AmlangContext struct {
	// LangEnv is the lang env's node in the meta-env.
	LangEnv LocalNode

	Quote  LocalNode
	Lambda LocalNode
	Fexpr  LocalNode
	Let    LocalNode
	Letrec LocalNode
	Branch LocalNode
	Progn  LocalNode
	Def    LocalNode
	Node   LocalNode
	Set    LocalNode

	Tell    LocalNode
	Ask     LocalNode
	Curr    LocalNode
	Jump    LocalNode
	Import  LocalNode
	EnvFind LocalNode
	Apply   LocalNode
	Eval    LocalNode
	Exec    LocalNode

	// Placeholder is the ask/tell wildcard `_`.
	Placeholder LocalNode
	// Label is the predicate of (procedure __label param) triples.
	Label LocalNode
	// Anon names structures that need a node but no symbol.
	Anon LocalNode

	True  LocalNode
	False LocalNode
}

// amlangContextNames orders the designations of every AmlangContext field.
// Bootstrap and load both run off this table.
var amlangContextNames = []struct {
	Name Symbol
	Slot func(*AmlangContext) *LocalNode
}{
	{"quote", func(c *AmlangContext) *LocalNode { return &c.Quote }},
	{"lambda", func(c *AmlangContext) *LocalNode { return &c.Lambda }},
	{"fexpr", func(c *AmlangContext) *LocalNode { return &c.Fexpr }},
	{"let", func(c *AmlangContext) *LocalNode { return &c.Let }},
	{"letrec", func(c *AmlangContext) *LocalNode { return &c.Letrec }},
	{"if", func(c *AmlangContext) *LocalNode { return &c.Branch }},
	{"progn", func(c *AmlangContext) *LocalNode { return &c.Progn }},
	{"def", func(c *AmlangContext) *LocalNode { return &c.Def }},
	{"node", func(c *AmlangContext) *LocalNode { return &c.Node }},
	{"set!", func(c *AmlangContext) *LocalNode { return &c.Set }},
	{"tell", func(c *AmlangContext) *LocalNode { return &c.Tell }},
	{"ask", func(c *AmlangContext) *LocalNode { return &c.Ask }},
	{"curr", func(c *AmlangContext) *LocalNode { return &c.Curr }},
	{"jump", func(c *AmlangContext) *LocalNode { return &c.Jump }},
	{"import", func(c *AmlangContext) *LocalNode { return &c.Import }},
	{"env-find", func(c *AmlangContext) *LocalNode { return &c.EnvFind }},
	{"apply", func(c *AmlangContext) *LocalNode { return &c.Apply }},
	{"eval", func(c *AmlangContext) *LocalNode { return &c.Eval }},
	{"exec", func(c *AmlangContext) *LocalNode { return &c.Exec }},
	{"_", func(c *AmlangContext) *LocalNode { return &c.Placeholder }},
	{"__label", func(c *AmlangContext) *LocalNode { return &c.Label }},
	{"__anon", func(c *AmlangContext) *LocalNode { return &c.Anon }},
	{"true", func(c *AmlangContext) *LocalNode { return &c.True }},
	{"false", func(c *AmlangContext) *LocalNode { return &c.False }},
}

// LoadAmlangContext resolves (or backfills) every language node in the lang
// env designated by langEnv.
func LoadAmlangContext(lang *Environment, langEnv LocalNode, log *zap.Logger) *AmlangContext {
	ctx := &AmlangContext{LangEnv: langEnv}
	for _, entry := range amlangContextNames {
		*entry.Slot(ctx) = ensureDesignated(lang, entry.Name, log)
	}
	return ctx
}

func ensureDesignated(e *Environment, name Symbol, log *zap.Logger) LocalNode {
	if n, ok := e.MatchDesignation(name, NodeDesignation); ok {
		return n
	}
	n := e.InsertAtom()
	e.InsertDesignation(n, name, NodeDesignation)
	if log != nil {
		log.Debug("backfilled context designation",
			zap.String("name", string(name)),
			zap.Uint64("node", uint64(n)))
	}
	return n
}
