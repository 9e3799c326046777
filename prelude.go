// prelude.go: reserved nodes present in every environment before any other
// node is issued. These can be seen as implicitly imported nodes.
package amlang

const (
	// NodeSelfEnv is the environment's own self node. Its structure is the
	// environment's handle in the meta-env.
	NodeSelfEnv LocalNode = 0
	// NodeDesignation is the conventional designator-map context.
	NodeDesignation LocalNode = 1
	// NodeTellHandler, when given a procedure structure, vets every tell.
	NodeTellHandler LocalNode = 2

	// Ids up to preludeReserved are never reused.
	preludeReserved = 10
)

// PreludeName returns the resolvable name of a reserved node.
func PreludeName(n LocalNode) (Symbol, bool) {
	switch n {
	case NodeSelfEnv:
		return "self_env", true
	case NodeDesignation:
		return "amlang_designator", true
	case NodeTellHandler:
		return "tell_handler", true
	}
	if n < preludeReserved {
		return "RESERVED", true
	}
	return "", false
}

// PreludeFromName maps a reserved name back to its local node. `self_des` is
// an alias for the designation node.
func PreludeFromName(name Symbol) (LocalNode, bool) {
	switch name {
	case "self_env":
		return NodeSelfEnv, true
	case "self_des", "amlang_designator":
		return NodeDesignation, true
	case "tell_handler":
		return NodeTellHandler, true
	}
	return 0, false
}

// seedPrelude issues the reserved nodes into a fresh environment. envNode is
// the environment's node in the meta-env; the self node's structure is set
// to that handle so the env designates itself.
func seedPrelude(e *Environment, envNode LocalNode) {
	self := e.InsertStructure(NodeSexp(NewNode(0, envNode)))
	if self != NodeSelfEnv {
		panic("prelude seeded into non-empty environment")
	}
	for i := LocalNode(1); i < preludeReserved; i++ {
		e.InsertAtom()
	}
}
