// meta.go: the meta-environment, a distinguished environment whose nodes
// stand for other environments.
package amlang

import "sort"

// MetaEnv wraps a base environment plus the child environments owned at its
// nodes. Child envs are keyed by their node id in the base env. The base env
// itself is addressed as LocalNode 0 by convention (its own self node).
type MetaEnv struct {
	base *Environment
	envs map[LocalNode]*Environment
}

func NewMetaEnv(base *Environment) *MetaEnv {
	return &MetaEnv{base: base, envs: make(map[LocalNode]*Environment)}
}

func (m *MetaEnv) Base() *Environment { return m.base }

// Env returns the child environment stored at the given base node.
func (m *MetaEnv) Env(n LocalNode) (*Environment, bool) {
	e, ok := m.envs[n]
	return e, ok
}

// InsertEnv installs a child environment at the given base node.
func (m *MetaEnv) InsertEnv(n LocalNode, e *Environment) {
	m.envs[n] = e
}

// EnvNodes returns the base nodes carrying child environments, ascending.
func (m *MetaEnv) EnvNodes() []LocalNode {
	out := make([]LocalNode, 0, len(m.envs))
	for n := range m.envs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
