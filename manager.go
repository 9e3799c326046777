// manager.go: bootstrapping, persisting and reloading the federation.
//
// What this file does
// -------------------
// The EnvManager owns the meta-env and the lifecycle of every persisted
// environment. On a fresh base dir it creates the federation from scratch:
// the meta env (import and serialize-path bookkeeping), a lang env carrying
// every language node and the builtins, and an empty working env. On an
// existing base dir it reloads meta first, then every env meta points at
// through __serialize_path, and resolves the contexts by designation.
// Per-run history and impl envs are created transiently, without a
// serialize path, so they never hit disk.
package amlang

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

const (
	DefaultMetaFile = "meta.env"
	DefaultLangFile = "lang.env"
	DefaultWorkFile = "work.env"
)

// Config locates the persisted federation. Zero-value file names take the
// defaults; BaseDir is required.
type Config struct {
	BaseDir  string `yaml:"base_dir"`
	MetaFile string `yaml:"meta_file"`
	LangFile string `yaml:"lang_file"`
	WorkFile string `yaml:"work_file"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MetaFile == "" {
		out.MetaFile = DefaultMetaFile
	}
	if out.LangFile == "" {
		out.LangFile = DefaultLangFile
	}
	if out.WorkFile == "" {
		out.WorkFile = DefaultWorkFile
	}
	return out
}

type EnvManager struct {
	cfg  Config
	log  *zap.Logger
	meta *MetaEnv

	ctxMeta *MetaEnvContext
	ctx     *AmlangContext

	langEnv LocalNode
	workEnv LocalNode
}

// NewEnvManager loads the federation under cfg.BaseDir, bootstrapping a
// fresh one when no meta file exists.
func NewEnvManager(cfg Config, log *zap.Logger) (*EnvManager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if cfg.BaseDir == "" {
		return nil, &Error{Kind: &InvalidState{
			Actual: "empty base dir", Expected: "configured base dir"}}
	}
	m := &EnvManager{cfg: cfg, log: log}

	metaPath := filepath.Join(cfg.BaseDir, cfg.MetaFile)
	if _, err := os.Stat(metaPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, &Error{Kind: &IoError{Op: "stat meta env", Err: err}}
		}
		if err := m.bootstrap(); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EnvManager) BaseDir() string              { return m.cfg.BaseDir }
func (m *EnvManager) Meta() *MetaEnv               { return m.meta }
func (m *EnvManager) MetaContext() *MetaEnvContext { return m.ctxMeta }
func (m *EnvManager) Context() *AmlangContext      { return m.ctx }
func (m *EnvManager) LangEnv() LocalNode           { return m.langEnv }
func (m *EnvManager) WorkEnv() LocalNode           { return m.workEnv }

// Agent returns an agent positioned at the working env, with fresh
// transient history and impl envs.
func (m *EnvManager) Agent() *Agent {
	a := NewAgent(m.meta, m.ctxMeta, m.ctx, NewNode(m.workEnv, NodeSelfEnv), m.log)
	a.SetHistoryEnv(m.newTransientEnv())
	a.SetImplEnv(m.newTransientEnv())
	return a
}

// newTransientEnv creates an env in the meta with no serialize path, so it
// lives only for this run.
func (m *EnvManager) newTransientEnv() LocalNode {
	node := m.meta.Base().InsertAtom()
	e := NewEnvironment()
	seedPrelude(e, node)
	m.meta.InsertEnv(node, e)
	return node
}

// InsertNewEnv creates a persisted env backed by fileName under the base
// dir.
func (m *EnvManager) InsertNewEnv(fileName string) (LocalNode, error) {
	meta := m.meta.Base()
	node := meta.InsertAtom()
	e := NewEnvironment()
	seedPrelude(e, node)
	m.meta.InsertEnv(node, e)

	path := PathSexp(filepath.Join(m.cfg.BaseDir, fileName))
	pathNode := meta.InsertStructure(path)
	meta.InsertTriple(node, m.ctxMeta.SerializePath, pathNode)
	m.log.Debug("created env", zap.String("file", fileName), zap.Uint64("node", uint64(node)))
	return node, nil
}

// Bootstrap.

func (m *EnvManager) bootstrap() error {
	m.log.Info("bootstrapping fresh federation", zap.String("dir", m.cfg.BaseDir))
	if err := os.MkdirAll(m.cfg.BaseDir, 0o755); err != nil {
		return &Error{Kind: &IoError{Op: "create base dir", Err: err}}
	}

	metaBase := NewEnvironment()
	seedPrelude(metaBase, 0)
	m.meta = NewMetaEnv(metaBase)
	m.ctxMeta = LoadMetaEnvContext(metaBase, m.log)

	metaPathNode := metaBase.InsertStructure(
		PathSexp(filepath.Join(m.cfg.BaseDir, m.cfg.MetaFile)))
	metaBase.InsertTriple(0, m.ctxMeta.SerializePath, metaPathNode)

	langEnv, err := m.InsertNewEnv(m.cfg.LangFile)
	if err != nil {
		return err
	}
	m.langEnv = langEnv
	lang, _ := m.meta.Env(langEnv)
	m.ctx = LoadAmlangContext(lang, langEnv, m.log)

	registry := builtinRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		node := lang.InsertStructure(BuiltInSexp(registry[name]))
		lang.InsertDesignation(node, Symbol(name), NodeDesignation)
	}

	workEnv, err := m.InsertNewEnv(m.cfg.WorkFile)
	if err != nil {
		return err
	}
	m.workEnv = workEnv

	return m.SerializeFull()
}

// Load.

func (m *EnvManager) load() error {
	metaBase := NewEnvironment()
	seedPrelude(metaBase, 0)
	m.meta = NewMetaEnv(metaBase)

	metaPath := filepath.Join(m.cfg.BaseDir, m.cfg.MetaFile)
	src, err := os.ReadFile(metaPath)
	if err != nil {
		return &Error{Kind: &IoError{Op: "read meta env", Err: err}}
	}
	if _, err := DeserializeEnv(string(src), metaBase, 0); err != nil {
		return err
	}
	m.ctxMeta = LoadMetaEnvContext(metaBase, m.log)

	for _, id := range metaBase.MatchPredicate(m.ctxMeta.SerializePath) {
		envNode := metaBase.TripleSubject(id)
		if envNode == 0 {
			continue
		}
		entry, ok := metaBase.Entry(metaBase.TripleObject(id))
		if !ok {
			continue
		}
		path, ok := entry.AsPath()
		if !ok {
			continue
		}
		e := NewEnvironment()
		seedPrelude(e, envNode)
		src, err := os.ReadFile(path)
		if err != nil {
			return &Error{Kind: &IoError{Op: fmt.Sprintf("read env %s", path), Err: err}}
		}
		if _, err := DeserializeEnv(string(src), e, envNode); err != nil {
			return err
		}
		m.meta.InsertEnv(envNode, e)
		m.log.Debug("loaded env", zap.String("path", path), zap.Uint64("node", uint64(envNode)))
	}

	if err := m.resolveWellKnown(); err != nil {
		return err
	}
	return nil
}

// resolveWellKnown locates the lang and working envs of a reloaded store by
// their serialize-path suffixes.
func (m *EnvManager) resolveWellKnown() error {
	probe := NewAgent(m.meta, m.ctxMeta, &AmlangContext{}, NewNode(0, NodeSelfEnv), m.log)
	langEnv, ok := probe.FindEnv(string(filepath.Separator) + m.cfg.LangFile)
	if !ok {
		return &Error{Kind: &InvalidState{
			Actual: "no lang env in meta", Expected: m.cfg.LangFile}}
	}
	m.langEnv = langEnv
	lang, ok := m.meta.Env(langEnv)
	if !ok {
		return &Error{Kind: &InvalidState{
			Actual: "lang env not loaded", Expected: m.cfg.LangFile}}
	}
	m.ctx = LoadAmlangContext(lang, langEnv, m.log)

	workEnv, ok := probe.FindEnv(string(filepath.Separator) + m.cfg.WorkFile)
	if !ok {
		var err error
		workEnv, err = m.InsertNewEnv(m.cfg.WorkFile)
		if err != nil {
			return err
		}
	}
	m.workEnv = workEnv
	return nil
}

// Persistence.

// SerializeFull writes every env that carries a serialize path, the meta
// env included.
func (m *EnvManager) SerializeFull() error {
	meta := m.meta.Base()
	for _, id := range meta.MatchPredicate(m.ctxMeta.SerializePath) {
		envNode := meta.TripleSubject(id)
		entry, ok := meta.Entry(meta.TripleObject(id))
		if !ok {
			continue
		}
		path, ok := entry.AsPath()
		if !ok {
			continue
		}
		if err := m.serializeEnv(envNode, path); err != nil {
			return err
		}
	}
	return nil
}

func (m *EnvManager) serializeEnv(envNode LocalNode, path string) error {
	e, ok := m.envFor(envNode)
	if !ok {
		return &Error{Kind: &InvalidState{
			Actual: fmt.Sprintf("env %d missing", envNode), Expected: "loaded env"}}
	}
	f, err := os.Create(path)
	if err != nil {
		return &Error{Kind: &IoError{Op: "create env file", Err: err}}
	}
	defer f.Close()
	if err := SerializeEnv(f, e, envNode, nil); err != nil {
		return err
	}
	m.log.Debug("serialized env", zap.String("path", path), zap.Uint64("node", uint64(envNode)))
	return nil
}

func (m *EnvManager) envFor(envNode LocalNode) (*Environment, bool) {
	if envNode == 0 {
		return m.meta.Base(), true
	}
	return m.meta.Env(envNode)
}
