package amlang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{BaseDir: "x"}).withDefaults()
	require.Equal(t, DefaultMetaFile, cfg.MetaFile)
	require.Equal(t, DefaultLangFile, cfg.LangFile)
	require.Equal(t, DefaultWorkFile, cfg.WorkFile)

	_, err := NewEnvManager(Config{}, zap.NewNop())
	require.Error(t, err, "empty base dir must be refused")
}

func TestConfigFromYAML(t *testing.T) {
	src := "base_dir: /data/envs\nmeta_file: m.env\n"
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(src), &cfg))
	require.Equal(t, "/data/envs", cfg.BaseDir)
	require.Equal(t, "m.env", cfg.MetaFile)
	require.Empty(t, cfg.WorkFile)
}

func TestBootstrapWritesFederation(t *testing.T) {
	dir := t.TempDir()
	m, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)

	for _, name := range []string{DefaultMetaFile, DefaultLangFile, DefaultWorkFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "bootstrap must write %s", name)
	}

	require.NotZero(t, m.LangEnv())
	require.NotZero(t, m.WorkEnv())
	require.NotEqual(t, m.LangEnv(), m.WorkEnv())

	// The lang env designates the language and the builtins.
	a := m.Agent()
	lam, err := a.Resolve("lambda")
	require.NoError(t, err)
	require.Equal(t, m.LangEnv(), lam.Env)

	carNode, err := a.Resolve("car")
	require.NoError(t, err)
	s, err := a.DesignateNode(carNode)
	require.NoError(t, err)
	b, ok := s.AsBuiltIn()
	require.True(t, ok)
	require.Equal(t, "car", b.Name())
}

func TestReloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m1, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)

	itp := NewInterpreter(m1.Agent())
	eval(t, itp, "(def alpha)")
	eval(t, itp, "(def beta)")
	eval(t, itp, "(tell alpha beta alpha)")
	require.NoError(t, m1.SerializeFull())

	views1 := federationViews(t, m1)
	require.Len(t, views1, 3,
		"meta, lang and work persist; the agent's history and impl envs do not")

	m2, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, m1.LangEnv(), m2.LangEnv())
	require.Equal(t, m1.WorkEnv(), m2.WorkEnv())

	views2 := federationViews(t, m2)
	for envNode, want := range views1 {
		diff := cmp.Diff(want, views2[envNode])
		require.Empty(t, diff, "env %d drifted across reload", envNode)
	}

	// The asserted knowledge is queryable in the reloaded store.
	a := m2.Agent()
	alpha, err := a.Resolve("alpha")
	require.NoError(t, err)
	beta, err := a.Resolve("beta")
	require.NoError(t, err)
	matches, err := a.Ask(alpha, beta, alpha)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Reloaded builtins are callable.
	itp2 := NewInterpreter(a)
	got := eval(t, itp2, "(car '(9 8))")
	wantNumber(t, got, 9)
}

func TestTransientEnvsNotPersisted(t *testing.T) {
	dir := t.TempDir()
	m1, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)

	// Each agent takes fresh history and impl envs.
	_ = m1.Agent()
	_ = m1.Agent()
	require.NoError(t, m1.SerializeFull())

	m2, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)
	require.ElementsMatch(t,
		[]LocalNode{m2.LangEnv(), m2.WorkEnv()},
		m2.Meta().EnvNodes(),
		"only envs with a serialize path reload")
}

func TestMissingEnvFileFailsLoad(t *testing.T) {
	dir := t.TempDir()
	_, err := NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, DefaultWorkFile)))
	_, err = NewEnvManager(Config{BaseDir: dir}, zap.NewNop())
	require.Error(t, err, "meta referencing a missing env file must fail loudly")
}

// federationViews snapshots every env carrying a serialize path, keyed by
// its meta node. Transient history and impl envs never hit disk and stay out
// of the snapshot.
func federationViews(t *testing.T, m *EnvManager) map[LocalNode]envView {
	t.Helper()
	meta := m.Meta().Base()
	out := map[LocalNode]envView{0: viewOf(meta, 0)}
	for _, id := range meta.MatchPredicate(m.MetaContext().SerializePath) {
		envNode := meta.TripleSubject(id)
		if envNode == 0 {
			continue
		}
		e, ok := m.Meta().Env(envNode)
		require.True(t, ok)
		out[envNode] = viewOf(e, envNode)
	}
	return out
}
