package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	amlang "github.com/Khouderchah-Alex/amlang-sub000"
)

const (
	historyFile = ".amlang_history"
	promptMain  = "> "
	promptCont  = "  "
)

var banner = fmt.Sprintf("amlang %s\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.",
	amlang.FormatVersion)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

type cliConfig struct {
	BaseDir string `yaml:"base_dir"`
	Quiet   bool   `yaml:"quiet"`
}

func main() {
	var (
		dir        string
		configPath string
		quiet      bool
	)

	root := &cobra.Command{
		Use:          "amlang",
		Short:        "A self-describing semantic environment",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "base directory of the env store")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error logging")

	setup := func() (*amlang.EnvManager, *zap.Logger, error) {
		cfg := cliConfig{BaseDir: "."}
		if configPath != "" {
			raw, err := os.ReadFile(configPath)
			if err != nil {
				return nil, nil, err
			}
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, nil, err
			}
		}
		if dir != "" {
			cfg.BaseDir = dir
		}
		if quiet {
			cfg.Quiet = true
		}

		var logger *zap.Logger
		var err error
		if cfg.Quiet {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		if err != nil {
			return nil, nil, err
		}

		m, err := amlang.NewEnvManager(amlang.Config{BaseDir: cfg.BaseDir}, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, logger, nil
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against the env store",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runRepl(m)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Interpret a source file against the env store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runFile(m, args[0])
		},
	}

	root.AddCommand(replCmd, runCmd)
	root.RunE = replCmd.RunE // bare `amlang` drops into the REPL

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func runFile(m *amlang.EnvManager, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	agent := m.Agent()
	itp := amlang.NewInterpreter(agent)

	sexps, err := amlang.ParseString(string(src), amlang.PolicyBase)
	if err != nil {
		return fmt.Errorf("%s", amlang.RenderError(agent, err))
	}
	for _, s := range sexps {
		result, err := itp.Interpret(s)
		if err != nil {
			return fmt.Errorf("%s", amlang.RenderError(agent, err))
		}
		fmt.Println(agent.SexpString(result))
	}
	return m.SerializeFull()
}

func runRepl(m *amlang.EnvManager) error {
	fmt.Println(banner)

	histPath := filepath.Join(m.BaseDir(), historyFile)
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	agent := m.Agent()
	itp := amlang.NewInterpreter(agent)

	for {
		code, ok := readExpr(ln)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				break
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		sexps, err := amlang.ParseString(code, amlang.PolicyBase)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(amlang.RenderError(agent, err)))
			continue
		}
		for _, s := range sexps {
			result, err := itp.Interpret(s)
			if err != nil {
				fmt.Fprintln(os.Stderr, red(amlang.RenderError(agent, err)))
				continue
			}
			fmt.Println(green(agent.SexpString(result)))
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return m.SerializeFull()
}

// readExpr reads until the tokenizer reports balanced depth, switching to
// the continuation prompt across lines.
func readExpr(ln *liner.State) (string, bool) {
	var b strings.Builder
	tz := amlang.NewTokenizer(amlang.PolicyBase)

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			return "", true // canceled buffer reads as empty input
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if err := tz.Feed(line); err != nil {
			// Let the parser surface the error with position info.
			return b.String(), true
		}
		if tz.Depth() == 0 {
			return b.String(), true
		}
	}
}
