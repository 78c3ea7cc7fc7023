package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nickng/perforator/interp"
	"github.com/nickng/perforator/pass"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const simple = "../../testdata/simple.go"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPasses(t *testing.T) {
	out, err := execute(t, "passes")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(pass.Names(), "\n")+"\n", out)
}

func TestCount(t *testing.T) {
	out, err := execute(t, "count", "-f", "main.main", simple)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Function \"main.main\" has the following loops:\n"), out)
	assert.Equal(t, 4, strings.Count(out, "Loop level 1 with "))
	assert.Contains(t, out, "Total loops found: 4\n")
	assert.NotContains(t, out, "Perforated")
}

func TestRunText(t *testing.T) {
	out, err := execute(t, "run", "-f", "main.main", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "Perforated 4 increments in 1 functions.\n")
	assert.Equal(t, 4, strings.Count(out, "step 1 → 2"))
}

func TestRunPipeline(t *testing.T) {
	out, err := execute(t, "run", "--passes", "loop-count-pass,loop-perforation-pass,loop-count-pass", "-f", "main.total", simple)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Total loops found: 1\n"), "loops are unchanged by perforation")
	assert.Contains(t, out, "Perforated 1 increments in 1 functions.\n")
}

func TestRunYAML(t *testing.T) {
	out, err := execute(t, "run", "--format", "yaml", "--select", "leaves", "-j", "2", simple)
	require.NoError(t, err)

	var summary struct {
		Changed int `yaml:"changed"`
		Sites   []struct {
			Function string `yaml:"function"`
			Before   int    `yaml:"before"`
			After    int    `yaml:"after"`
		} `yaml:"sites"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Changed)
	require.Len(t, summary.Sites, 5)
	assert.Equal(t, "main.total", summary.Sites[0].Function, "sites follow source order")
	for _, s := range summary.Sites {
		assert.Equal(t, 1, s.Before)
		assert.Equal(t, 2, s.After)
	}
}

func TestRunTable(t *testing.T) {
	out, err := execute(t, "run", "--format", "table", "-f", "main.total", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "Function")
	assert.Contains(t, out, "main.total")
	assert.Contains(t, out, "1 → 2")
}

func TestRunPrintIR(t *testing.T) {
	out, err := execute(t, "run", "--print-ir", "-f", "main.main", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "func main.main():")
	assert.Equal(t, 4, strings.Count(out, "# perforated"))
	assert.Contains(t, out, "+ 2:int")
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "run", "--passes", "loop-unroll-pass", simple)
	assert.True(t, errors.Is(err, pass.ErrUnknownPass))

	_, err = execute(t, "run", "-f", "main.nope", simple)
	assert.Error(t, err)

	_, err = execute(t, "run", "--select", "outermost", simple)
	assert.Error(t, err)

	_, err = execute(t, "run", "does-not-exist.go")
	assert.Error(t, err)

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestView(t *testing.T) {
	out, err := execute(t, "view", "-f", "main.total", simple)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "func main.total(n int):\n"), out)
	assert.Contains(t, out, "+ 1:int")
	assert.Contains(t, out, "for.loop")

	out, err = execute(t, "view", "--ssa", "-f", "main.total", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "func total(n int) int:")
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--func", "main.total", "--arg", "10", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "main.total(10): 1 increments perforated\n")
	assert.Contains(t, out, "original:   45 ")
	assert.Contains(t, out, "perforated: 20 ")
	assert.Contains(t, out, "speedup:")
}

func TestBenchYAML(t *testing.T) {
	out, err := execute(t, "bench", "--format", "yaml", "--func", "main.total", "--arg", "1600", simple)
	require.NoError(t, err)
	var res struct {
		Original struct {
			Results []int
			Steps   int
		} `yaml:"original"`
		Perforated struct {
			Results []int
			Steps   int
		} `yaml:"perforated"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, []int{1600 * 1599 / 2}, res.Original.Results)
	assert.Equal(t, []int{800 * 1598 / 2}, res.Perforated.Results)
	assert.Less(t, res.Perforated.Steps, res.Original.Steps)
}

func TestBenchUnsupported(t *testing.T) {
	_, err := execute(t, "bench", "--func", "main.main", simple)
	assert.True(t, errors.Is(err, interp.ErrUnsupported))
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "perforate.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: yaml\nfuncs: [main.total]\n"), 0o644))

	out, err := execute(t, "run", "--config", cfg, simple)
	require.NoError(t, err)
	assert.Contains(t, out, "changed: 1\n")

	out, err = execute(t, "run", "--config", cfg, "--format", "text", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "Perforated 1 increments in 1 functions.\n")
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("PERFORATE_SELECT", "leaves")
	t.Setenv("PERFORATE_FUNCS", "main.main")
	out, err := execute(t, "run", simple)
	require.NoError(t, err)
	assert.Contains(t, out, "Perforated 4 increments in 1 functions.\n")
}

func TestViewEdges(t *testing.T) {
	out, err := execute(t, "view", "--edges", "-f", "main.total", simple)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "func main.total:\n\tentry.0 → for.loop."), out)
	assert.NotContains(t, out, "unreachable")
	assert.NotContains(t, out, ":int")
}
