package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/durafsm/pkg/domain"
)

const lightYAML = `
name: light
initial: green
context:
  ticks: 0
states:
  green:
    on:
      timer: yellow
  yellow:
    on:
      timer: red
  red:
    on:
      timer: counting
  counting:
    entry: merge
    onSuccess: green
`

// resetFlags restores every flag to its default so commands can run repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	machine := filepath.Join(dir, "light.yaml")
	require.NoError(t, os.WriteFile(machine, []byte(lightYAML), 0o644))

	return &cli{t: t, base: []string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--store", "file",
		"--dir", filepath.Join(dir, "actors"),
		"--codec", "yaml",
		"--machine", machine,
		"--log-level", "error",
	}}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append(append([]string{}, c.base...), args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decode(t *testing.T, out string) domain.Snapshot[domain.Map] {
	t.Helper()
	var snap domain.Snapshot[domain.Map]
	require.NoError(t, yaml.Unmarshal([]byte(out), &snap))
	return snap
}

func TestCLI_Validate(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run("validate")
	require.NoError(t, err)
	assert.Contains(t, out, `Machine "light" is valid`)
	assert.Contains(t, out, "- counting (entry, onSuccess: green)")
	assert.Contains(t, out, "timer -> yellow")
}

func TestCLI_ValidateWarnsAboutUnreachableStates(t *testing.T) {
	c := newCLI(t)
	machine := filepath.Join(t.TempDir(), "island.yaml")
	require.NoError(t, os.WriteFile(machine, []byte("name: island\ninitial: a\nstates:\n  a:\n    on:\n      go: b\n  b: {}\n  lost: {}\n"), 0o644))

	out, stderr, err := c.run("validate", machine)
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning: unreachable states: lost")
	assert.Contains(t, out, "Terminal: b, lost")
}

func TestCLI_Graph(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("actor", "create", "l1")
	require.NoError(t, err)
	_, _, err = c.run("actor", "send", "l1", "timer")
	require.NoError(t, err)

	out, _, err := c.run("graph", "l1")
	require.NoError(t, err)
	assert.Contains(t, out, `green(("green"))`)
	assert.Contains(t, out, `counting -- "onSuccess" --> green`)
	assert.Contains(t, out, "class yellow current;")

	_, _, err = c.run("graph", "ghost")
	assert.ErrorIs(t, err, domain.ErrActorNotFound)
}

func TestCLI_ValidateReportsBrokenTargets(t *testing.T) {
	c := newCLI(t)
	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: broken\ninitial: a\nstates:\n  a:\n    on:\n      go: nowhere\n"), 0o644))

	_, _, err := c.run("validate", broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
	assert.Contains(t, err.Error(), `targets undefined state "nowhere"`)
}

func TestCLI_ActorLifecycle(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("actor", "create", "l1")
	require.NoError(t, err)
	snap := decode(t, out)
	assert.Equal(t, "green", snap.State)
	assert.Equal(t, int64(1), snap.Version)

	_, _, err = c.run("actor", "create", "l1")
	assert.ErrorIs(t, err, domain.ErrActorAlreadyExists)

	for range 3 {
		out, _, err = c.run("actor", "send", "l1", "timer", "--payload", `{"ticks": 1}`)
		require.NoError(t, err)
	}
	snap = decode(t, out)
	assert.Equal(t, "green", snap.State, "red -> counting resolves straight to green")
	assert.Equal(t, 1, snap.Context["ticks"])
	assert.Equal(t, int64(4), snap.Version)

	out, stderr, err := c.run("actor", "send", "l1", "unknown")
	require.NoError(t, err)
	assert.Contains(t, stderr, `event "unknown" ignored in state "green"`)
	assert.Equal(t, int64(4), decode(t, out).Version)

	_, _, err = c.run("actor", "send", "ghost", "timer")
	assert.ErrorIs(t, err, domain.ErrActorNotFound)

	out, _, err = c.run("actor", "get", "l1")
	require.NoError(t, err)
	assert.Equal(t, "green", decode(t, out).State)
}

func TestCLI_Snapshots(t *testing.T) {
	c := newCLI(t)

	out, _, err := c.run("snapshot", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No actors found.")

	_, _, err = c.run("actor", "create", "b", "--context", `{"ticks": 7}`)
	require.NoError(t, err)
	_, _, err = c.run("actor", "create", "a")
	require.NoError(t, err)

	out, _, err = c.run("snapshot", "ls")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)

	out, _, err = c.run("snapshot", "inspect", "b")
	require.NoError(t, err)
	assert.Equal(t, 7, decode(t, out).Context["ticks"])

	_, _, err = c.run("snapshot", "inspect", "zzz")
	assert.Error(t, err)

	_, _, err = c.run("snapshot", "rm")
	assert.Error(t, err)

	out, _, err = c.run("snapshot", "rm", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed a")
	assert.Contains(t, out, "Removed b")

	out, _, err = c.run("snapshot", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No actors found.")
}

func TestCLI_RejectsUnknownStore(t *testing.T) {
	c := newCLI(t)
	_, _, err := c.run("--store", "tape", "snapshot", "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store "tape"`)
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	out, _, err := c.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "durafsm version dev")
}
