package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/entitle/config"
	"github.com/wippyai/entitle/rewrite"
	"github.com/wippyai/entitle/testbed"
)

const provider = "java/nio/file/spi/FileSystemProvider"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func resetFlags() {
	loaded = nil
	rewriteOut, rewriteStrategy, rewriteTargets, rewriteDryRun = "", "", nil, false
	checkStrategy, checkTargets = "", nil
	inspectStrategy, inspectTargets, inspectInteractive = "", nil, false
	linkCaller, linkClasspath = "", nil
	watchStrategy, watchTargets, watchScan = "", nil, true
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func writeClass(t *testing.T, dir string, c testbed.Class) string {
	t.Helper()
	data, err := testbed.Build(c)
	require.NoError(t, err)
	path := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRewriteIntoOutputDirectory(t *testing.T) {
	resetFlags()
	src, out := t.TempDir(), t.TempDir()
	path := writeClass(t, src, testbed.FileAccess("com/example/FileAccess"))
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	rewriteTargets = []string{"spin"}
	rewriteStrategy = "single-pass"
	rewriteOut = out
	cmd, buf := testCmd()
	require.NoError(t, runRewrite(cmd, []string{src}))

	assert.Contains(t, buf.String(), "rewritten")
	assert.Contains(t, buf.String(), "spin(I)I")
	assert.Contains(t, buf.String(), "1 rewritten, 0 unchanged, 0 failed")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after, "input modified")

	written, err := os.ReadFile(filepath.Join(out, "com", "example", "FileAccess.class"))
	require.NoError(t, err)
	ok, err := rewrite.IsInstrumented(written, "spin")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRewriteInPlaceIsIdempotent(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	path := writeClass(t, dir, testbed.FileAccess("com/example/FileAccess"))
	rewriteTargets = []string{"m", "spin"}

	cmd, buf := testCmd()
	require.NoError(t, runRewrite(cmd, []string{path}))
	assert.Contains(t, buf.String(), "1 rewritten")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	cmd, buf = testCmd()
	require.NoError(t, runRewrite(cmd, []string{path}))
	assert.Contains(t, buf.String(), "0 rewritten, 1 unchanged")
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestRewriteDryRun(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	path := writeClass(t, dir, testbed.FileAccess("com/example/FileAccess"))
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	rewriteTargets = []string{"m"}
	rewriteDryRun = true
	cmd, buf := testCmd()
	require.NoError(t, runRewrite(cmd, []string{dir}))
	assert.Contains(t, buf.String(), "1 rewritten")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
}

func TestRewriteReportsFailures(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	writeClass(t, dir, testbed.FileAccess("com/example/FileAccess"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Broken.class"), []byte{0xca, 0xfe}, 0o644))

	rewriteTargets = []string{"m"}
	cmd, buf := testCmd()
	err := runRewrite(cmd, []string{dir})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "1 rewritten, 0 unchanged, 1 failed")
}

func TestRewriteRejectsNativeTargetWithoutBridge(t *testing.T) {
	resetFlags()
	path := writeClass(t, t.TempDir(), testbed.FileAccess("com/example/FileAccess"))
	rewriteTargets = []string{"open"}
	cmd, buf := testCmd()
	require.Error(t, runRewrite(cmd, []string{path}))
	assert.Contains(t, buf.String(), "failed")
}

func TestRewriteUsesLoadedConfig(t *testing.T) {
	resetFlags()
	loaded = config.Default()
	loaded.Strategy = "bogus"
	rewriteTargets = []string{"m"}
	cmd, _ := testCmd()
	assert.Error(t, runRewrite(cmd, []string{t.TempDir()}))
}

func TestCheck(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	path := writeClass(t, dir, testbed.FileAccess("com/example/FileAccess"))
	checkTargets = []string{"spin", "absent"}

	cmd, buf := testCmd()
	require.Error(t, runCheck(cmd, []string{dir}))
	assert.Contains(t, buf.String(), "missing")
	assert.NotContains(t, buf.String(), "absent")

	rewriteTargets = []string{"spin"}
	cmd, _ = testCmd()
	require.NoError(t, runRewrite(cmd, []string{path}))

	cmd, buf = testCmd()
	require.NoError(t, runCheck(cmd, []string{dir}))
	assert.Contains(t, buf.String(), "ok")
	assert.Contains(t, buf.String(), "all targeted methods are instrumented")
}

func TestInspect(t *testing.T) {
	resetFlags()
	path := writeClass(t, t.TempDir(), testbed.FileAccess("com/example/FileAccess"))

	cmd, buf := testCmd()
	require.NoError(t, runInspect(cmd, []string{path}))
	out := buf.String()
	assert.Contains(t, out, "spin(I)I")
	assert.Contains(t, out, "open(II)I\n  (no code)")
	assert.NotContains(t, out, rewrite.DefaultCheckSymbols().Owner)

	inspectStrategy = "two-pass"
	inspectTargets = []string{"spin"}
	cmd, buf = testCmd()
	require.NoError(t, runInspect(cmd, []string{path, "spin(I)I"}))
	out = buf.String()
	assert.Contains(t, out, "INVOKESTATIC "+rewrite.DefaultCheckSymbols().Owner)
	assert.NotContains(t, out, "m()V")

	cmd, _ = testCmd()
	assert.Error(t, runInspect(cmd, []string{path, "absent"}))
}

func TestLink(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	cfg := rewrite.Config{
		Capabilities: map[string][]string{"m": {provider}},
		Strategy:     rewrite.StrategyInheritance,
	}
	for _, c := range []testbed.Class{
		{Name: "com/example/LocalFS", Super: provider, Methods: testbed.FileAccess("").Methods[:2]},
		{Name: "com/example/Plain", Methods: testbed.FileAccess("").Methods[:2]},
	} {
		data, err := testbed.Build(c)
		require.NoError(t, err)
		out, err := rewrite.Transform(data, cfg)
		require.NoError(t, err)
		require.True(t, out.Rewritten)
		path := filepath.Join(dir, filepath.Base(c.Name)+".class")
		require.NoError(t, os.WriteFile(path, out.Bytes, 0o644))
	}

	cmd, buf := testCmd()
	require.NoError(t, runLink(cmd, []string{dir}))
	out := buf.String()
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "noop")
	assert.Contains(t, out, "2 sites, 2 resolutions")

	linkCaller = "com/example/Caller"
	cmd, buf = testCmd()
	err := runLink(cmd, []string{dir})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "denied")

	loaded = config.Default()
	loaded.Policy.Allowed = map[string][]string{"com/example/Caller": {"m"}}
	cmd, _ = testCmd()
	assert.NoError(t, runLink(cmd, []string{dir}))
}

func TestWatchRejectsBlindStrategy(t *testing.T) {
	resetFlags()
	watchStrategy = "blind"
	watchTargets = []string{"m"}
	cmd, _ := testCmd()
	err := runWatch(cmd, []string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blind")
}

func TestClassHandler(t *testing.T) {
	resetFlags()
	path := writeClass(t, t.TempDir(), testbed.FileAccess("com/example/FileAccess"))
	r, err := rewrite.New(rewrite.Config{Targets: []string{"m"}, Strategy: rewrite.StrategyTwoPass})
	require.NoError(t, err)

	handler := classHandler(r)
	require.NoError(t, handler(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	ok, err := rewrite.IsInstrumented(data, "m")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))
	assert.Error(t, handler(path))
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	defer stderr.Close()

	logFile := filepath.Join(dir, "entitle.log")
	l, err := newLogger(config.Log{Level: "info", File: logFile, MaxSizeMB: 1}, stderr)
	require.NoError(t, err)
	l.Info("class rewritten")
	l.Debug("hidden")
	_ = l.Sync()

	for _, p := range []string{logFile, stderr.Name()} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"class rewritten"`)
		assert.NotContains(t, string(data), "hidden")
	}

	_, err = newLogger(config.Log{Level: "loud"}, stderr)
	assert.Error(t, err)
}

func TestFilterMethods(t *testing.T) {
	methods := []methodInfo{
		{name: "m", desc: "()V"},
		{name: "spin", desc: "(I)I"},
		{name: "open", desc: "(II)I"},
	}
	assert.Len(t, filterMethods(methods, ""), 3)
	assert.Len(t, filterMethods(methods, "I)I"), 2)
	got := filterMethods(methods, "(I sp")
	require.Len(t, got, 1)
	assert.Equal(t, "spin", got[0].name)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInteractiveModel(t *testing.T) {
	data, err := testbed.Build(testbed.FileAccess("com/example/FileAccess"))
	require.NoError(t, err)
	r, err := rewrite.New(rewrite.Config{Targets: []string{"spin"}, Strategy: rewrite.StrategyTwoPass})
	require.NoError(t, err)
	out, err := r.Rewrite(data)
	require.NoError(t, err)

	m := newInteractiveModel("FileAccess.class", out.Bytes, r)
	assert.Equal(t, "Loading class...", m.View())
	m.Update(m.loadClass())
	require.Len(t, m.visible, 4)
	assert.Contains(t, m.View(), "[checked]")

	m.Update(key("/"))
	assert.Equal(t, stateFilter, m.state)
	for _, ch := range "spin" {
		m.Update(key(string(ch)))
	}
	require.Len(t, m.visible, 1)
	m.Update(key("enter"))
	assert.Equal(t, stateSelectMethod, m.state)

	m.Update(key("enter"))
	assert.Equal(t, stateShowTrace, m.state)
	view := m.View()
	assert.Contains(t, view, "Trace of")
	assert.Contains(t, view, "INVOKESTATIC "+rewrite.DefaultCheckSymbols().Owner)

	m.Update(key("esc"))
	assert.Equal(t, stateSelectMethod, m.state)
	m.Update(key("esc"))
	assert.Len(t, m.visible, 4)

	m.Update(key("down"))
	assert.Equal(t, 1, m.selected)
}

func TestVersion(t *testing.T) {
	cmd, buf := testCmd()
	versionCmd.Run(cmd, nil)
	var info map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, "entitle", info["name"])
	assert.Equal(t, version, info["version"])
}
