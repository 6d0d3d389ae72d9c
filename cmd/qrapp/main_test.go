package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.json"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateThenScan(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "hello.png")

	out, err := run(t, "generate", "hello from the terminal", "--size", "300", "--fg", "#123", "-o", pngPath)
	require.NoError(t, err)
	assert.Equal(t, pngPath, strings.TrimSpace(out))

	out, err = run(t, "scan", pngPath)
	require.NoError(t, err)
	assert.Equal(t, pngPath+": hello from the terminal\n", out)
}

func TestGenerate_BoombulerPDF(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "code.pdf")

	_, err := run(t, "generate", "https://example.com", "--engine", "BOOMBULER", "--format", "pdf", "-o", pdfPath)
	require.NoError(t, err)

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestGenerate_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "generate", "x", "--size", "601", "-o", filepath.Join(dir, "a.png"))
	assert.Error(t, err)

	_, err = run(t, "generate", "x", "--engine", "zxing", "-o", filepath.Join(dir, "b.png"))
	assert.Error(t, err)

	_, err = run(t, "generate", "x", "--format", "svg", "-o", filepath.Join(dir, "c.svg"))
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestScan_ReportsEachFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	bad := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

	_, err := run(t, "generate", "payload", "-o", good)
	require.NoError(t, err)

	out, err := run(t, "scan", good, bad)
	require.Error(t, err)
	assert.Contains(t, out, good+": payload\n")
	assert.Contains(t, out, bad+": failed to load image.")
}

func TestScan_MissingFile(t *testing.T) {
	_, err := run(t, "scan", filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}
