package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetdb "github.com/ideamans/go-sheetdb"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opsheet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: memory\nlog_level: error\n"), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestEnsure(t *testing.T) {
	out, err := run(t, "ensure", "--config", writeConfig(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 8)
	assert.Contains(t, lines, "delegations ok")
}

func TestList(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "list", "users", "--format", "yaml", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	_, err = run(t, "list", "payroll", "--config", cfg)
	assert.ErrorContains(t, err, `unknown table "payroll"`)

	_, err = run(t, "list", "users", "--format", "csv", "--config", cfg)
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "list", "--config", cfg)
	assert.Error(t, err)
}

func TestWriteRecords(t *testing.T) {
	records := []*sheetdb.Record{
		sheetdb.NewRecord(map[string]interface{}{"id": int64(1), "name": "Bob"}),
	}

	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, records, "json"))
	assert.JSONEq(t, `[{"id":1,"name":"Bob"}]`, buf.String())

	buf.Reset()
	require.NoError(t, writeRecords(&buf, records, "yaml"))
	assert.Equal(t, "- id: 1\n  name: Bob\n", buf.String())
}
