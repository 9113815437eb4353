package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJob(t *testing.T) {
	j, err := parseJob(strings.NewReader(`
[run]
program = "prog.xml"
input = "in.txt"
max-ticks = 250
dump-state = "final.bin"

[log]
level = "debug"
`))
	require.NoError(t, err)
	require.Equal(t, "prog.xml", j.Run.Program)
	require.Equal(t, "in.txt", j.Run.Input)
	require.Equal(t, 250, j.Run.MaxTicks)
	require.Equal(t, "final.bin", j.Run.DumpState)
	require.Equal(t, "debug", j.Log.Level)
}

func TestParseJobDefaults(t *testing.T) {
	j, err := parseJob(strings.NewReader(`
[run]
program = "prog.xml"
`))
	require.NoError(t, err)
	require.Equal(t, "prog.xml", j.Run.Program)
	require.Empty(t, j.Run.Input)
	require.Zero(t, j.Run.MaxTicks)
}

func TestLoadFromFileResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "case.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[run]
program = "prog.xml"
input = "/var/data/in.txt"
`), 0o644))

	j, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "prog.xml"), j.Run.Program)
	require.Equal(t, "/var/data/in.txt", j.Run.Input, "absolute paths stay as-is")
}

func TestLoadFromFileRequiresProgram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(path, []byte("[run]\n"), 0o644))

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "names no program")
}
