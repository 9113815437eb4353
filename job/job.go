// Package job loads TOML job files that describe a single interpreter run:
// which program to execute, where its input comes from and what limits
// apply.
package job

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Job struct {
	Run RunDetails `toml:"run"`
	Log LogDetails `toml:"log,omitempty"`
}

type RunDetails struct {
	Program   string `toml:"program"`
	Input     string `toml:"input,omitempty"`
	MaxTicks  int    `toml:"max-ticks,omitempty"`
	DumpState string `toml:"dump-state,omitempty"`
}

type LogDetails struct {
	Level string `toml:"level,omitempty"`
}

func parseJob(f io.Reader) (*Job, error) {
	var out Job
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadFromFile reads a job file. Relative paths inside it resolve against
// the job file's own directory.
func LoadFromFile(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	j, err := parseJob(f)
	if err != nil {
		return nil, err
	}
	if j.Run.Program == "" {
		return nil, fmt.Errorf("job file %s names no program", path)
	}
	dir := filepath.Dir(path)
	j.Run.Program = resolve(dir, j.Run.Program)
	j.Run.Input = resolve(dir, j.Run.Input)
	j.Run.DumpState = resolve(dir, j.Run.DumpState)
	return j, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(filepath.Join(dir, path))
}
