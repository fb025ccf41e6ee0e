// Package config builds gosymdiff configuration from the environment and reads
// variable bindings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gosymdiff"
)

// Environment variables read by FromEnv.
const (
	EnvBlockSize = "GOSYMDIFF_BLOCK_SIZE"
	EnvNodeLimit = "GOSYMDIFF_NODE_LIMIT"
	EnvMaxVars   = "GOSYMDIFF_MAX_VARS"
	EnvMaxDepth  = "GOSYMDIFF_MAX_DEPTH"
	EnvEpsilon   = "GOSYMDIFF_EPSILON"
	EnvLogLevel  = "GOSYMDIFF_LOG_LEVEL"
)

// FromEnv returns the default configuration overridden by the GOSYMDIFF_*
// variables, read afresh on every call. Unset or unparsable values keep their
// defaults. The logger writes text to stderr at GOSYMDIFF_LOG_LEVEL (info when
// unset).
func FromEnv() gosymdiff.Config {
	env.Load()
	cfg := gosymdiff.DefaultConfig()
	cfg.BlockSize = env.Int(EnvBlockSize, cfg.BlockSize)
	cfg.NodeLimit = env.Int(EnvNodeLimit, cfg.NodeLimit)
	cfg.MaxVars = env.Int(EnvMaxVars, cfg.MaxVars)
	cfg.MaxDepth = env.Int(EnvMaxDepth, cfg.MaxDepth)
	cfg.Epsilon = env.Float64(EnvEpsilon, cfg.Epsilon)
	cfg.Logger = NewLogger(os.Stderr, ParseLevel(env.Str(EnvLogLevel, "info")))
	return cfg
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is
// info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ============================================================
// Variable bindings
// ============================================================

// LoadBindings reads a YAML mapping of variable names to values:
//
//	x: 1.5
//	y: -2
//
// Names must be single ASCII letters. An empty document yields no bindings.
func LoadBindings(r io.Reader) (map[string]float64, error) {
	raw := map[string]float64{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode bindings: %w", err)
	}
	for name := range raw {
		if len(name) != 1 || !isLetter(name[0]) {
			return nil, fmt.Errorf("config: binding %q: %w", name, gosymdiff.ErrUnknownVariable)
		}
	}
	return raw, nil
}

// LoadBindingsFile is LoadBindings on the file at path.
func LoadBindingsFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadBindings(f)
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
