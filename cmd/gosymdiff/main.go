// Command gosymdiff is an interactive differentiator.
//
// Type an expression to see it parsed and differentiated. Lines starting with
// ':' are commands; :help lists them.
//
// Usage:
//
//	gosymdiff [-journal steps.db] [-v]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/njchilds90/gosymdiff/internal/config"
	"github.com/njchilds90/gosymdiff/internal/journal"
)

const (
	prompt      = "d> "
	historyFile = ".gosymdiff_history"
)

func main() {
	journalPath := flag.String("journal", "", "record every step in this SQLite file")
	verbose := flag.Bool("v", false, "log steps at debug level")
	flag.Parse()

	cfg := config.FromEnv()
	if *verbose {
		cfg.Logger = config.NewLogger(os.Stderr, slog.LevelDebug)
	}

	var j *journal.Journal
	if *journalPath != "" {
		var err error
		if j, err = journal.Open(*journalPath); err != nil {
			fmt.Fprintln(os.Stderr, "gosymdiff:", err)
			os.Exit(1)
		}
	}

	code := run(newREPL(cfg, j, os.Stdout))
	if j != nil {
		_ = j.Close()
	}
	os.Exit(code)
}

func run(r *repl) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

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

	fmt.Fprintln(r.out, "gosymdiff: type an expression, :help for commands")
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return 0
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "gosymdiff:", err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if r.handle(line) {
			return 0
		}
	}
}
