// Copyright (c) 2024 mStar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package repl is the operator console: one command per line, one answer per command
package repl

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrStop can be returned by a command to end the repl after its answer was written
var ErrStop = errors.New("repl stopped")

// Handler runs a command with the words following its name
type Handler func(args []string) (string, error)

type Command struct {
	Name string
	// Shown after the name by help, e.g. "<w> <h>"
	Usage string
	Run   Handler
}

type Repl struct {
	input    io.ReadCloser
	output   io.WriteCloser
	scanner  *bufio.Scanner
	writer   *bufio.Writer
	commands map[string]Command

	closeOnce sync.Once
}

// New creates a repl reading commands from in and answering on out.
// Both get closed once the repl stops for any reason but the end of input
func New(in io.ReadCloser, out io.WriteCloser) *Repl {
	return &Repl{
		input:    in,
		output:   out,
		scanner:  bufio.NewScanner(in),
		writer:   bufio.NewWriter(out),
		commands: map[string]Command{},
	}
}

// Register adds commands. Names are unique, help is taken
func (r *Repl) Register(cmds ...Command) error {
	for _, cmd := range cmds {
		if _, exists := r.commands[cmd.Name]; exists || cmd.Name == "help" {
			return errors.Errorf("command %q registered twice", cmd.Name)
		}
		if cmd.Run == nil {
			return errors.Errorf("command %q has no handler", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
	}
	return nil
}

// Execute runs one line of input and returns the answer. Errors of a command are part of
// the answer, only ErrStop is passed on. Safe to call while Run is active
func (r *Repl) Execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	if fields[0] == "help" {
		return r.help(), nil
	}
	cmd, ok := r.commands[fields[0]]
	if !ok {
		return fmt.Sprintf("Unknown command %q, try help", fields[0]), nil
	}
	res, err := cmd.Run(fields[1:])
	switch {
	case errors.Is(err, ErrStop):
		return res, err
	case err != nil:
		return "Error: " + err.Error(), nil
	}
	return res, nil
}

func (r *Repl) help() string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := []string{"Commands:"}
	for _, name := range names {
		lines = append(lines, strings.TrimSpace(name+" "+r.commands[name].Usage))
	}
	return strings.Join(lines, "\n  ")
}

// Run answers every line of input until the input ends or a command returns ErrStop.
// Blocks until then
func (r *Repl) Run() error {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		res, err := r.Execute(line)
		if werr := r.write(res); werr != nil {
			r.Close()
			return werr
		}
		if err != nil {
			r.Close()
			return nil
		}
	}
	return errors.Wrap(r.scanner.Err(), "reading input")
}

func (r *Repl) write(res string) error {
	if _, err := r.writer.WriteString(res + "\n"); err != nil {
		return errors.Wrapf(err, "writing answer %q", res)
	}
	return errors.Wrap(r.writer.Flush(), "flushing answer")
}

// Close stops the repl if it was still running and closes its input and output
func (r *Repl) Close() {
	r.closeOnce.Do(func() {
		r.input.Close()
		r.output.Close()
	})
}
