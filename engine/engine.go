// Protocol endpoint
//
// Copyright (c) 2023, 2024  The go-ringmaster authors
//
// This file is part of go-ringmaster.
//
// go-ringmaster is free software: you can redistribute it and/or
// modify it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-ringmaster is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-ringmaster. If not, see
// <http://www.gnu.org/licenses/>

package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// A Handler implements one command.  A non-nil error becomes a
// failure response carrying the error text; see Fatal and Quit for
// handlers that also end the session.
type Handler func(args []string) (string, error)

// Quit is returned by handlers whose success response ends the
// session, the way the builtin quit command does.
var Quit = errors.New("quit")

// Fatal wraps an error whose failure response also ends the session.
type Fatal struct{ Err error }

func (f *Fatal) Error() string { return f.Err.Error() }
func (f *Fatal) Unwrap() error { return f.Err }

// Fatalf builds a session-ending failure.
func Fatalf(format string, args ...interface{}) error {
	return &Fatal{Err: fmt.Errorf(format, args...)}
}

// Engine maps command names to handlers and answers the protocol's
// own meta-commands.  A fresh engine always knows protocol_version,
// list_commands, known_command and quit.
//
// Engines are built once during setup and not mutated concurrently
// with Run.
type Engine struct {
	handlers map[string]Handler
}

func New() *Engine {
	e := &Engine{handlers: make(map[string]Handler)}
	e.Add("protocol_version", func([]string) (string, error) {
		return "2", nil
	})
	e.Add("list_commands", func([]string) (string, error) {
		return strings.Join(e.Commands(), "\n"), nil
	})
	e.Add("known_command", func(args []string) (string, error) {
		if len(args) == 0 {
			return "", errors.New("invalid arguments")
		}
		return fmt.Sprintf("%t", e.Known(args[0])), nil
	})
	e.Add("quit", func([]string) (string, error) {
		return "", Quit
	})
	return e
}

// Add registers a handler.  The last registration for a name wins.
func (e *Engine) Add(name string, h Handler) {
	e.handlers[name] = h
}

// Known reports whether a handler is registered for name.
func (e *Engine) Known(name string) bool {
	_, ok := e.handlers[name]
	return ok
}

// Commands returns the supported command names, sorted.
func (e *Engine) Commands() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one command.  It reports the response text, whether
// the response is a failure, and whether the session has ended.  An
// unknown command is a plain failure.
func (e *Engine) Run(name string, args []string) (failure bool, text string, end bool) {
	h, ok := e.handlers[name]
	if !ok {
		return true, "unknown command", false
	}

	text, err := h(args)
	switch {
	case err == nil:
		return false, text, false
	case errors.Is(err, Quit):
		return false, text, true
	default:
		var fatal *Fatal
		if errors.As(err, &fatal) {
			return true, err.Error(), true
		}
		return true, err.Error(), false
	}
}
