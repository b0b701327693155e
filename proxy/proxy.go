// Forwarding proxy
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

package proxy

import (
	"errors"
	"strings"

	ringmaster "go-ringmaster"
	"go-ringmaster/engine"
	"go-ringmaster/proto"
)

// Passthrough is the escape command for reaching a back-end command
// whose name collides with one of the proxy's own.
const Passthrough = "gomill-passthrough"

// BackEndError reports that the back end (or its channel) is broken,
// as opposed to the back end declining a command.
type BackEndError struct{ Err error }

func (e *BackEndError) Error() string { return e.Err.Error() }
func (e *BackEndError) Unwrap() error { return e.Err }

// Proxy is a protocol-conformant endpoint that forwards unhandled
// commands to a wrapped back-end controller.  A supervisor drives it
// through Engine like any other program; locally registered handlers
// always win over same-named back-end commands, which is what the
// passthrough escape is for.
//
// Resolution order for an incoming command: a locally registered
// handler if present, else the back end if it advertised the name,
// else an unknown-command failure.
type Proxy struct {
	Engine *engine.Engine

	controller *proto.Controller
	// command names the back end advertised at attach time
	backEndCommands map[string]bool
}

// New returns a proxy with no back end attached.  Its engine answers
// the meta-commands (protocol version, command listing and existence,
// quit, passthrough) even in this state.
func New() *Proxy {
	p := &Proxy{
		Engine:          engine.New(),
		backEndCommands: make(map[string]bool),
	}
	p.Engine.Add(Passthrough, p.handlePassthrough)
	p.Engine.Add("quit", p.handleQuit)
	return p
}

// SetBackEndController attaches the back end and enumerates its
// supported commands with one exchange.  Every advertised name that
// is not already locally handled becomes a forwarding handler.  If
// the enumeration exchange itself fails, the attach fails: a peer
// that cannot answer list_commands cannot be proxied.
func (p *Proxy) SetBackEndController(ctl *proto.Controller) error {
	resp, err := ctl.Exchange(proto.Command{Name: "list_commands"})
	if err != nil {
		return &BackEndError{Err: err}
	}
	if resp.IsFailure {
		return &BackEndError{Err: &proto.Error{
			Kind: proto.Failure, Peer: ctl.Name(),
			Command: "list_commands", Text: resp.Text,
		}}
	}

	p.controller = ctl
	for _, name := range strings.Fields(resp.Text) {
		p.backEndCommands[name] = true
		if p.Engine.Known(name) {
			continue
		}
		name := name
		p.Engine.Add(name, func(args []string) (string, error) {
			return p.forward(name, args)
		})
	}
	return nil
}

// BackEndHasCommand reports whether the back end advertised name.
// The passthrough escape is always resolved locally, so it is never
// reported as back-end-capable even if the back end has it.
func (p *Proxy) BackEndHasCommand(name string) bool {
	return name != Passthrough && p.backEndCommands[name]
}

// PassCommand sends a command directly to the back end, bypassing
// the proxy's own command table.  A failure response comes back as a
// Failure-kind *proto.Error carrying the back end's literal message;
// a broken channel comes back as a *BackEndError, so callers can
// tell "the program ran and declined" from "the program is broken".
func (p *Proxy) PassCommand(name string, args []string) (string, error) {
	if p.controller == nil {
		return "", &BackEndError{Err: errors.New("no back end attached")}
	}
	cmd := proto.Command{Name: name, Args: args}
	resp, err := p.controller.Exchange(cmd)
	if err != nil {
		return "", &BackEndError{Err: err}
	}
	if resp.IsFailure {
		return "", &proto.Error{
			Kind: proto.Failure, Peer: p.controller.Name(),
			Command: cmd.String(), Text: resp.Text,
		}
	}
	return resp.Text, nil
}

// HandleCommand lets a locally registered handler invoke another
// command (local or back-end) as a sub-step, propagating its result
// or failure without duplicating the forwarding logic.
func (p *Proxy) HandleCommand(name string, args []string) (string, error) {
	failure, text, end := p.Engine.Run(name, args)
	switch {
	case failure && end:
		return "", engine.Fatalf("%s", text)
	case failure:
		return "", errors.New(text)
	case end:
		return text, engine.Quit
	default:
		return text, nil
	}
}

// forward relays one command to the back end for the registered
// forwarding handlers.  A declined command surfaces as an ordinary
// failure with the back end's text; a dead or non-conforming channel
// ends the proxy's own session in the same response, so the
// supervisor sees the failure and the terminal signal together.
func (p *Proxy) forward(name string, args []string) (string, error) {
	if p.controller == nil {
		return "", errors.New("no back end attached")
	}
	resp, err := p.controller.Exchange(proto.Command{Name: name, Args: args})
	if err != nil {
		if kind, ok := proto.ErrorKind(err); ok && kind != proto.Failure {
			return "", &engine.Fatal{Err: err}
		}
		return "", err
	}
	if resp.IsFailure {
		return "", errors.New(resp.Text)
	}
	return resp.Text, nil
}

func (p *Proxy) handlePassthrough(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("invalid arguments")
	}
	return p.forward(args[0], args[1:])
}

// handleQuit forwards quit to the back end before ending the proxy's
// own session.  A quit response alone does not close the controller,
// so it is marked ended explicitly.
func (p *Proxy) handleQuit([]string) (string, error) {
	if p.controller != nil && !p.controller.SessionEnded() {
		if _, err := p.PassCommand("quit", nil); err != nil {
			ringmaster.Debug.Printf("quit relay: %v", err)
		}
		p.controller.MarkSessionEnded()
	}
	return "", engine.Quit
}

// Close tears down the back-end channel.
func (p *Proxy) Close() error {
	if p.controller == nil {
		return nil
	}
	return p.controller.Close()
}
