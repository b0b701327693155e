// Game runner
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

package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	ringmaster "go-ringmaster"
	"go-ringmaster/proto"
)

// Runner plays scheduled games against live player programs.  Each
// Play call dials both players fresh, so a crashed engine never
// poisons a later game.
type Runner struct {
	// Dial overrides how player addresses are reached.  Tests use
	// this to substitute in-process channels; when nil, the
	// package-level Dial is used.
	Dial func(address string) (proto.Channel, error)
}

// player bundles one side's session for the duration of a game.
type player struct {
	code     string
	colour   ringmaster.Colour
	setup    []string
	ctl      *proto.Controller
	commands map[string]bool
}

func (p *player) known(name string) bool { return p.commands[name] }

// send runs one command and reports a failure response as a
// Failure-kind error, so game logic only has to branch once.
func (p *player) send(name string, args ...string) (string, error) {
	resp, err := p.ctl.Exchange(proto.Command{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	if resp.IsFailure {
		return "", &proto.Error{
			Kind: proto.Failure, Peer: p.code,
			Command: name, Text: resp.Text,
		}
	}
	return resp.Text, nil
}

// Play runs one game to its verdict.  Errors are reserved for broken
// sessions and transport trouble; in-game trouble an engine reports
// itself (an illegal move, a refused genmove) ends the game as a
// forfeit and is part of the result.
func (r *Runner) Play(ctx context.Context, job *ringmaster.Job) (*ringmaster.JobResult, error) {
	black, err := r.connect(job.PlayerB, ringmaster.Black)
	if err != nil {
		return nil, err
	}
	defer black.ctl.Close()
	white, err := r.connect(job.PlayerW, ringmaster.White)
	if err != nil {
		return nil, err
	}
	defer white.ctl.Close()

	res := &ringmaster.JobResult{
		GameID:             job.GameID,
		EngineNames:        make(map[string]string),
		EngineDescriptions: make(map[string]string),
	}
	for _, p := range []*player{black, white} {
		name, descr := describe(p)
		if name != "" {
			res.EngineNames[p.code] = name
		}
		if descr != "" {
			res.EngineDescriptions[p.code] = descr
		}
		if err := setup(p, job); err != nil {
			return nil, err
		}
	}

	result, err := r.playOut(ctx, job, black, white)
	if err != nil {
		return nil, err
	}

	result.PlayerB = black.code
	result.PlayerW = white.code
	result.CPUTimes = map[string]float64{
		black.code: cpuTime(black),
		white.code: cpuTime(white),
	}
	for _, p := range []*player{black, white} {
		if _, err := p.send("quit"); err != nil {
			ringmaster.Debug.Printf("quit to %s: %s", p.code, err)
		}
		p.ctl.MarkSessionEnded()
	}

	res.Result = result
	return res, nil
}

func (r *Runner) connect(pl *ringmaster.Player, colour ringmaster.Colour) (*player, error) {
	dial := r.Dial
	if dial == nil {
		dial = Dial
	}
	ch, err := dial(pl.Address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s (%s): %w", pl.Code, pl.Address, err)
	}
	p := &player{
		code:     pl.Code,
		colour:   colour,
		setup:    pl.Setup,
		ctl:      proto.NewController(ch, pl.Code),
		commands: make(map[string]bool),
	}
	listing, err := p.send("list_commands")
	if err != nil {
		p.ctl.Close()
		return nil, err
	}
	for _, name := range strings.Fields(listing) {
		p.commands[name] = true
	}
	return p, nil
}

// describe asks an engine who it is.  Engines are free not to know
// name or version; whatever they do report becomes the name map
// entries the scheduler merges.
func describe(p *player) (name, descr string) {
	if p.known("name") {
		if text, err := p.send("name"); err == nil {
			name = strings.TrimSpace(text)
		}
	}
	descr = name
	if p.known("version") {
		if text, err := p.send("version"); err == nil {
			if v := strings.TrimSpace(text); v != "" && name != "" {
				descr = name + ":" + v
			}
		}
	}
	return name, descr
}

func setup(p *player, job *ringmaster.Job) error {
	if _, err := p.send("boardsize", strconv.Itoa(job.BoardSize)); err != nil {
		return err
	}
	if _, err := p.send("komi", strconv.FormatFloat(job.Komi, 'f', -1, 64)); err != nil {
		return err
	}
	if _, err := p.send("clear_board"); err != nil {
		return err
	}
	for _, line := range p.setup {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if _, err := p.send(fields[0], fields[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// playOut relays moves until the game decides itself: a resignation,
// two passes in a row, a rejected or refused move, or the move limit.
func (r *Runner) playOut(ctx context.Context, job *ringmaster.Job, black, white *player) (*ringmaster.GameResult, error) {
	mover, other := black, white
	passes := 0
	for move := 0; job.MoveLimit <= 0 || move < job.MoveLimit; move++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := mover.send("genmove", mover.colour.String())
		if kind, ok := proto.ErrorKind(err); ok && kind == proto.Failure {
			return forfeit(other, fmt.Sprintf("%s refused genmove: %s", mover.code, err)), nil
		}
		if err != nil {
			return nil, err
		}

		switch vertex := strings.ToLower(strings.TrimSpace(text)); vertex {
		case "resign":
			return win(other, "R"), nil
		case "pass":
			passes++
			if passes == 2 {
				return score(job, black, white), nil
			}
		default:
			passes = 0
			_, err := other.send("play", mover.colour.String(), vertex)
			if kind, ok := proto.ErrorKind(err); ok && kind == proto.Failure {
				return forfeit(other,
					fmt.Sprintf("%s rejected %s's move %s", other.code, mover.code, vertex)), nil
			}
			if err != nil {
				return nil, err
			}
		}
		mover, other = other, mover
	}
	// Hit the move limit with the game still open.
	return &ringmaster.GameResult{SGFResult: "Void"}, nil
}

func win(p *player, margin string) *ringmaster.GameResult {
	return &ringmaster.GameResult{
		WinningPlayer: p.code,
		WinningColour: p.colour,
		SGFResult:     fmt.Sprintf("%s+%s", strings.ToUpper(p.colour.String()), margin),
	}
}

func forfeit(winner *player, reason string) *ringmaster.GameResult {
	ringmaster.Debug.Printf("forfeit: %s", reason)
	return win(winner, "F")
}

// score settles a double-pass game by asking the engines themselves.
// Preferred scorers are consulted first; the first engine that both
// implements final_score and gives a definite verdict decides.
func score(job *ringmaster.Job, black, white *player) *ringmaster.GameResult {
	byCode := map[string]*player{black.code: black, white.code: white}
	order := append([]string{}, job.ScorerPrefs...)
	for _, code := range []string{black.code, white.code} {
		seen := false
		for _, pref := range job.ScorerPrefs {
			if pref == code {
				seen = true
			}
		}
		if !seen {
			order = append(order, code)
		}
	}

	for _, code := range order {
		p, ok := byCode[code]
		if !ok || !p.known("final_score") {
			continue
		}
		text, err := p.send("final_score")
		if err != nil {
			ringmaster.Debug.Printf("final_score from %s: %s", code, err)
			continue
		}
		verdict := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
		if verdict == "0" {
			// Jigo
			return &ringmaster.GameResult{SGFResult: "0"}
		}
		switch {
		case strings.HasPrefix(verdict, "B+"):
			return &ringmaster.GameResult{
				WinningPlayer: black.code,
				WinningColour: ringmaster.Black,
				SGFResult:     verdict,
			}
		case strings.HasPrefix(verdict, "W+"):
			return &ringmaster.GameResult{
				WinningPlayer: white.code,
				WinningColour: ringmaster.White,
				SGFResult:     verdict,
			}
		}
		ringmaster.Debug.Printf("final_score from %s unintelligible: %q", code, verdict)
	}
	return &ringmaster.GameResult{SGFResult: "?"}
}

func cpuTime(p *player) float64 {
	if !p.known("gomill-cpu_time") {
		return ringmaster.UnknownCPUTime
	}
	text, err := p.send("gomill-cpu_time")
	if err != nil {
		return ringmaster.UnknownCPUTime
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return ringmaster.UnknownCPUTime
	}
	return seconds
}
