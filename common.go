// Common types and constants
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

package ringmaster

import "fmt"

// A Colour identifies the side a player was assigned in one game.
type Colour byte

const (
	NoColour Colour = 0
	Black    Colour = 'b'
	White    Colour = 'w'
)

func (c Colour) String() string {
	switch c {
	case Black:
		return "b"
	case White:
		return "w"
	case NoColour:
		return "none"
	default:
		panic(fmt.Sprintf("Illegal colour: %c", byte(c)))
	}
}

func (c Colour) Opposite() Colour {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	panic("Illegal colour")
}

// UnknownCPUTime marks a CPU time the engine could not report.
const UnknownCPUTime = -1

// Player is the resolved configuration of one engine taking part in
// the tournament.  The address names where the program can be reached
// (host:port or a ws:// URL); how the program itself is started is
// outside our responsibility.
type Player struct {
	Code    string
	Address string
	// Commands sent once after the board has been set up.
	Setup []string
}

func (p *Player) String() string { return p.Code }

// Matchup is a configured repeating pairing of two players.  If
// Alternating is false, P1 always plays black; otherwise the colours
// flip on every cycle through the matchup list.  The id is the
// matchup's stable position in the configured list.
type Matchup struct {
	ID          int
	P1, P2      string
	Alternating bool
	Description string
}

// Job describes a single game handed to the game runner.
type Job struct {
	GameID      string
	PlayerB     *Player
	PlayerW     *Player
	BoardSize   int
	Komi        float64
	MoveLimit   int
	ScorerPrefs []string
	// Event tag recorded for provenance (competition code).
	Event string
}

// GameResult is the verdict of one finished game as reported by the
// game runner.  WinningPlayer is empty and WinningColour is NoColour
// for a jigo or an unknown result.  CPUTimes maps player codes to
// seconds, with UnknownCPUTime for engines that could not report one.
type GameResult struct {
	PlayerB, PlayerW string
	WinningPlayer    string
	WinningColour    Colour
	// Result string in SGF convention, e.g. "B+3.5" or "W+R".
	SGFResult string
	CPUTimes  map[string]float64
}

// Describe renders the result in report form, e.g. "gnugo beat pachi B+3.5".
func (r *GameResult) Describe() string {
	if r.WinningPlayer == "" {
		return fmt.Sprintf("%s vs %s %s", r.PlayerB, r.PlayerW, r.SGFResult)
	}
	loser := r.PlayerB
	if r.WinningPlayer == r.PlayerB {
		loser = r.PlayerW
	}
	return fmt.Sprintf("%s beat %s %s", r.WinningPlayer, loser, r.SGFResult)
}

// JobResult is everything the game runner reports back to the
// scheduler: the verdict plus the name and description strings the
// engines announced for themselves, keyed by player code.
type JobResult struct {
	GameID             string
	Result             *GameResult
	EngineNames        map[string]string
	EngineDescriptions map[string]string
}

// PairedResult joins a game result to the matchup it was scheduled
// under.
type PairedResult struct {
	MatchupID int
	Result    *GameResult
}

// State is the complete resumable tournament state.  Persisting and
// later restoring it lets the scheduler continue exactly where it
// left off; every report is re-derived from Results alone.  Results
// are kept in completion order.
type State struct {
	Results            []PairedResult
	NextGameNumber     int
	EngineNames        map[string]string
	EngineDescriptions map[string]string
}
