// Matchup scheduler
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

package sched

import (
	"fmt"
	"strconv"
	"sync"

	ringmaster "go-ringmaster"
)

// Settings are the fixed per-game parameters of a tournament.
// NumberOfGames <= 0 means no game limit.
type Settings struct {
	Code          string
	Description   string
	BoardSize     int
	Komi          float64
	MoveLimit     int
	NumberOfGames int
	ScorerPrefs   []string
}

// Tournament drives a numbered sequence of games over a fixed list
// of matchups.  Game numbers cycle round-robin through the matchup
// list, with colours flipping every full cycle for alternating
// matchups, so long-run colour balance converges to even.
//
// GetGame and ProcessGameResult are safe to call from independent
// worker goroutines; everything else is set up before workers start.
type Tournament struct {
	settings Settings
	players  map[string]*ringmaster.Player
	matchups []*ringmaster.Matchup

	mu                 sync.Mutex
	results            []ringmaster.PairedResult
	nextGameNumber     int
	engineNames        map[string]string
	engineDescriptions map[string]string
}

// New validates the configuration and returns a tournament with
// clean state.  Matchup ids are assigned from list position; they
// are the join key into results.
func New(settings Settings, players map[string]*ringmaster.Player, matchups []*ringmaster.Matchup) (*Tournament, error) {
	if len(matchups) == 0 {
		return nil, fmt.Errorf("no matchups configured")
	}
	for i, m := range matchups {
		if m.P1 == "" || m.P2 == "" {
			return nil, fmt.Errorf("matchup entry %d: not enough arguments", i)
		}
		if _, ok := players[m.P1]; !ok {
			return nil, fmt.Errorf("matchup entry %d: unknown player %s", i, m.P1)
		}
		if _, ok := players[m.P2]; !ok {
			return nil, fmt.Errorf("matchup entry %d: unknown player %s", i, m.P2)
		}
		m.ID = i
		if m.Description == "" {
			m.Description = fmt.Sprintf("%s v %s", m.P1, m.P2)
		}
	}

	return &Tournament{
		settings:           settings,
		players:            players,
		matchups:           matchups,
		engineNames:        make(map[string]string),
		engineDescriptions: make(map[string]string),
	}, nil
}

func (t *Tournament) Matchups() []*ringmaster.Matchup { return t.matchups }

// FindPlayers resolves the matchup and colour assignment for a game
// number.  For all g, the matchup id is g mod len(matchups); an
// alternating matchup swaps colours on every odd cycle.
func (t *Tournament) FindPlayers(gameNumber int) (matchupID int, black, white string) {
	quot, rem := gameNumber/len(t.matchups), gameNumber%len(t.matchups)
	m := t.matchups[rem]
	if m.Alternating && quot%2 == 1 {
		return rem, m.P2, m.P1
	}
	return rem, m.P1, m.P2
}

// GetGame emits the job for the next game number, or ok == false if
// the configured game budget is exhausted.  The counter moves the
// instant a job is handed out: a crash before the matching result is
// recorded permanently skips that game number, which we accept for
// the sake of a simple resumability contract.
func (t *Tournament) GetGame() (job *ringmaster.Job, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	gameNumber := t.nextGameNumber
	if n := t.settings.NumberOfGames; n > 0 && gameNumber >= n {
		return nil, false
	}
	t.nextGameNumber++

	_, black, white := t.FindPlayers(gameNumber)
	return &ringmaster.Job{
		GameID:      strconv.Itoa(gameNumber),
		PlayerB:     t.players[black],
		PlayerW:     t.players[white],
		BoardSize:   t.settings.BoardSize,
		Komi:        t.settings.Komi,
		MoveLimit:   t.settings.MoveLimit,
		ScorerPrefs: t.settings.ScorerPrefs,
		Event:       t.settings.Code,
	}, true
}

// ProcessGameResult ingests the outcome of one finished game.
// Results accumulate in completion order, not game-number order.  A
// result whose reported colours differ from what was scheduled for
// that game number means the scheduler and the game runner have
// desynchronized; that corrupts the resumable state, so it is
// reported as an error rather than coerced.
func (t *Tournament) ProcessGameResult(res *ringmaster.JobResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for code, name := range res.EngineNames {
		t.engineNames[code] = name
	}
	for code, descr := range res.EngineDescriptions {
		t.engineDescriptions[code] = descr
	}

	gameNumber, err := strconv.Atoi(res.GameID)
	if err != nil {
		return fmt.Errorf("malformed game id %q: %v", res.GameID, err)
	}
	matchupID, black, white := t.FindPlayers(gameNumber)
	if black != res.Result.PlayerB || white != res.Result.PlayerW {
		return fmt.Errorf(
			"game %s: scheduled %s (b) vs %s (w) but result reports %s (b) vs %s (w)",
			res.GameID, black, white, res.Result.PlayerB, res.Result.PlayerW)
	}

	t.results = append(t.results, ringmaster.PairedResult{
		MatchupID: matchupID,
		Result:    res.Result,
	})
	ringmaster.Debug.Printf("%4s %s", res.GameID, res.Result.Describe())
	return nil
}

// GamesPlayed counts recorded results.
func (t *Tournament) GamesPlayed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.results)
}

// Snapshot copies the complete resumable state.
func (t *Tournament) Snapshot() *ringmaster.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := &ringmaster.State{
		Results:            make([]ringmaster.PairedResult, len(t.results)),
		NextGameNumber:     t.nextGameNumber,
		EngineNames:        make(map[string]string, len(t.engineNames)),
		EngineDescriptions: make(map[string]string, len(t.engineDescriptions)),
	}
	copy(st.Results, t.results)
	for k, v := range t.engineNames {
		st.EngineNames[k] = v
	}
	for k, v := range t.engineDescriptions {
		st.EngineDescriptions[k] = v
	}
	return st
}

// Restore resumes from a snapshot, replacing any current state.
func (t *Tournament) Restore(st *ringmaster.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = append(t.results[:0:0], st.Results...)
	t.nextGameNumber = st.NextGameNumber
	t.engineNames = make(map[string]string, len(st.EngineNames))
	for k, v := range st.EngineNames {
		t.engineNames[k] = v
	}
	t.engineDescriptions = make(map[string]string, len(st.EngineDescriptions))
	for k, v := range st.EngineDescriptions {
		t.engineDescriptions[k] = v
	}
}
