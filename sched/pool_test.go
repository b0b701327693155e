// Worker pool tests
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
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	ringmaster "go-ringmaster"
)

// fakeRunner lets black win every game, with an optional induced
// error for one game id.
type fakeRunner struct {
	failGame string
}

func (r *fakeRunner) Play(ctx context.Context, job *ringmaster.Job) (*ringmaster.JobResult, error) {
	if job.GameID == r.failGame {
		return nil, errors.New("engine exploded")
	}
	return &ringmaster.JobResult{
		GameID: job.GameID,
		Result: &ringmaster.GameResult{
			PlayerB:       job.PlayerB.Code,
			PlayerW:       job.PlayerW.Code,
			WinningPlayer: job.PlayerB.Code,
			WinningColour: ringmaster.Black,
			SGFResult:     "B+R",
		},
	}, nil
}

// countingStore records how often it was asked to checkpoint and the
// last state it saw.
type countingStore struct {
	mu    sync.Mutex
	calls int
	last  *ringmaster.State
}

func (s *countingStore) Checkpoint(ctx context.Context, st *ringmaster.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = st
	return nil
}

func TestRun(t *testing.T) {
	tourn := testTournament(t, Settings{Code: "test", NumberOfGames: 10})
	store := &countingStore{}

	if err := tourn.Run(context.Background(), &fakeRunner{}, store, 3); err != nil {
		t.Fatal(err)
	}
	if n := tourn.GamesPlayed(); n != 10 {
		t.Errorf("games played = %d", n)
	}
	if store.calls != 10 {
		t.Errorf("checkpointed %d times", store.calls)
	}
	if store.last == nil || len(store.last.Results) == 0 {
		t.Fatal("no state checkpointed")
	}
}

func TestRunError(t *testing.T) {
	tourn := testTournament(t, Settings{Code: "test", NumberOfGames: 10})

	err := tourn.Run(context.Background(), &fakeRunner{failGame: "3"}, nil, 2)
	if err == nil || !strings.Contains(err.Error(), "game 3") {
		t.Fatalf("got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	tourn := testTournament(t, Settings{Code: "test", NumberOfGames: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tourn.Run(ctx, &fakeRunner{}, nil, 2); err != nil {
		t.Fatalf("got %v", err)
	}
	// Games may have been handed out before the workers noticed, but
	// nothing close to the full budget was played.
	if n := tourn.GamesPlayed(); n == 10 {
		t.Errorf("cancelled run played all games")
	}
}
