// Checkpoint store tests
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

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	ringmaster "go-ringmaster"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testState() *ringmaster.State {
	return &ringmaster.State{
		Results: []ringmaster.PairedResult{
			{MatchupID: 0, Result: &ringmaster.GameResult{
				PlayerB:       "gnugo",
				PlayerW:       "pachi",
				WinningPlayer: "gnugo",
				WinningColour: ringmaster.Black,
				SGFResult:     "B+3.5",
				CPUTimes: map[string]float64{
					"gnugo": 12.5,
					"pachi": ringmaster.UnknownCPUTime,
				},
			}},
			{MatchupID: 1, Result: &ringmaster.GameResult{
				PlayerB:   "pachi",
				PlayerW:   "gnugo",
				SGFResult: "?",
			}},
		},
		NextGameNumber: 2,
		EngineNames: map[string]string{
			"gnugo": "GNU Go",
		},
		EngineDescriptions: map[string]string{
			"gnugo": "GNU Go:3.8",
			"pachi": "Pachi:12.20",
		},
	}
}

func TestLoadEmpty(t *testing.T) {
	s := testStore(t)
	st, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st != nil {
		t.Errorf("fresh store produced state %#v", st)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	want := testState()
	if err := s.Checkpoint(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckpointOverwrites(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.Checkpoint(ctx, testState()); err != nil {
		t.Fatal(err)
	}

	want := testState()
	want.Results = want.Results[:1]
	want.NextGameNumber = 7
	want.EngineNames["pachi"] = "Pachi"
	if err := s.Checkpoint(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestResultOrderSurvives(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	st := &ringmaster.State{NextGameNumber: 8}
	for _, id := range []int{4, 2, 7, 0} {
		st.Results = append(st.Results, ringmaster.PairedResult{
			MatchupID: id,
			Result:    &ringmaster.GameResult{PlayerB: "a", PlayerW: "b", SGFResult: "?"},
		})
	}
	if err := s.Checkpoint(ctx, st); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int{4, 2, 7, 0} {
		if got.Results[i].MatchupID != want {
			t.Errorf("result %d: matchup %d, want %d",
				i, got.Results[i].MatchupID, want)
		}
	}
}
