// Worker pool
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
	"fmt"
	"log"

	ringmaster "go-ringmaster"

	"github.com/creachadair/taskgroup"
)

// A Runner plays out one scheduled game and reports its outcome.
// Each invocation owns its own player sessions; the pool never shares
// a Runner call between games.
type Runner interface {
	Play(ctx context.Context, job *ringmaster.Job) (*ringmaster.JobResult, error)
}

// A Checkpointer persists tournament state between games so an
// interrupted run can be resumed.
type Checkpointer interface {
	Checkpoint(ctx context.Context, st *ringmaster.State) error
}

// Run drives the tournament to completion with the given number of
// parallel worker slots.  Each worker repeatedly takes the next
// scheduled game, has the runner play it, records the result and
// checkpoints.  A runner error or a scheduling consistency failure
// aborts the whole run; cancelling ctx stops the run cleanly after
// the games in flight.
func (t *Tournament) Run(ctx context.Context, runner Runner, cp Checkpointer, slots int) error {
	if slots < 1 {
		slots = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := taskgroup.New(taskgroup.Trigger(cancel))
	for i := 0; i < slots; i++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				job, ok := t.GetGame()
				if !ok {
					return nil
				}
				ringmaster.Debug.Printf("Starting game %s: %s (b) vs %s (w)",
					job.GameID, job.PlayerB, job.PlayerW)

				res, err := runner.Play(ctx, job)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("game %s: %w", job.GameID, err)
				}
				if err := t.ProcessGameResult(res); err != nil {
					return err
				}
				log.Printf("game %s: %s", res.GameID, res.Result.Describe())

				if cp != nil {
					if err := cp.Checkpoint(ctx, t.Snapshot()); err != nil {
						return fmt.Errorf("checkpoint after game %s: %w", res.GameID, err)
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
