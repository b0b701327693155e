// Progress reports
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
	"io"
	"sort"
	"strings"

	ringmaster "go-ringmaster"
)

// pct formats n as a percentage of baseline.  A zero baseline with a
// zero numerator is "no data"; a zero baseline with a non-zero
// numerator cannot happen in correct operation and is flagged rather
// than raised.
func pct(n, baseline int) string {
	if baseline == 0 {
		if n == 0 {
			return "--"
		}
		return "??"
	}
	return fmt.Sprintf("%.2f%%", 100*float64(n)/float64(baseline))
}

// avgCPUTime averages the known CPU times of one player over a run
// of results.  Unknown entries are excluded from both numerator and
// denominator; with no known times at all the column shows "----".
func avgCPUTime(results []*ringmaster.GameResult, player string) string {
	var sum float64
	var known int
	for _, r := range results {
		t, ok := r.CPUTimes[player]
		if !ok || t == ringmaster.UnknownCPUTime {
			continue
		}
		sum += t
		known++
	}
	if known == 0 {
		return "----"
	}
	return fmt.Sprintf("%7.2f", sum/float64(known))
}

// WriteStaticDescription renders the part of the report that does
// not change as results come in.
func (t *Tournament) WriteStaticDescription(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(w, "tournament: %s\n", t.settings.Code)
	codes := make([]string, 0, len(t.engineDescriptions))
	for code := range t.engineDescriptions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "player %s: %s\n", code, t.engineDescriptions[code])
	}
	fmt.Fprintf(w, "board size: %d\n", t.settings.BoardSize)
	fmt.Fprintf(w, "komi: %v\n", t.settings.Komi)
	fmt.Fprintln(w, t.settings.Description)
}

// WriteStatusSummary renders the incremental progress report: games
// played so far and one block per matchup with recorded results.
// Everything is re-derived from the results log in a single pass, so
// the summary is correct regardless of completion order.
func (t *Tournament) WriteStatusSummary(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := t.settings.NumberOfGames; n <= 0 {
		fmt.Fprintf(w, "%d games played\n", len(t.results))
	} else {
		fmt.Fprintf(w, "%d/%d games played\n", len(t.results), n)
	}
	fmt.Fprintln(w)

	byMatchup := make(map[int][]*ringmaster.GameResult)
	for _, pr := range t.results {
		byMatchup[pr.MatchupID] = append(byMatchup[pr.MatchupID], pr.Result)
	}
	for _, m := range t.matchups {
		if results := byMatchup[m.ID]; len(results) > 0 {
			writeMatchupReport(w, m, results)
		}
	}
}

func writeMatchupReport(w io.Writer, m *ringmaster.Matchup, results []*ringmaster.GameResult) {
	total := len(results)
	x, y := m.P1, m.P2

	var xWins, yWins, unknown, bWins, wWins int
	var xbWins, xwWins, ybWins, ywWins int
	var xbPlayed, xwPlayed, ybPlayed, ywPlayed int
	for _, r := range results {
		switch r.WinningPlayer {
		case x:
			xWins++
		case y:
			yWins++
		case "":
			unknown++
		}
		switch r.WinningColour {
		case ringmaster.Black:
			bWins++
			if r.WinningPlayer == x {
				xbWins++
			}
			if r.WinningPlayer == y {
				ybWins++
			}
		case ringmaster.White:
			wWins++
			if r.WinningPlayer == x {
				xwWins++
			}
			if r.WinningPlayer == y {
				ywWins++
			}
		}
		if r.PlayerB == x {
			xbPlayed++
		}
		if r.PlayerW == x {
			xwPlayed++
		}
		if r.PlayerB == y {
			ybPlayed++
		}
		if r.PlayerW == y {
			ywPlayed++
		}
	}

	fmt.Fprintf(w, "%s (%d games)\n", m.Description, total)
	if unknown > 0 {
		fmt.Fprintf(w, "unknown results: %d %s\n", unknown, pct(unknown, total))
	}

	pad := len(x)
	if len(y) > pad {
		pad = len(y)
	}
	pad += 2

	fmt.Fprintf(w, "%s   black         white        avg cpu\n",
		strings.Repeat(" ", pad+17))
	fmt.Fprintf(w, "%-*s %4d %7s    %4d %7s  %4d %7s  %s\n",
		pad, x, xWins, pct(xWins, total),
		xbWins, pct(xbWins, xbPlayed),
		xwWins, pct(xwWins, xwPlayed),
		avgCPUTime(results, x))
	fmt.Fprintf(w, "%-*s %4d %7s    %4d %7s  %4d %7s  %s\n",
		pad, y, yWins, pct(yWins, total),
		ybWins, pct(ybWins, ybPlayed),
		ywWins, pct(ywWins, ywPlayed),
		avgCPUTime(results, y))
	fmt.Fprintf(w, "%s%4d %7s  %4d %7s\n",
		strings.Repeat(" ", pad+17),
		bWins, pct(bWins, total), wWins, pct(wWins, total))
	fmt.Fprintln(w)
}
