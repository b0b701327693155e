// Checkpoint store
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
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	ringmaster "go-ringmaster"
)

//go:embed *.sql
var sqlDir embed.FS

// Store persists the resumable tournament state in a sqlite file.
// Each checkpoint rewrites the full state in one transaction; the
// results table keeps completion order through its rowid, so a
// restore reproduces the results sequence exactly.
type Store struct {
	// The database connections
	read  *sql.DB
	write *sql.DB

	// The SQL text lives under ./*.sql and is loaded at Open.
	// QUERIES are prepared on READ, COMMANDS on WRITE; SCRIPTS are
	// multi-statement files executed raw.
	queries  map[string]*sql.Stmt
	commands map[string]*sql.Stmt
	scripts  map[string]string
}

// Open creates or opens the checkpoint database.
func Open(file string) (*Store, error) {
	read, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	read.SetConnMaxLifetime(0)
	read.SetMaxIdleConns(1)

	write, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, err
	}
	write.SetConnMaxLifetime(0)
	write.SetMaxIdleConns(1)
	write.SetMaxOpenConns(1)

	s := &Store{
		read:     read,
		write:    write,
		queries:  make(map[string]*sql.Stmt),
		commands: make(map[string]*sql.Stmt),
		scripts:  make(map[string]string),
	}

	for _, pragma := range []string{
		// https://www.sqlite.org/pragma.html#pragma_journal_mode
		"journal_mode = WAL",
		// https://www.sqlite.org/pragma.html#pragma_synchronous
		"synchronous = normal",
		// https://www.sqlite.org/pragma.html#pragma_foreign_keys
		"foreign_keys = on",
	} {
		ringmaster.Debug.Printf("Run PRAGMA %v", pragma)
		if _, err := s.write.Exec("PRAGMA " + pragma + ";"); err != nil {
			return nil, err
		}
	}

	entries, err := sqlDir.ReadDir(".")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		base := path.Base(entry.Name())
		data, err := fs.ReadFile(sqlDir, entry.Name())
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(base, ".sql")
		switch {
		case strings.HasPrefix(name, "create-"):
			_, err = s.write.Exec(string(data))
			ringmaster.Debug.Printf("Executed %v", base)
		case strings.HasPrefix(name, "select-"):
			s.queries[name], err = s.read.Prepare(string(data))
			ringmaster.Debug.Printf("Registered query %v", name)
		case strings.HasPrefix(name, "insert-"):
			s.commands[name], err = s.write.Prepare(string(data))
			ringmaster.Debug.Printf("Registered command %v", name)
		default:
			s.scripts[name] = string(data)
			ringmaster.Debug.Printf("Registered script %v", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %v", entry.Name(), err)
		}
	}

	if len(s.queries) == 0 {
		panic("No queries loaded")
	}
	return s, nil
}

// Checkpoint replaces the stored state with st.
func (s *Store) Checkpoint(ctx context.Context, st *ringmaster.State) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.scripts["delete-all"]); err != nil {
		return err
	}
	if _, err := tx.Stmt(s.commands["insert-checkpoint"]).ExecContext(ctx,
		st.NextGameNumber); err != nil {
		return err
	}

	for _, pr := range st.Results {
		r := pr.Result
		res, err := tx.Stmt(s.commands["insert-result"]).ExecContext(ctx,
			pr.MatchupID, r.PlayerB, r.PlayerW,
			r.WinningPlayer, r.WinningColour.String(), r.SGFResult)
		if err != nil {
			return err
		}
		n, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for player, seconds := range r.CPUTimes {
			_, err = tx.Stmt(s.commands["insert-cpu-time"]).ExecContext(ctx,
				n, player, seconds)
			if err != nil {
				return err
			}
		}
	}

	for code, name := range st.EngineNames {
		_, err = tx.Stmt(s.commands["insert-engine"]).ExecContext(ctx,
			code, name, st.EngineDescriptions[code])
		if err != nil {
			return err
		}
	}
	// Descriptions can exist for codes without a name entry.
	for code, descr := range st.EngineDescriptions {
		if _, ok := st.EngineNames[code]; ok {
			continue
		}
		_, err = tx.Stmt(s.commands["insert-engine"]).ExecContext(ctx,
			code, "", descr)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load reads the stored state back.  It returns nil with no error if
// the database holds no checkpoint yet.
func (s *Store) Load(ctx context.Context) (*ringmaster.State, error) {
	st := &ringmaster.State{
		EngineNames:        make(map[string]string),
		EngineDescriptions: make(map[string]string),
	}

	err := s.queries["select-checkpoint"].QueryRowContext(ctx).
		Scan(&st.NextGameNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.queries["select-results"].QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n      int64
			pr     ringmaster.PairedResult
			r      ringmaster.GameResult
			colour string
		)
		err = rows.Scan(&n, &pr.MatchupID, &r.PlayerB, &r.PlayerW,
			&r.WinningPlayer, &colour, &r.SGFResult)
		if err != nil {
			return nil, err
		}
		switch colour {
		case "b":
			r.WinningColour = ringmaster.Black
		case "w":
			r.WinningColour = ringmaster.White
		}

		r.CPUTimes, err = s.loadCPUTimes(ctx, n)
		if err != nil {
			return nil, err
		}
		pr.Result = &r
		st.Results = append(st.Results, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	engines, err := s.queries["select-engines"].QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer engines.Close()
	for engines.Next() {
		var code, name, descr string
		if err := engines.Scan(&code, &name, &descr); err != nil {
			return nil, err
		}
		if name != "" {
			st.EngineNames[code] = name
		}
		if descr != "" {
			st.EngineDescriptions[code] = descr
		}
	}
	return st, engines.Err()
}

func (s *Store) loadCPUTimes(ctx context.Context, n int64) (map[string]float64, error) {
	rows, err := s.queries["select-cpu-times"].QueryContext(ctx, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	times := make(map[string]float64)
	for rows.Next() {
		var player string
		var seconds float64
		if err := rows.Scan(&player, &seconds); err != nil {
			return nil, err
		}
		times[player] = seconds
	}
	return times, rows.Err()
}

// Close releases both connections.
func (s *Store) Close() error {
	// https://www.sqlite.org/pragma.html#pragma_optimize
	if _, err := s.write.Exec("PRAGMA optimize;"); err != nil {
		return err
	}
	if err := s.write.Close(); err != nil {
		return err
	}
	return s.read.Close()
}
