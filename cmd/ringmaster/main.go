// Entry point
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	ringmaster "go-ringmaster"
	"go-ringmaster/conf"
	"go-ringmaster/db"
	"go-ringmaster/game"
)

func main() {
	var (
		control = flag.String("conf", "", "Tournament control file")
		dbfile  = flag.String("db", "", "Checkpoint database (default <code>.db)")
		workers = flag.Int("workers", 1, "Number of games to play in parallel")
		debug   = flag.Bool("debug", false, "Enable debug logging")
		report  = flag.Bool("report", false, "Print the status report and exit")
	)
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *debug {
		ringmaster.Debug.SetOutput(os.Stderr)
	}
	if *control == "" {
		log.Fatal("No control file (-conf)")
	}

	c, err := conf.Load(*control)
	if err != nil {
		log.Fatal(err)
	}
	t, err := c.Tournament()
	if err != nil {
		log.Fatal(err)
	}

	if *dbfile == "" {
		*dbfile = c.Code + ".db"
	}
	store, err := db.Open(*dbfile)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	// Interrupting the run finishes the games in flight and leaves a
	// consistent checkpoint behind.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if st, err := store.Load(ctx); err != nil {
		log.Fatal(err)
	} else if st != nil {
		t.Restore(st)
		log.Printf("Resuming %s: %d games played, next game %d",
			c.Code, len(st.Results), st.NextGameNumber)
	}

	if *report {
		t.WriteStaticDescription(os.Stdout)
		fmt.Println()
		t.WriteStatusSummary(os.Stdout)
		return
	}

	if err := t.Run(ctx, &game.Runner{}, store, *workers); err != nil {
		log.Fatal(err)
	}
	if ctx.Err() != nil {
		log.Println("Caught interrupt")
	}

	fmt.Println()
	t.WriteStatusSummary(os.Stdout)
}
