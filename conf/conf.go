// Control file
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

package conf

import (
	"fmt"
	"io"
	"os"

	ringmaster "go-ringmaster"
	"go-ringmaster/sched"

	"github.com/BurntSushi/toml"
)

type PlayerConf struct {
	Address string   `toml:"address"`
	Setup   []string `toml:"setup,omitempty"`
}

type MatchupConf struct {
	P1 string `toml:"p1"`
	P2 string `toml:"p2"`
	// nil means the default, which is to alternate
	Alternating *bool  `toml:"alternating"`
	Description string `toml:"description,omitempty"`
}

// Conf is the complete tournament control file.
type Conf struct {
	Code          string                `toml:"code"`
	Description   string                `toml:"description,omitempty"`
	BoardSize     int                   `toml:"board_size"`
	Komi          float64               `toml:"komi"`
	MoveLimit     int                   `toml:"move_limit"`
	NumberOfGames int                   `toml:"number_of_games,omitempty"`
	ScorerPrefs   []string              `toml:"scorer_prefs,omitempty"`
	Players       map[string]PlayerConf `toml:"players"`
	Matchups      []MatchupConf         `toml:"matchups"`
}

// Configuration object used by default
var defaultConf = Conf{
	BoardSize: 19,
	Komi:      7.5,
	MoveLimit: 1000,
}

// Load reads and validates a control file.
func Load(path string) (*Conf, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c := defaultConf
	if _, err := toml.NewDecoder(file).Decode(&c); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	if c.Code == "" {
		return nil, fmt.Errorf("%s: no tournament code", path)
	}
	if len(c.Players) == 0 {
		return nil, fmt.Errorf("%s: no players configured", path)
	}
	return &c, nil
}

// Dump serialises the configuration into a writer.
func (c *Conf) Dump(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Tournament builds the scheduler described by the control file.
func (c *Conf) Tournament() (*sched.Tournament, error) {
	players := make(map[string]*ringmaster.Player, len(c.Players))
	for code, pc := range c.Players {
		players[code] = &ringmaster.Player{
			Code:    code,
			Address: pc.Address,
			Setup:   pc.Setup,
		}
	}

	matchups := make([]*ringmaster.Matchup, len(c.Matchups))
	for i, mc := range c.Matchups {
		alternating := true
		if mc.Alternating != nil {
			alternating = *mc.Alternating
		}
		matchups[i] = &ringmaster.Matchup{
			P1:          mc.P1,
			P2:          mc.P2,
			Alternating: alternating,
			Description: mc.Description,
		}
	}

	return sched.New(sched.Settings{
		Code:          c.Code,
		Description:   c.Description,
		BoardSize:     c.BoardSize,
		Komi:          c.Komi,
		MoveLimit:     c.MoveLimit,
		NumberOfGames: c.NumberOfGames,
		ScorerPrefs:   c.ScorerPrefs,
	}, players, matchups)
}
