package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaceEntry_Weight(t *testing.T) {
	e := RaceEntry{Cands: []Candidate{{Name: "A", ElectoralVotes: 0}, {Name: "B", ElectoralVotes: 19}}}
	assert.Equal(t, 19, e.Weight())

	e.ElectoralVotes = 20
	assert.Equal(t, 20, e.Weight())

	assert.Equal(t, 0, RaceEntry{}.Weight())
}

func TestTotalVotes(t *testing.T) {
	assert.InDelta(t, 650.5, TotalVotes([]Candidate{{Votes: 600}, {Votes: 50.5}}), 1e-9)
	assert.Zero(t, TotalVotes(nil))
}

func TestSavefile_Kinds(t *testing.T) {
	sf := &Savefile{Elections: map[ElectionKind][]RaceEntry{
		"mayor":       nil,
		KindHouse:     nil,
		KindPresident: nil,
		"assembly":    nil,
	}}
	assert.Equal(t, []ElectionKind{KindPresident, KindHouse, "assembly", "mayor"}, sf.Kinds())
}

func TestElectionKind_Weighted(t *testing.T) {
	assert.True(t, KindPresident.Weighted())
	assert.False(t, KindSenate.Weighted())
}

func TestPartyName(t *testing.T) {
	assert.Equal(t, "Democratic", PartyName("D"))
	assert.Equal(t, "Republican", PartyName("R"))
	assert.Equal(t, "Independent", PartyName("I"))
	assert.Equal(t, "G", PartyName("G"))
}

func TestPartyRank(t *testing.T) {
	assert.Less(t, PartyRank("D"), PartyRank("R"))
	assert.Less(t, PartyRank("R"), PartyRank("I"))
	assert.Less(t, PartyRank("I"), PartyRank("L"))
	assert.Equal(t, PartyRank("L"), PartyRank("G"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 13.04, Percent(150, 1150))
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 100.0, Percent(5, 5))
}

func TestSchemaError(t *testing.T) {
	inner := errors.New("boom")
	err := NewSchemaError("president[0].state", "required", inner)
	assert.Equal(t, "schema: president[0].state: required", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "schema: empty savefile", NewSchemaError("", "empty savefile", nil).Error())
}
