package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseAwaitingSpin Phase = "awaitingSpin"
	PhaseRanking      Phase = "ranking"
	PhasePlacing      Phase = "placing"
	PhaseCardReveal   Phase = "cardReveal"
	PhaseScoring      Phase = "scoring"
	PhaseRoundEnd     Phase = "roundEnd"
	PhaseFinished     Phase = "finished"
)

type Modifier string

const (
	ModifierNone           Modifier = ""
	ModifierNormal         Modifier = "normal"
	ModifierDouble         Modifier = "double"
	ModifierTriple         Modifier = "triple"
	ModifierBonusMatch1    Modifier = "bonusMatch1"
	ModifierScoreYourChips Modifier = "scoreYourChips"
)

// Modifiers is the spinner wheel; each round draws one uniformly.
var Modifiers = []Modifier{
	ModifierNormal,
	ModifierDouble,
	ModifierTriple,
	ModifierBonusMatch1,
	ModifierScoreYourChips,
}

type Role string

const (
	RoleVictim  Role = "victim"
	RoleGuesser Role = "guesser"
)

const (
	HandSize   = 5
	MinPlayers = 3
	MaxPlayers = 6
)

// Ranking maps hand position to rank (1..5). Index i holds the rank given to
// card i of the hand.
type Ranking [HandSize]int

type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`
}

type PlayerStatus struct {
	Role         Role `json:"role,omitempty"`
	HasSubmitted bool `json:"hasSubmitted"`
}

type PlayerView struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Avatar string       `json:"avatar"`
	Score  int          `json:"score"`
	IsHost bool         `json:"isHost"`
	Status PlayerStatus `json:"status"`
}

// Snapshot is the public view of a room. It never carries the Victim's
// ranking or any guess before the matching card has been revealed. Seq grows
// with every snapshot of the room; clients drop one older than what they hold,
// since timer and request notifications are delivered independently.
type Snapshot struct {
	ID            string        `json:"id"`
	Seq           uint64        `json:"seq"`
	Phase         Phase         `json:"phase"`
	Modifier      Modifier      `json:"modifier,omitempty"`
	RoundIndex    int           `json:"roundIndex"`
	RoundsTarget  int           `json:"roundsTarget"`
	VictimIndex   int           `json:"victimIndex"`
	VictimID      string        `json:"victimId,omitempty"`
	HostID        string        `json:"hostId"`
	Players       []PlayerView  `json:"players"`
	Hand          []string      `json:"hand"`
	CardsRevealed []int         `json:"cardsRevealed"`
	Revealed      []CardOutcome `json:"revealed,omitempty"`
	RoundEnd      *RoundSummary `json:"roundEnd,omitempty"`
}

type ChipResult struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Chip     int    `json:"chip"`
	Match    bool   `json:"match"`
}

type CardOutcome struct {
	Index      int          `json:"index"`
	Text       string       `json:"text"`
	VictimRank int          `json:"victimRank"`
	Results    []ChipResult `json:"results"`
}

type RoundScore struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Gained   int    `json:"gained"`
	Total    int    `json:"total"`
}

type RoundSummary struct {
	Round    int           `json:"round"`
	VictimID string        `json:"victimId"`
	Modifier Modifier      `json:"modifier"`
	Cards    []CardOutcome `json:"cards"`
	Scores   []RoundScore  `json:"scores"`
}

type Standing struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Score  int    `json:"score"`
}

// RoomInfo is the short listing entry used by the host API.
type RoomInfo struct {
	ID         string    `json:"id"`
	Phase      Phase     `json:"phase"`
	Players    int       `json:"players"`
	RoundIndex int       `json:"roundIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}
