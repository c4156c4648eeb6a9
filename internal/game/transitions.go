package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

type ActionKind int

const (
	ActionStart ActionKind = iota
	ActionSpin
	ActionRank
	ActionGuess
	ActionReveal
)

// Action is an in-round request from a player.
type Action struct {
	Kind     ActionKind
	PlayerID string
	Order    []int
	Index    int
}

type phaseHandler func(s *Session, a Action, out *outbox) error

// transitions holds one handler per phase that accepts player actions.
// Phases missing from the table reject everything with ErrWrongPhase.
var transitions = map[Phase]phaseHandler{
	PhaseLobby:        (*Session).onLobby,
	PhaseAwaitingSpin: (*Session).onAwaitingSpin,
	PhaseRanking:      (*Session).onRanking,
	PhasePlacing:      (*Session).onPlacing,
	PhaseCardReveal:   (*Session).onCardReveal,
}

func (s *Session) onLobby(a Action, out *outbox) error {
	if a.Kind != ActionStart {
		return ErrWrongPhase
	}
	if a.PlayerID != s.hostID {
		return ErrNotHost
	}
	if len(s.players) < MinPlayers || len(s.players) > MaxPlayers {
		return ErrInsufficientPlayers
	}
	s.roundIndex = 1
	s.roundsTarget = RoundsFor(len(s.players))
	s.victimIndex = 0
	s.beginRound(out)
	return nil
}

func (s *Session) onAwaitingSpin(a Action, out *outbox) error {
	if a.Kind != ActionSpin {
		return ErrWrongPhase
	}
	if a.PlayerID != s.victimID {
		return ErrNotVictim
	}
	s.modifier = Modifiers[s.rng.IntN(len(Modifiers))]
	s.setPhase(PhaseRanking)
	out.room(EventSpinResult, SpinPayload{Modifier: s.modifier, Room: s.snapshot()})
	out.to(s.victimID, EventYouAreVictim, VictimPayload{
		Hand:            append([]string(nil), s.hand...),
		Modifier:        s.modifier,
		RequiresRanking: true,
	})
	return nil
}

// onRanking accepts the Victim's ranking and early guesses; guessers may place
// chips while the Victim is still deciding.
func (s *Session) onRanking(a Action, out *outbox) error {
	switch a.Kind {
	case ActionRank:
		if a.PlayerID != s.victimID {
			return ErrNotVictim
		}
		r, err := ToRanking(a.Order)
		if err != nil {
			return err
		}
		s.ranking = &r
		s.setPhase(PhasePlacing)
		out.room(EventRoomUpdate, RoomPayload{Room: s.snapshot()})
		s.checkPlacingComplete(out)
		return nil
	case ActionGuess:
		return s.placeGuess(a, out)
	}
	return ErrWrongPhase
}

func (s *Session) onPlacing(a Action, out *outbox) error {
	if a.Kind != ActionGuess {
		return ErrWrongPhase
	}
	return s.placeGuess(a, out)
}

func (s *Session) placeGuess(a Action, out *outbox) error {
	if a.PlayerID == s.victimID {
		return ErrIsVictim
	}
	g, err := ToRanking(a.Order)
	if err != nil {
		return err
	}
	s.guesses[a.PlayerID] = g
	out.room(EventRoomUpdate, RoomPayload{Room: s.snapshot()})
	s.checkPlacingComplete(out)
	return nil
}

func (s *Session) onCardReveal(a Action, out *outbox) error {
	if a.Kind != ActionReveal {
		return ErrWrongPhase
	}
	if a.PlayerID != s.victimID {
		return ErrNotVictim
	}
	if a.Index < 0 || a.Index >= len(s.hand) {
		return ErrIndexOutOfRange
	}
	s.reveal(a.Index, out)
	return nil
}

// beginRound deals a hand and waits for the Victim to spin.
func (s *Session) beginRound(out *outbox) {
	s.hand = s.deck.Deal(HandSize)
	s.resetRound()
	s.victimID = s.players[s.victimIndex].ID
	s.roundPlayers = append([]*Player(nil), s.players...)
	log.Debug().Str("room", s.ID).Int("round", s.roundIndex).Int("deck", s.deck.Remaining()).Int("discards", s.deck.DiscardCount()).Msg("hand dealt")
	s.setPhase(PhaseAwaitingSpin)
	out.room(EventRoundStarted, RoomPayload{Room: s.snapshot()})
	out.to(s.victimID, EventYouAreVictim, VictimPayload{
		Hand:         append([]string(nil), s.hand...),
		RequiresSpin: true,
	})
}

func (s *Session) resetRound() {
	s.victimGone = false
	s.modifier = ModifierNone
	s.ranking = nil
	s.guesses = make(map[string]Ranking)
	s.revealed = nil
	s.outcomes = nil
	s.summary = nil
}

// checkPlacingComplete moves to the reveal once the ranking is in and every
// guesser still in the room has placed chips.
func (s *Session) checkPlacingComplete(out *outbox) {
	if s.phase != PhasePlacing || s.ranking == nil {
		return
	}
	for _, p := range s.players {
		if p.ID == s.victimID {
			continue
		}
		if _, ok := s.guesses[p.ID]; !ok {
			return
		}
	}
	s.startCardReveal(out)
}

func (s *Session) startCardReveal(out *outbox) {
	s.setPhase(PhaseCardReveal)
	s.revealed = []int{}
	s.outcomes = make([]CardOutcome, len(s.hand))
	for i := range s.hand {
		row := CardOutcome{Index: i, Text: s.hand[i], VictimRank: s.ranking[i], Results: []ChipResult{}}
		for _, p := range s.roundPlayers {
			g, ok := s.guesses[p.ID]
			if p.ID == s.victimID || !ok {
				continue
			}
			row.Results = append(row.Results, ChipResult{
				PlayerID: p.ID,
				Name:     p.Name,
				Avatar:   p.Avatar,
				Chip:     g[i],
				Match:    g[i] == s.ranking[i],
			})
		}
		s.outcomes[i] = row
	}
	out.room(EventCardRevealStarted, RoomPayload{Room: s.snapshot()})
	if s.victimGone {
		s.revealRemaining(out)
		return
	}
	out.to(s.victimID, EventYouCanReveal, RoomPayload{Room: s.snapshot()})
}

// reveal discloses one card. Revealing a card twice is a no-op.
func (s *Session) reveal(i int, out *outbox) {
	for _, r := range s.revealed {
		if r == i {
			return
		}
	}
	s.revealed = append(s.revealed, i)
	all := len(s.revealed) == len(s.hand)
	out.room(EventCardRevealed, CardRevealedPayload{
		Index:         i,
		Card:          s.outcomes[i],
		CardsRevealed: append([]int(nil), s.revealed...),
		AllRevealed:   all,
	})
	if all {
		s.score(out)
	}
}

func (s *Session) revealRemaining(out *outbox) {
	for i := range s.hand {
		if s.phase != PhaseCardReveal {
			return
		}
		s.reveal(i, out)
	}
}

// score commits the round and schedules the next one after the settle delay.
func (s *Session) score(out *outbox) {
	s.setPhase(PhaseScoring)
	if s.ranking == nil {
		panic(fmt.Sprintf("game: room %s reached scoring without a victim ranking", s.ID))
	}
	deltas := Score(s.victimID, *s.ranking, s.guesses, s.modifier)

	summary := &RoundSummary{
		Round:    s.roundIndex,
		VictimID: s.victimID,
		Modifier: s.modifier,
		Cards:    append([]CardOutcome(nil), s.outcomes...),
		Scores:   make([]RoundScore, 0, len(s.players)),
	}
	for _, p := range s.players {
		gained := deltas[p.ID]
		p.Score += gained
		summary.Scores = append(summary.Scores, RoundScore{
			PlayerID: p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Gained:   gained,
			Total:    p.Score,
		})
	}
	s.deck.Discard(s.hand)
	s.summary = summary
	s.setPhase(PhaseRoundEnd)

	out.room(EventRoundScored, *summary)
	out.room(EventRoomUpdate, RoomPayload{Room: s.snapshot()})
	s.settle = s.clock.AfterFunc(s.settleDelay, s.onSettle, "settle")
}

func (s *Session) nextRound(out *outbox) {
	s.roundIndex++
	if !s.victimGone {
		s.victimIndex = (s.victimIndex + 1) % len(s.players)
	}
	if s.roundIndex > s.roundsTarget {
		s.finish(out)
		return
	}
	s.beginRound(out)
}

func (s *Session) finish(out *outbox) {
	s.resetRound()
	s.hand = nil
	s.setPhase(PhaseFinished)
	standings := s.standings()
	payload := FinishedPayload{Players: standings}
	if len(standings) > 0 {
		payload.Winner = &standings[0]
	}
	out.room(EventSessionFinished, payload)
	out.room(EventRoomUpdate, RoomPayload{Room: s.snapshot()})
}

// victimLeft keeps the round alive after the Victim disconnects. Without a
// ranking the round restarts for the next player; with one it completes on
// the data already captured.
func (s *Session) victimLeft(out *outbox) {
	switch s.phase {
	case PhaseAwaitingSpin, PhaseRanking:
		s.resetRound()
		s.victimID = s.players[s.victimIndex].ID
		s.roundPlayers = append([]*Player(nil), s.players...)
		s.setPhase(PhaseAwaitingSpin)
		out.room(EventRoundStarted, RoomPayload{Room: s.snapshot()})
		out.to(s.victimID, EventYouAreVictim, VictimPayload{
			Hand:         append([]string(nil), s.hand...),
			RequiresSpin: true,
		})
	case PhasePlacing:
		s.checkPlacingComplete(out)
	case PhaseCardReveal:
		s.revealRemaining(out)
	}
}

func (s *Session) setPhase(p Phase) {
	from := s.phase
	s.phase = p
	s.logPhase(from)
}
