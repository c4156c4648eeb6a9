package game

import (
	"slices"
	"testing"
)

func startedRoom(t *testing.T, n int) (*testRig, string, *Session, []Player) {
	t.Helper()
	r := newRig(t)
	code, s, players := r.room(t, n)
	if _, err := r.rm.StartSession(code, players[0].ID); err != nil {
		t.Fatalf("host should be able to start: %v", err)
	}
	return r, code, s, players
}

func TestSpinGuards(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)

	if _, err := r.rm.Spin(code, players[1].ID); err != ErrNotVictim {
		t.Fatalf("expected ErrNotVictim, got %v", err)
	}
	if _, err := r.rm.SubmitRanking(code, players[0].ID, identity()); err != ErrWrongPhase {
		t.Fatalf("ranking before the spin should be ErrWrongPhase, got %v", err)
	}
	notes, err := r.rm.Spin(code, players[0].ID)
	if err != nil {
		t.Fatalf("victim should be able to spin: %v", err)
	}
	n, ok := findEvent(notes, EventSpinResult)
	if !ok || !n.Broadcast() {
		t.Fatal("spin result should be broadcast")
	}
	mod := n.Payload.(SpinPayload).Modifier
	if !slices.Contains(Modifiers, mod) {
		t.Fatalf("unexpected modifier %q", mod)
	}
	v, ok := findEvent(notes, EventYouAreVictim)
	if !ok || v.PlayerID != players[0].ID || !v.Payload.(VictimPayload).RequiresRanking {
		t.Fatalf("victim should be asked to rank privately, got %+v", v)
	}
	if s.Phase() != PhaseRanking {
		t.Fatalf("expected %s, got %s", PhaseRanking, s.Phase())
	}
	if _, err := r.rm.Spin(code, players[0].ID); err != ErrWrongPhase {
		t.Fatalf("second spin should be ErrWrongPhase, got %v", err)
	}
}

func TestRankingValidation(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	r.rm.Spin(code, victim)

	if _, err := r.rm.SubmitRanking(code, players[1].ID, identity()); err != ErrNotVictim {
		t.Fatalf("expected ErrNotVictim, got %v", err)
	}
	for _, bad := range [][]int{{1, 1, 2, 3, 4}, {1, 2, 3, 4}, {1, 2, 3, 4, 6}} {
		if _, err := r.rm.SubmitRanking(code, victim, bad); err != ErrInvalidPermutation {
			t.Fatalf("ranking %v: expected ErrInvalidPermutation, got %v", bad, err)
		}
	}
	if s.Phase() != PhaseRanking {
		t.Fatal("rejected rankings should leave the phase unchanged")
	}
	if _, err := r.rm.SubmitRanking(code, victim, []int{3, 1, 4, 2, 5}); err != nil {
		t.Fatalf("should accept a valid ranking: %v", err)
	}
	if s.Phase() != PhasePlacing {
		t.Fatalf("expected %s, got %s", PhasePlacing, s.Phase())
	}
	if _, err := r.rm.SubmitRanking(code, victim, identity()); err != ErrWrongPhase {
		t.Fatalf("re-ranking should be ErrWrongPhase, got %v", err)
	}
}

func TestGuessValidation(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID

	if _, err := r.rm.SubmitGuess(code, players[1].ID, identity()); err != ErrWrongPhase {
		t.Fatalf("guessing before the spin should be ErrWrongPhase, got %v", err)
	}
	r.rm.Spin(code, victim)

	if _, err := r.rm.SubmitGuess(code, victim, identity()); err != ErrIsVictim {
		t.Fatalf("expected ErrIsVictim, got %v", err)
	}
	if _, err := r.rm.SubmitGuess(code, players[1].ID, []int{1, 2, 3, 4, 6}); err != ErrInvalidPermutation {
		t.Fatalf("expected ErrInvalidPermutation, got %v", err)
	}
	// guessers may place chips while the victim is still ranking
	if _, err := r.rm.SubmitGuess(code, players[1].ID, identity()); err != nil {
		t.Fatalf("early guess should be accepted: %v", err)
	}
	if s.Phase() != PhaseRanking {
		t.Fatalf("expected %s, got %s", PhaseRanking, s.Phase())
	}
	snap := s.Snapshot()
	if !snap.Players[1].Status.HasSubmitted || snap.Players[2].Status.HasSubmitted {
		t.Fatalf("unexpected submission status %+v", snap.Players)
	}
	if snap.Players[0].Status.Role != RoleVictim || snap.Players[1].Status.Role != RoleGuesser {
		t.Fatalf("unexpected roles %+v", snap.Players)
	}
}

func TestPlacingCompletesAutomatically(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	victim := players[0].ID
	r.rm.Spin(code, victim)
	r.rm.SubmitRanking(code, victim, identity())

	r.rm.SubmitGuess(code, players[1].ID, []int{5, 4, 3, 2, 1})
	// overwrite while still placing
	if _, err := r.rm.SubmitGuess(code, players[1].ID, identity()); err != nil {
		t.Fatalf("resubmitting should overwrite: %v", err)
	}
	r.rm.SubmitGuess(code, players[2].ID, identity())
	if s.Phase() != PhasePlacing {
		t.Fatalf("should wait for every guesser, got %s", s.Phase())
	}
	notes, err := r.rm.SubmitGuess(code, players[3].ID, identity())
	if err != nil {
		t.Fatalf("last guess should be accepted: %v", err)
	}
	if s.Phase() != PhaseCardReveal {
		t.Fatalf("expected %s, got %s", PhaseCardReveal, s.Phase())
	}
	if !hasEvent(notes, EventCardRevealStarted) {
		t.Fatal("reveal start should be broadcast")
	}
	n, ok := findEvent(notes, EventYouCanReveal)
	if !ok || n.PlayerID != victim {
		t.Fatal("victim should be told to reveal")
	}
	if _, err := r.rm.SubmitGuess(code, players[1].ID, identity()); err != ErrWrongPhase {
		t.Fatalf("guessing during reveal should be ErrWrongPhase, got %v", err)
	}
}

func TestGuessesBeforeRankingCompleteOnRanking(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	r.rm.Spin(code, victim)
	r.rm.SubmitGuess(code, players[1].ID, identity())
	r.rm.SubmitGuess(code, players[2].ID, identity())

	notes, err := r.rm.SubmitRanking(code, victim, identity())
	if err != nil {
		t.Fatalf("should accept ranking: %v", err)
	}
	if s.Phase() != PhaseCardReveal || !hasEvent(notes, EventCardRevealStarted) {
		t.Fatalf("ranking after all guesses should open the reveal, got %s", s.Phase())
	}
}

func TestSnapshotHidesSecrets(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	r.rm.Spin(code, victim)
	r.rm.SubmitRanking(code, victim, identity())
	r.rm.SubmitGuess(code, players[1].ID, identity())
	r.rm.SubmitGuess(code, players[2].ID, identity())

	snap := s.Snapshot()
	if len(snap.Revealed) != 0 || len(snap.CardsRevealed) != 0 {
		t.Fatalf("nothing should be revealed yet, got %+v", snap.Revealed)
	}
	r.rm.RevealCard(code, victim, 2)
	snap = s.Snapshot()
	if len(snap.Revealed) != 1 || snap.Revealed[0].Index != 2 {
		t.Fatalf("only card 2 should be visible, got %+v", snap.Revealed)
	}
	if snap.Revealed[0].VictimRank != 3 || len(snap.Revealed[0].Results) != 2 {
		t.Fatalf("unexpected reveal row %+v", snap.Revealed[0])
	}
}

func TestRevealCard(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	playToReveal(t, r, code, s, func(string) []int { return []int{1, 2, 3, 5, 4} })

	if _, err := r.rm.RevealCard(code, players[1].ID, 0); err != ErrNotVictim {
		t.Fatalf("expected ErrNotVictim, got %v", err)
	}
	for _, bad := range []int{-1, HandSize} {
		if _, err := r.rm.RevealCard(code, victim, bad); err != ErrIndexOutOfRange {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", bad, err)
		}
	}

	notes, err := r.rm.RevealCard(code, victim, 3)
	if err != nil {
		t.Fatalf("should reveal: %v", err)
	}
	n, ok := findEvent(notes, EventCardRevealed)
	if !ok {
		t.Fatal("reveal should be broadcast")
	}
	p := n.Payload.(CardRevealedPayload)
	if p.Index != 3 || p.AllRevealed || p.Card.VictimRank != 4 {
		t.Fatalf("unexpected reveal payload %+v", p)
	}
	for _, res := range p.Card.Results {
		if res.Chip != 5 || res.Match {
			t.Fatalf("unexpected chip result %+v", res)
		}
	}

	// idempotent
	again, err := r.rm.RevealCard(code, victim, 3)
	if err != nil {
		t.Fatalf("re-revealing should not be an error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("re-revealing should produce nothing, got %+v", again)
	}
	if got := s.Snapshot().CardsRevealed; len(got) != 1 {
		t.Fatalf("expected one revealed card, got %v", got)
	}
}

func TestRoundScoring(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	guesses := map[string][]int{
		players[1].ID: {1, 2, 3, 4, 5},
		players[2].ID: {2, 1, 3, 4, 5},
	}
	playToReveal(t, r, code, s, func(id string) []int { return guesses[id] })
	mod := s.Snapshot().Modifier

	notes := revealAll(t, r, code, s)
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("expected %s, got %s", PhaseRoundEnd, s.Phase())
	}
	n, ok := findEvent(notes, EventRoundScored)
	if !ok {
		t.Fatal("round summary should be broadcast")
	}
	summary := n.Payload.(RoundSummary)
	if summary.Modifier != mod || summary.Round != 1 || len(summary.Cards) != HandSize {
		t.Fatalf("unexpected summary %+v", summary)
	}

	best := GuessScore(Ranking{1, 2, 3, 4, 5}, Ranking{1, 2, 3, 4, 5}, mod)
	other := GuessScore(Ranking{1, 2, 3, 4, 5}, Ranking{2, 1, 3, 4, 5}, mod)
	want := map[string]int{victim: best, players[1].ID: best, players[2].ID: other}
	for _, sc := range summary.Scores {
		if sc.Gained != want[sc.PlayerID] || sc.Total != want[sc.PlayerID] {
			t.Fatalf("player %s: expected %d, got %+v", sc.Name, want[sc.PlayerID], sc)
		}
	}
	for _, p := range s.Players() {
		if p.Score != want[p.ID] {
			t.Fatalf("player %s: expected total %d, got %d", p.Name, want[p.ID], p.Score)
		}
	}
	if s.Snapshot().RoundEnd == nil {
		t.Fatal("round summary should stay visible during round end")
	}
	if s.deck.DiscardCount() != HandSize {
		t.Fatalf("hand should move to the discard pile, got %d", s.deck.DiscardCount())
	}
	if _, err := r.rm.RevealCard(code, victim, 0); err != ErrWrongPhase {
		t.Fatalf("actions during round end should be ErrWrongPhase, got %v", err)
	}
}

func TestSettleStartsNextRound(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	playToReveal(t, r, code, s, func(string) []int { return identity() })
	revealAll(t, r, code, s)

	if s.Snapshot().RoundIndex != 1 {
		t.Fatal("round index should advance only after the settle delay")
	}
	r.settle(t)

	snap := s.Snapshot()
	if snap.Phase != PhaseAwaitingSpin || snap.RoundIndex != 2 {
		t.Fatalf("expected round 2 awaiting spin, got %s round %d", snap.Phase, snap.RoundIndex)
	}
	if snap.VictimID != players[1].ID || snap.VictimIndex != 1 {
		t.Fatalf("victim should rotate to the next player, got %s", snap.VictimID)
	}
	if snap.RoundEnd != nil || snap.Modifier != ModifierNone {
		t.Fatal("round state should be reset")
	}
	events := r.rec.events()
	if !slices.Contains(events, EventRoundStarted) || !slices.Contains(events, EventYouAreVictim) {
		t.Fatalf("timer notifications should be dispatched, got %v", events)
	}
}

func playSession(t *testing.T, n int) (*testRig, *Session, []Player, map[string]int) {
	t.Helper()
	r, code, s, players := startedRoom(t, n)
	target := s.Snapshot().RoundsTarget
	victims := map[string]int{}

	// each guesser i swaps a different pair so scores differ
	guessFor := func(id string) []int {
		g := identity()
		for i, p := range players {
			if p.ID == id {
				a, b := i%HandSize, (i+1)%HandSize
				g[a], g[b] = g[b], g[a]
			}
		}
		return g
	}

	for round := 1; round <= target; round++ {
		snap := s.Snapshot()
		if snap.RoundIndex != round {
			t.Fatalf("expected round %d, got %d", round, snap.RoundIndex)
		}
		if snap.VictimIndex != (round-1)%n {
			t.Fatalf("round %d: expected victim index %d, got %d", round, (round-1)%n, snap.VictimIndex)
		}
		victims[snap.VictimID]++
		playToReveal(t, r, code, s, guessFor)
		revealAll(t, r, code, s)
		r.settle(t)
	}
	return r, s, players, victims
}

func TestFullSessionFourPlayers(t *testing.T) {
	r, s, players, victims := playSession(t, 4)

	snap := s.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("expected %s, got %s", PhaseFinished, snap.Phase)
	}
	if snap.RoundIndex != 13 || snap.RoundsTarget != 12 {
		t.Fatalf("expected round index past 12, got %d/%d", snap.RoundIndex, snap.RoundsTarget)
	}
	for _, p := range players {
		if victims[p.ID] != 3 {
			t.Fatalf("player %s was victim %d times, want 3", p.Name, victims[p.ID])
		}
	}

	standings := s.Standings()
	order := make(map[string]int, len(players))
	for i, p := range players {
		order[p.ID] = i
	}
	for i := 1; i < len(standings); i++ {
		prev, cur := standings[i-1], standings[i]
		if prev.Score < cur.Score {
			t.Fatalf("standings not sorted by score: %+v", standings)
		}
		if prev.Score == cur.Score && order[prev.ID] > order[cur.ID] {
			t.Fatalf("ties should keep join order: %+v", standings)
		}
	}

	events := r.rec.events()
	if !slices.Contains(events, EventSessionFinished) {
		t.Fatalf("final standings should be broadcast, got %v", events)
	}
	if _, err := r.rm.Spin(s.ID, players[0].ID); err != ErrWrongPhase {
		t.Fatalf("actions after the end should be ErrWrongPhase, got %v", err)
	}
}

func TestFullSessionFivePlayers(t *testing.T) {
	_, s, players, victims := playSession(t, 5)
	if s.Phase() != PhaseFinished {
		t.Fatalf("expected %s, got %s", PhaseFinished, s.Phase())
	}
	for _, p := range players {
		if victims[p.ID] != 2 {
			t.Fatalf("player %s was victim %d times, want 2", p.Name, victims[p.ID])
		}
	}
}

func TestScoresNeverDecrease(t *testing.T) {
	r, code, s, _ := startedRoom(t, 3)
	prev := map[string]int{}
	for round := 0; round < 4; round++ {
		playToReveal(t, r, code, s, func(string) []int { return []int{2, 1, 3, 5, 4} })
		revealAll(t, r, code, s)
		for _, p := range s.Players() {
			if p.Score < prev[p.ID] {
				t.Fatalf("score for %s dropped from %d to %d", p.Name, prev[p.ID], p.Score)
			}
			prev[p.ID] = p.Score
		}
		r.settle(t)
	}
}

func TestGuesserLeavesDuringPlacing(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	victim := players[0].ID
	r.rm.Spin(code, victim)
	r.rm.SubmitRanking(code, victim, identity())
	r.rm.SubmitGuess(code, players[1].ID, identity())
	r.rm.SubmitGuess(code, players[2].ID, identity())

	notes, err := r.rm.Leave(code, players[3].ID)
	if err != nil {
		t.Fatalf("should leave: %v", err)
	}
	if s.Phase() != PhaseCardReveal || !hasEvent(notes, EventCardRevealStarted) {
		t.Fatalf("the last missing guesser leaving should open the reveal, got %s", s.Phase())
	}
}

func TestVictimLeavesBeforeRanking(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	hand := s.Snapshot().Hand
	r.rm.Spin(code, players[0].ID)
	r.rm.SubmitGuess(code, players[1].ID, identity())

	notes, err := r.rm.Leave(code, players[0].ID)
	if err != nil {
		t.Fatalf("should leave: %v", err)
	}
	snap := s.Snapshot()
	if snap.Phase != PhaseAwaitingSpin || snap.RoundIndex != 1 {
		t.Fatalf("round should restart for the next victim, got %s round %d", snap.Phase, snap.RoundIndex)
	}
	if snap.VictimID != players[1].ID {
		t.Fatalf("next player should become victim, got %s", snap.VictimID)
	}
	if !slices.Equal(snap.Hand, hand) {
		t.Fatal("the hand should be kept")
	}
	if snap.HostID != players[1].ID {
		t.Fatal("host should pass on")
	}
	v, ok := findEvent(notes, EventYouAreVictim)
	if !ok || v.PlayerID != players[1].ID {
		t.Fatal("new victim should be told to spin")
	}
	for _, p := range snap.Players {
		if p.Status.HasSubmitted {
			t.Fatalf("guesses for the old victim should be cleared: %+v", p)
		}
	}

	// the round plays on and rotation continues from the new victim
	playToReveal(t, r, code, s, func(string) []int { return identity() })
	revealAll(t, r, code, s)
	r.settle(t)
	if got := s.Snapshot().VictimID; got != players[2].ID {
		t.Fatalf("expected victim %s next, got %s", players[2].Name, got)
	}
}

func TestVictimLeavesDuringPlacing(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	victim := players[0].ID
	r.rm.Spin(code, victim)
	r.rm.SubmitRanking(code, victim, identity())
	r.rm.SubmitGuess(code, players[1].ID, identity())

	if _, err := r.rm.Leave(code, victim); err != nil {
		t.Fatalf("should leave: %v", err)
	}
	if s.Phase() != PhasePlacing {
		t.Fatalf("round should keep waiting for guesses, got %s", s.Phase())
	}
	r.rm.SubmitGuess(code, players[2].ID, identity())
	notes, err := r.rm.SubmitGuess(code, players[3].ID, []int{2, 1, 3, 4, 5})
	if err != nil {
		t.Fatalf("guess should be accepted: %v", err)
	}
	if s.Phase() != PhaseRoundEnd {
		t.Fatalf("cards should reveal automatically without a victim, got %s", s.Phase())
	}
	revealed := 0
	for _, n := range notes {
		if n.Event == EventCardRevealed {
			revealed++
		}
	}
	if revealed != HandSize || !hasEvent(notes, EventRoundScored) {
		t.Fatalf("expected %d reveals and a summary, got %d", HandSize, revealed)
	}

	r.settle(t)
	// players[1] now sits where the victim was, so rotation does not skip them
	if got := s.Snapshot().VictimID; got != players[1].ID {
		t.Fatalf("expected %s as next victim, got %s", players[1].Name, got)
	}
}

func TestVictimLeavesDuringReveal(t *testing.T) {
	r, code, s, players := startedRoom(t, 3)
	victim := players[0].ID
	playToReveal(t, r, code, s, func(string) []int { return identity() })
	r.rm.RevealCard(code, victim, 0)

	notes, err := r.rm.Leave(code, victim)
	if err != nil {
		t.Fatalf("should leave: %v", err)
	}
	if s.Phase() != PhaseRoundEnd || !hasEvent(notes, EventRoundScored) {
		t.Fatalf("round should finish on captured data, got %s", s.Phase())
	}
	for _, p := range s.Players() {
		if p.Score == 0 {
			t.Fatalf("perfect guess should have scored for %s", p.Name)
		}
	}
}

func TestLeaveBeforeVictimKeepsVictim(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	// move to round 2 so players[1] is victim
	playToReveal(t, r, code, s, func(string) []int { return identity() })
	revealAll(t, r, code, s)
	r.settle(t)
	if s.VictimID() != players[1].ID {
		t.Fatal("expected players[1] as victim")
	}

	r.rm.Leave(code, players[0].ID)
	snap := s.Snapshot()
	if snap.VictimID != players[1].ID || snap.VictimIndex != 0 {
		t.Fatalf("victim should not change when an earlier player leaves, got %s at %d", snap.VictimID, snap.VictimIndex)
	}
	if snap.Phase != PhaseAwaitingSpin {
		t.Fatalf("round should be untouched, got %s", snap.Phase)
	}
}

func snapshotSeq(n Notification) (uint64, bool) {
	switch p := n.Payload.(type) {
	case RoomPayload:
		return p.Room.Seq, true
	case SpinPayload:
		return p.Room.Seq, true
	}
	return 0, false
}

func TestSnapshotSeqOrdersTimerAndRequestUpdates(t *testing.T) {
	r, code, s, players := startedRoom(t, 4)
	playToReveal(t, r, code, s, func(string) []int { return identity() })
	notes := revealAll(t, r, code, s)

	var last uint64
	for _, n := range notes {
		if seq, ok := snapshotSeq(n); ok {
			if seq <= last {
				t.Fatalf("snapshots within one action should grow, %d after %d", seq, last)
			}
			last = seq
		}
	}

	r.settle(t)
	started, ok := findEvent(r.rec.all(), EventRoundStarted)
	if !ok {
		t.Fatal("settle should dispatch roundStarted")
	}
	timerSeq, _ := snapshotSeq(started)
	if timerSeq <= last {
		t.Fatalf("timer snapshot should be newer than the scoring one, %d <= %d", timerSeq, last)
	}

	// a departure right after the timer must carry a newer snapshot so
	// clients can drop the timer update if it arrives late
	left, err := r.rm.Leave(code, players[3].ID)
	if err != nil {
		t.Fatalf("guesser should be able to leave: %v", err)
	}
	update, ok := findEvent(left, EventRoomUpdate)
	if !ok {
		t.Fatal("leave should broadcast roomUpdate")
	}
	leaveSeq, _ := snapshotSeq(update)
	if leaveSeq <= timerSeq {
		t.Fatalf("leave snapshot %d should be newer than timer snapshot %d", leaveSeq, timerSeq)
	}
	if len(update.Payload.(RoomPayload).Room.Players) != 3 {
		t.Fatal("newest snapshot should not list the departed player")
	}
}
