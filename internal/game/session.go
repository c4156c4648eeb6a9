package game

import (
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var avatars = []string{"🦊", "🐸", "🐵", "🐼", "🐯", "🦁", "🐨", "🦄", "🐶", "🐱"}

// RoundsFor returns the session length for a roster size: five players play
// ten rounds, everyone else twelve.
func RoundsFor(players int) int {
	if players == 5 {
		return 10
	}
	return 12
}

// Session is one room. All fields below mu are owned by it; every exported
// method takes the lock, so actions for the same room are applied one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	clock       quartz.Clock
	settleDelay time.Duration
	dispatcher  Dispatcher

	mu      sync.Mutex
	closed  bool
	rng     *rand.Rand
	deck    *Deck
	players []*Player
	hostID  string
	settle  *quartz.Timer
	seq     uint64

	phase        Phase
	roundIndex   int
	roundsTarget int
	victimIndex  int

	// per round state
	victimID     string
	victimGone   bool
	modifier     Modifier
	hand         []string
	ranking      *Ranking
	guesses      map[string]Ranking
	revealed     []int
	roundPlayers []*Player
	outcomes     []CardOutcome
	summary      *RoundSummary
}

type sessionDeps struct {
	clock       quartz.Clock
	settleDelay time.Duration
	dispatcher  Dispatcher
	rng         *rand.Rand
	cards       []string
}

func newSession(id string, deps sessionDeps) *Session {
	return &Session{
		ID:          id,
		CreatedAt:   deps.clock.Now().UTC(),
		clock:       deps.clock,
		settleDelay: deps.settleDelay,
		dispatcher:  deps.dispatcher,
		rng:         deps.rng,
		deck:        NewDeck(deps.cards, deps.rng),
		phase:       PhaseLobby,
		guesses:     make(map[string]Ranking),
	}
}

// Join adds a player to the lobby. The first player becomes host.
func (s *Session) Join(name string) (Player, Snapshot, []Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Player{}, Snapshot{}, nil, ErrRoomNotFound
	}
	if s.phase != PhaseLobby {
		return Player{}, Snapshot{}, nil, ErrGameAlreadyStarted
	}
	if len(s.players) >= MaxPlayers {
		return Player{}, Snapshot{}, nil, ErrRoomFull
	}
	if name == "" {
		name = "Player"
	}
	p := &Player{
		ID:       uuid.NewString(),
		Name:     name,
		Avatar:   avatars[s.rng.IntN(len(avatars))],
		JoinedAt: s.clock.Now().UTC(),
	}
	s.players = append(s.players, p)
	if s.hostID == "" {
		s.hostID = p.ID
	}
	out := &outbox{roomID: s.ID}
	snap := s.snapshot()
	out.room(EventRoomUpdate, RoomPayload{Room: snap})
	return *p, snap, out.notes, nil
}

// Leave removes a player. It reports whether the room is now empty, in which
// case the session is closed and its timer cancelled.
func (s *Session) Leave(playerID string) ([]Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrRoomNotFound
	}
	idx := s.indexOf(playerID)
	if idx < 0 {
		return nil, false, ErrPlayerNotFound
	}
	s.players = slices.Delete(s.players, idx, idx+1)
	if len(s.players) == 0 {
		s.closeLocked()
		return nil, true, nil
	}
	if s.hostID == playerID {
		s.hostID = s.players[0].ID
	}
	if idx < s.victimIndex {
		s.victimIndex--
	}
	if s.victimIndex >= len(s.players) {
		s.victimIndex = 0
	}

	out := &outbox{roomID: s.ID}
	switch {
	case s.inRound() && playerID == s.victimID:
		s.victimGone = true
		s.victimLeft(out)
	case s.phase == PhaseRoundEnd && playerID == s.victimID:
		s.victimGone = true
	case s.phase == PhaseRanking || s.phase == PhasePlacing:
		s.checkPlacingComplete(out)
	}
	out.room(EventRoomUpdate, RoomPayload{Room: s.snapshot()})
	return out.notes, false, nil
}

// Close marks the session as destroyed and stops a pending round-end timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	s.closed = true
	if s.settle != nil {
		s.settle.Stop()
		s.settle = nil
	}
}

// Apply validates and applies a player action, returning the notifications it
// produced. On error the session is left unchanged.
func (s *Session) Apply(a Action) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrRoomNotFound
	}
	if s.indexOf(a.PlayerID) < 0 {
		return nil, ErrPlayerNotFound
	}
	handle, ok := transitions[s.phase]
	if !ok {
		return nil, ErrWrongPhase
	}
	out := &outbox{roomID: s.ID}
	if err := handle(s, a, out); err != nil {
		return nil, err
	}
	return out.notes, nil
}

func (s *Session) Start(playerID string) ([]Notification, error) {
	return s.Apply(Action{Kind: ActionStart, PlayerID: playerID})
}

func (s *Session) Spin(playerID string) ([]Notification, error) {
	return s.Apply(Action{Kind: ActionSpin, PlayerID: playerID})
}

func (s *Session) SubmitRanking(playerID string, order []int) ([]Notification, error) {
	return s.Apply(Action{Kind: ActionRank, PlayerID: playerID, Order: order})
}

func (s *Session) SubmitGuess(playerID string, order []int) ([]Notification, error) {
	return s.Apply(Action{Kind: ActionGuess, PlayerID: playerID, Order: order})
}

func (s *Session) RevealCard(playerID string, index int) ([]Notification, error) {
	return s.Apply(Action{Kind: ActionReveal, PlayerID: playerID, Index: index})
}

// onSettle fires after the round-end pause and starts the next round or
// finishes the session.
func (s *Session) onSettle() {
	s.mu.Lock()
	if s.closed || s.phase != PhaseRoundEnd {
		s.mu.Unlock()
		return
	}
	s.settle = nil
	out := &outbox{roomID: s.ID}
	s.nextRound(out)
	s.mu.Unlock()

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(out.notes)
	}
}

func (s *Session) inRound() bool {
	switch s.phase {
	case PhaseAwaitingSpin, PhaseRanking, PhasePlacing, PhaseCardReveal:
		return true
	}
	return false
}

func (s *Session) indexOf(playerID string) int {
	return slices.IndexFunc(s.players, func(p *Player) bool { return p.ID == playerID })
}

func (s *Session) snapshot() Snapshot {
	s.seq++
	snap := Snapshot{
		ID:            s.ID,
		Seq:           s.seq,
		Phase:         s.phase,
		Modifier:      s.modifier,
		RoundIndex:    s.roundIndex,
		RoundsTarget:  s.roundsTarget,
		VictimIndex:   s.victimIndex,
		HostID:        s.hostID,
		Players:       make([]PlayerView, 0, len(s.players)),
		Hand:          append([]string{}, s.hand...),
		CardsRevealed: append([]int{}, s.revealed...),
		RoundEnd:      s.summary,
	}
	active := s.phase != PhaseLobby && s.phase != PhaseFinished
	if active {
		snap.VictimID = s.victimID
	}
	for _, p := range s.players {
		v := PlayerView{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Score: p.Score, IsHost: p.ID == s.hostID}
		if active {
			if p.ID == s.victimID {
				v.Status = PlayerStatus{Role: RoleVictim, HasSubmitted: s.ranking != nil}
			} else {
				_, ok := s.guesses[p.ID]
				v.Status = PlayerStatus{Role: RoleGuesser, HasSubmitted: ok}
			}
		}
		snap.Players = append(snap.Players, v)
	}
	for _, i := range s.revealed {
		snap.Revealed = append(snap.Revealed, s.outcomes[i])
	}
	return snap
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) Info() RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RoomInfo{ID: s.ID, Phase: s.phase, Players: len(s.players), RoundIndex: s.roundIndex, CreatedAt: s.CreatedAt}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) VictimID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.victimID
}

func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	return out
}

// Standings orders the roster by score, keeping join order for ties.
func (s *Session) Standings() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standings()
}

func (s *Session) standings() []Standing {
	out := make([]Standing, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, Standing{ID: p.ID, Name: p.Name, Avatar: p.Avatar, Score: p.Score})
	}
	slices.SortStableFunc(out, func(a, b Standing) int { return b.Score - a.Score })
	return out
}

func (s *Session) logPhase(from Phase) {
	log.Debug().Str("room", s.ID).Str("from", string(from)).Str("to", string(s.phase)).Int("round", s.roundIndex).Msg("phase transition")
}
