package game

import (
	"fmt"
	rand "math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/kiliankoe/worstcase/internal/randutil"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSettleDelay = 5 * time.Second
	roomCodeLength     = 6
)

type Options struct {
	Clock       quartz.Clock
	SettleDelay time.Duration
	Cards       []string
	Seed        int64
	Dispatcher  Dispatcher
}

// RoomManager is the registry of live rooms. Rooms never share state; the
// map itself is the only thing guarded here.
type RoomManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	codes    *rand.Rand

	clock       quartz.Clock
	settleDelay time.Duration
	cards       []string
	rngs        *randutil.Source

	dmu        sync.RWMutex
	dispatcher Dispatcher
}

func NewRoomManager(opts Options) *RoomManager {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	cards := NormalizeCards(opts.Cards)
	if len(cards) < HandSize {
		cards = NormalizeCards(DefaultCards)
	}
	rngs := randutil.NewSource(opts.Seed)
	log.Debug().Int64("seed", rngs.Seed()).Int("cards", len(cards)).Msg("room manager ready")
	return &RoomManager{
		sessions:    make(map[string]*Session),
		codes:       rngs.Next(),
		clock:       opts.Clock,
		settleDelay: opts.SettleDelay,
		cards:       cards,
		rngs:        rngs,
		dispatcher:  opts.Dispatcher,
	}
}

// SetDispatcher installs the gateway that delivers timer-driven notifications.
func (rm *RoomManager) SetDispatcher(d Dispatcher) {
	rm.dmu.Lock()
	defer rm.dmu.Unlock()
	rm.dispatcher = d
}

func (rm *RoomManager) dispatch(notes []Notification) {
	rm.dmu.RLock()
	d := rm.dispatcher
	rm.dmu.RUnlock()
	if d != nil && len(notes) > 0 {
		d.Dispatch(notes)
	}
}

// CreateRoom opens a lobby with the creator as its first player and host.
func (rm *RoomManager) CreateRoom(name string) (*Session, Player, []Notification) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := randomCode(rm.codes, roomCodeLength)
	for rm.sessions[code] != nil {
		code = randomCode(rm.codes, roomCodeLength)
	}
	s := newSession(code, sessionDeps{
		clock:       rm.clock,
		settleDelay: rm.settleDelay,
		dispatcher:  DispatcherFunc(rm.dispatch),
		rng:         rm.rngs.Next(),
		cards:       rm.cards,
	})
	// a fresh lobby under the registry lock can only reject a join if the
	// session was built wrong
	p, _, notes, err := s.Join(name)
	if err != nil {
		panic(fmt.Sprintf("game: creator could not join new room %s: %v", code, err))
	}
	rm.sessions[code] = s
	log.Info().Str("room", code).Str("host", p.ID).Msg("room created")
	return s, p, notes
}

func (rm *RoomManager) Get(code string) (*Session, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	s := rm.sessions[code]
	if s == nil {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

func (rm *RoomManager) JoinRoom(code, name string) (Player, Snapshot, []Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return Player{}, Snapshot{}, nil, err
	}
	return s.Join(name)
}

func (rm *RoomManager) StartSession(code, playerID string) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	return s.Start(playerID)
}

func (rm *RoomManager) Spin(code, playerID string) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	return s.Spin(playerID)
}

func (rm *RoomManager) SubmitRanking(code, playerID string, order []int) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	return s.SubmitRanking(playerID, order)
}

func (rm *RoomManager) SubmitGuess(code, playerID string, order []int) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	return s.SubmitGuess(playerID, order)
}

func (rm *RoomManager) RevealCard(code, playerID string, index int) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	return s.RevealCard(playerID, index)
}

// Leave removes a player and destroys the room once it is empty.
func (rm *RoomManager) Leave(code, playerID string) ([]Notification, error) {
	s, err := rm.Get(code)
	if err != nil {
		return nil, err
	}
	notes, empty, err := s.Leave(playerID)
	if err != nil {
		return nil, err
	}
	if empty {
		rm.mu.Lock()
		if rm.sessions[code] == s {
			delete(rm.sessions, code)
		}
		rm.mu.Unlock()
		log.Info().Str("room", code).Msg("room destroyed")
	}
	return notes, nil
}

// Rooms lists live rooms, oldest first.
func (rm *RoomManager) Rooms() []RoomInfo {
	rm.mu.RLock()
	sessions := make([]*Session, 0, len(rm.sessions))
	for _, s := range rm.sessions {
		sessions = append(sessions, s)
	}
	rm.mu.RUnlock()

	out := make([]RoomInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	slices.SortFunc(out, func(a, b RoomInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

func (rm *RoomManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.sessions)
}

// Shutdown closes every room and cancels pending timers.
func (rm *RoomManager) Shutdown() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for code, s := range rm.sessions {
		s.Close()
		delete(rm.sessions, code)
	}
}

func randomCode(rng *rand.Rand, n int) string {
	letters := []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rng.IntN(len(letters))]
	}
	return string(b)
}
