package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
)

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Dispatch(notes []Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, notes...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Event)
	}
	return out
}

type testRig struct {
	rm    *RoomManager
	clock *quartz.Mock
	rec   *recorder
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	clock := quartz.NewMock(t)
	rec := &recorder{}
	rm := NewRoomManager(Options{Clock: clock, Seed: 99, Dispatcher: rec})
	return &testRig{rm: rm, clock: clock, rec: rec}
}

// room creates a room with n players and returns its code and roster in join
// order; the first player is the host.
func (r *testRig) room(t *testing.T, n int) (string, *Session, []Player) {
	t.Helper()
	s, host, _ := r.rm.CreateRoom("Player0")
	players := []Player{host}
	for i := 1; i < n; i++ {
		p, _, _, err := r.rm.JoinRoom(s.ID, "Player"+string(rune('0'+i)))
		if err != nil {
			t.Fatalf("should be able to join: %v", err)
		}
		players = append(players, p)
	}
	return s.ID, s, players
}

// settle fires the round-end timer and waits for the callback to finish.
func (r *testRig) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, w := r.clock.AdvanceNext()
	w.MustWait(ctx)
}

func identity() []int { return []int{1, 2, 3, 4, 5} }

func hasEvent(notes []Notification, event string) bool {
	for _, n := range notes {
		if n.Event == event {
			return true
		}
	}
	return false
}

func findEvent(notes []Notification, event string) (Notification, bool) {
	for _, n := range notes {
		if n.Event == event {
			return n, true
		}
	}
	return Notification{}, false
}

// playToReveal spins, ranks with identity and has every guesser submit
// guessFor(id). It returns the notifications of the last guess.
func playToReveal(t *testing.T, r *testRig, code string, s *Session, guessFor func(id string) []int) []Notification {
	t.Helper()
	victim := s.VictimID()
	if _, err := r.rm.Spin(code, victim); err != nil {
		t.Fatalf("victim should be able to spin: %v", err)
	}
	if _, err := r.rm.SubmitRanking(code, victim, identity()); err != nil {
		t.Fatalf("victim should be able to rank: %v", err)
	}
	var last []Notification
	for _, p := range s.Players() {
		if p.ID == victim {
			continue
		}
		notes, err := r.rm.SubmitGuess(code, p.ID, guessFor(p.ID))
		if err != nil {
			t.Fatalf("guesser should be able to guess: %v", err)
		}
		last = notes
	}
	return last
}

func revealAll(t *testing.T, r *testRig, code string, s *Session) []Notification {
	t.Helper()
	victim := s.VictimID()
	var last []Notification
	for i := 0; i < HandSize; i++ {
		notes, err := r.rm.RevealCard(code, victim, i)
		if err != nil {
			t.Fatalf("victim should be able to reveal card %d: %v", i, err)
		}
		last = notes
	}
	return last
}
