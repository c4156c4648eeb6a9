package game

const (
	EventRoomUpdate        = "roomUpdate"
	EventRoundStarted      = "roundStarted"
	EventSpinResult        = "spinResult"
	EventYouAreVictim      = "youAreVictim"
	EventCardRevealStarted = "cardRevealStarted"
	EventYouCanReveal      = "youCanRevealCards"
	EventCardRevealed      = "cardRevealed"
	EventRoundScored       = "roundScored"
	EventSessionFinished   = "sessionFinished"
)

// Notification is one outbound message. An empty PlayerID addresses every
// subscriber of the room.
type Notification struct {
	RoomID   string
	PlayerID string
	Event    string
	Payload  any
}

func (n Notification) Broadcast() bool { return n.PlayerID == "" }

// Dispatcher delivers notifications produced outside a request, such as the
// round-end timer.
type Dispatcher interface {
	Dispatch(notes []Notification)
}

type DispatcherFunc func(notes []Notification)

func (f DispatcherFunc) Dispatch(notes []Notification) { f(notes) }

type RoomPayload struct {
	Room Snapshot `json:"room"`
}

type SpinPayload struct {
	Modifier Modifier `json:"modifier"`
	Room     Snapshot `json:"room"`
}

type VictimPayload struct {
	Hand            []string `json:"cards"`
	Modifier        Modifier `json:"spinner,omitempty"`
	RequiresSpin    bool     `json:"requireSpin,omitempty"`
	RequiresRanking bool     `json:"requireRanking,omitempty"`
}

type CardRevealedPayload struct {
	Index         int         `json:"cardIndex"`
	Card          CardOutcome `json:"cardData"`
	CardsRevealed []int       `json:"cardsRevealed"`
	AllRevealed   bool        `json:"allCardsRevealed"`
}

type FinishedPayload struct {
	Players []Standing `json:"players"`
	Winner  *Standing  `json:"winner,omitempty"`
}

// outbox collects notifications for a single room while its lock is held.
type outbox struct {
	roomID string
	notes  []Notification
}

func (o *outbox) room(event string, payload any) {
	o.notes = append(o.notes, Notification{RoomID: o.roomID, Event: event, Payload: payload})
}

func (o *outbox) to(playerID, event string, payload any) {
	o.notes = append(o.notes, Notification{RoomID: o.roomID, PlayerID: playerID, Event: event, Payload: payload})
}
