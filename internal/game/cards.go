package game

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultCards is the built-in scenario pool used when no cards file is set.
var DefaultCards = []string{
	"Your phone dies halfway through a road trip with no map",
	"You step on a LEGO brick barefoot in the dark",
	"Your flight is cancelled and the next one leaves in two days",
	"You send a complaint about your boss to your boss",
	"A seagull steals your sandwich at the beach",
	"You get locked out of your house in your pajamas",
	"Your basement floods the night before a party",
	"You forget your best friend's wedding speech at home",
	"You discover you have been on mute for the whole meeting",
	"Your car gets towed while you are at the dentist",
	"You lose your passport on the first day abroad",
	"A wasp flies into your car on the highway",
	"You spill coffee on your laptop keyboard",
	"You wake up and realise you slept through an exam",
	"Your zipper is open during a job interview",
	"You are stuck in an elevator for three hours",
	"You get food poisoning on your birthday",
	"Your neighbour starts renovating at six in the morning",
	"You accidentally like a photo from five years ago",
	"You fall asleep on the train and miss your stop by an hour",
	"Your umbrella flips inside out in a downpour",
	"You break your glasses on the first day of holiday",
	"You get a parking ticket while paying for parking",
	"Your luggage goes to a different continent",
	"You find a spider in your shoe after putting it on",
	"Your phone autocorrects a message to your parents badly",
	"You lock your keys in the running car",
	"You burn the main course when the in-laws visit",
	"Your tent collapses in the rain at a festival",
	"You get a paper cut from an envelope full of bills",
	"The power goes out mid-save on a long project",
	"You wave back at someone who was waving at somebody else",
	"Your ice cream falls off the cone on the first lick",
	"You realise you have been calling a colleague the wrong name for a year",
	"A pigeon targets you on your way to a wedding",
	"You get a flat tyre in the middle of nowhere",
	"Your sunburn peels right before the family photo",
	"You get stuck behind a tractor when already late",
	"Your headphones die on a twelve hour flight",
	"You sit on wet paint in your favourite trousers",
}

// LoadCards reads a JSON array of prompts. Blank and duplicate entries are
// dropped.
func LoadCards(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse cards %s: %w", path, err)
	}
	cards := NormalizeCards(raw)
	if len(cards) < HandSize {
		return nil, fmt.Errorf("cards %s: need at least %d distinct prompts, got %d", path, HandSize, len(cards))
	}
	return cards, nil
}

// NormalizeCards trims prompts and drops blanks and repeats, keeping order.
func NormalizeCards(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
