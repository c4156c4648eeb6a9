package game

// ValidPermutation reports whether p holds each of 1..5 exactly once.
func ValidPermutation(p []int) bool {
	if len(p) != HandSize {
		return false
	}
	var seen [HandSize + 1]bool
	for _, n := range p {
		if n < 1 || n > HandSize || seen[n] {
			return false
		}
		seen[n] = true
	}
	return true
}

// ToRanking validates p and converts it to a Ranking.
func ToRanking(p []int) (Ranking, error) {
	var r Ranking
	if !ValidPermutation(p) {
		return r, ErrInvalidPermutation
	}
	copy(r[:], p)
	return r, nil
}

// GuessScore scores one guess against the Victim's ranking.
//
// scoreYourChips sums the chip values of every match and ignores the other
// rules. Otherwise each match is worth a point, bonusMatch1 adds one when chip
// 1 sits on the card the Victim ranked 1, and double/triple multiply.
func GuessScore(victim, guess Ranking, m Modifier) int {
	if m == ModifierScoreYourChips {
		sum := 0
		for i := range victim {
			if guess[i] == victim[i] {
				sum += guess[i]
			}
		}
		return sum
	}

	score := 0
	for i := range victim {
		if guess[i] == victim[i] {
			score++
		}
	}
	switch m {
	case ModifierBonusMatch1:
		for i := range victim {
			if victim[i] == 1 && guess[i] == 1 {
				score++
			}
		}
	case ModifierDouble:
		score *= 2
	case ModifierTriple:
		score *= 3
	}
	return score
}

// Score computes every player's round score. The Victim earns the best guesser
// score, floored at zero.
func Score(victimID string, victim Ranking, guesses map[string]Ranking, m Modifier) map[string]int {
	out := make(map[string]int, len(guesses)+1)
	top := 0
	for id, g := range guesses {
		if id == victimID {
			continue
		}
		s := GuessScore(victim, g, m)
		out[id] = s
		if s > top {
			top = s
		}
	}
	out[victimID] = top
	return out
}
