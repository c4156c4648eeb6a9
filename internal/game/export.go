package game

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ExportRound appends a scored round to a text file.
func ExportRound(filename, roomID string, summary RoundSummary, at time.Time) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder

	if summary.Round == 1 {
		sb.WriteString(fmt.Sprintf("Worst-Case Scenario - Room %s\n", roomID))
		sb.WriteString(fmt.Sprintf("Started: %s\n", at.Format("2006-01-02 15:04:05")))
		sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	}

	victim := summary.VictimID
	for _, sc := range summary.Scores {
		if sc.PlayerID == summary.VictimID {
			victim = sc.Name
		}
	}
	sb.WriteString(fmt.Sprintf("Round %d: victim %s, spinner %s\n", summary.Round, victim, summary.Modifier))
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	// Cards in the Victim's order, least bad first
	cards := slices.Clone(summary.Cards)
	slices.SortFunc(cards, func(a, b CardOutcome) int { return a.VictimRank - b.VictimRank })
	for _, c := range cards {
		sb.WriteString(fmt.Sprintf("%d. %s\n", c.VictimRank, c.Text))
		for _, r := range c.Results {
			mark := " "
			if r.Match {
				mark = "*"
			}
			sb.WriteString(fmt.Sprintf("   %s %s placed %d\n", mark, r.Name, r.Chip))
		}
	}

	sb.WriteString("\nScores after this round:\n")
	scores := slices.Clone(summary.Scores)
	slices.SortStableFunc(scores, func(a, b RoundScore) int { return b.Total - a.Total })
	for _, ps := range scores {
		sb.WriteString(fmt.Sprintf("- %s: +%d (%d points)\n", ps.Name, ps.Gained, ps.Total))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
