package simulate

import (
	"errors"
	"fmt"
	"sort"
)

// ErrVerification is wrapped by every leaderboard check failure.
var ErrVerification = errors.New("leaderboard verification failed")

// Verify checks the fetched leaderboard against what was submitted: entries
// are ordered best first with dense ranks, every score lies in
// (threshold, 99], and the top entry is at least the best accepted score.
func Verify(entries []Entry, accepted []Scored, threshold float64, limit int) error {
	if len(entries) > limit {
		return fmt.Errorf("%w: %d entries exceed limit %d", ErrVerification, len(entries), limit)
	}
	for i, e := range entries {
		if e.Score <= threshold || e.Score > maxScore {
			return fmt.Errorf("%w: entry %d (%s) score %.1f outside (%.1f, %.1f]",
				ErrVerification, i, e.Name, e.Score, threshold, maxScore)
		}
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("%w: first entry has rank %d", ErrVerification, e.Rank)
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("%w: entry %d scores %.1f above entry %d at %.1f",
				ErrVerification, i, e.Score, i-1, prev.Score)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("%w: tied entries %d and %d ranked %d and %d",
				ErrVerification, i-1, i, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != prev.Rank+1:
			return fmt.Errorf("%w: entry %d ranked %d after rank %d",
				ErrVerification, i, e.Rank, prev.Rank)
		}
	}

	if len(accepted) == 0 {
		return nil
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: %d submissions accepted but the leaderboard is empty", ErrVerification, len(accepted))
	}
	best := bestScore(accepted)
	if entries[0].Score < best {
		return fmt.Errorf("%w: top entry %.1f below best accepted %.1f", ErrVerification, entries[0].Score, best)
	}
	return nil
}

func bestScore(scored []Scored) float64 {
	sorted := make([]Scored, len(scored))
	copy(sorted, scored)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return sorted[0].Score
}
