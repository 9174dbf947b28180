package brackets

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/Dosada05/pingpong-league/models"
)

// GroupFinalists is one group's qualifiers in rank order, group winner first.
type GroupFinalists struct {
	GroupName string
	Ranked    []int
}

// Seed is a finalist's bracket entry with its group origin.
type Seed struct {
	CompetitorID int
	GroupName    string
	GroupRank    int
}

// Label renders the origin as "<group> <rank>", e.g. "A 1".
func (s Seed) Label() string {
	return fmt.Sprintf("%s %d", s.GroupName, s.GroupRank)
}

// SeedFinalists interleaves qualifiers by rank tier: every group winner in
// group order, then every runner-up, and so on. Qualifiers from the same
// group end up as far apart as the tiers allow.
func SeedFinalists(groups []GroupFinalists) []Seed {
	ordered := make([]GroupFinalists, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return groupNameLess(ordered[i].GroupName, ordered[j].GroupName)
	})

	tiers := 0
	for _, g := range ordered {
		tiers = max(tiers, len(g.Ranked))
	}

	seeds := make([]Seed, 0)
	for rank := 0; rank < tiers; rank++ {
		for _, g := range ordered {
			if rank < len(g.Ranked) {
				seeds = append(seeds, Seed{
					CompetitorID: g.Ranked[rank],
					GroupName:    g.GroupName,
					GroupRank:    rank + 1,
				})
			}
		}
	}
	return seeds
}

// QualifyFinalists ranks every group over its own matches and seeds the top
// advancing competitors of each. A group with fewer ranked members sends
// all of them.
func QualifyFinalists(groups []*models.Group, matches []*models.Match, roster Roster, mode models.RankingMode, advancing int) []Seed {
	finalists := make([]GroupFinalists, 0, len(groups))
	for _, group := range groups {
		standings := CalculateStandings(MatchesOfGroup(matches, group.ID), roster, mode)
		ranked := make([]int, 0, advancing)
		for _, st := range standings[:min(advancing, len(standings))] {
			ranked = append(ranked, st.CompetitorID)
		}
		finalists = append(finalists, GroupFinalists{GroupName: group.Name, Ranked: ranked})
	}
	return SeedFinalists(finalists)
}

// MatchesOfGroup keeps the matches played in one group.
func MatchesOfGroup(matches []*models.Match, groupID int) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range matches {
		if m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out
}

// Bracket is the first round of a single-elimination stage. Left and Right
// hold the two halves after bye padding, nil entries being byes.
type Bracket struct {
	Size     int
	Byes     int
	Left     []*int
	Right    []*int
	Pairings []*Pairing
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() *SingleEliminationGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// BracketSize returns the smallest power of two not below n.
func BracketSize(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Build places seeds into two halves and pairs position i with position
// size-1-i, so the top seed meets the bottom seed and the halves only meet
// in the final. Byes are split between the halves with the right half
// taking the larger share.
func (g *SingleEliminationGenerator) Build(seeds []int) (*Bracket, error) {
	total := len(seeds)
	if total < 2 {
		return nil, fmt.Errorf("%w: found %d finalists", ErrInsufficientEntrants, total)
	}

	size := BracketSize(total)
	byes := size - total
	leftByes := byes / 2
	rightByes := byes - leftByes
	leftCount := (total + 1) / 2

	left := make([]*int, 0, size/2)
	for _, id := range seeds[:leftCount] {
		left = append(left, models.IntPtr(id))
	}
	for range leftByes {
		left = append(left, nil)
	}

	right := make([]*int, 0, size/2)
	for _, id := range seeds[leftCount:] {
		right = append(right, models.IntPtr(id))
	}
	for range rightByes {
		right = append(right, nil)
	}

	slots := append(append(make([]*int, 0, size), left...), right...)
	pairings := make([]*Pairing, 0, size/2)
	for i := 0; i < size/2; i++ {
		pairings = append(pairings, &Pairing{
			Round:         1,
			OrderInRound:  i + 1,
			Competitor1ID: slots[i],
			Competitor2ID: slots[size-1-i],
		})
	}

	return &Bracket{
		Size:     size,
		Byes:     byes,
		Left:     left,
		Right:    right,
		Pairings: pairings,
	}, nil
}

// RoundOutcome is the result of closing the latest bracket round. Either
// Champion is set, or Pairings holds the next round.
type RoundOutcome struct {
	Round    int
	Winners  []int
	Champion *int
	Pairings []*Pairing
}

// LatestRound returns the highest round among bracket matches, 0 if none.
func LatestRound(matches []*models.Match) int {
	latest := 0
	for _, m := range matches {
		if m.IsBracket() && m.Round > latest {
			latest = m.Round
		}
	}
	return latest
}

// RoundMatches returns bracket matches of the given round, keeping input order.
func RoundMatches(matches []*models.Match, round int) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range matches {
		if m.IsBracket() && m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

// AdvanceRound closes the latest bracket round. matches must be in creation
// order. Winners are paired sequentially, a trailing winner gets a bye.
func (g *SingleEliminationGenerator) AdvanceRound(matches []*models.Match) (*RoundOutcome, error) {
	round := LatestRound(matches)
	if round == 0 {
		return nil, ErrNoRound
	}

	current := RoundMatches(matches, round)
	seen := make(map[int]struct{}, len(current))
	winners := make([]int, 0, len(current))
	for _, m := range current {
		if !m.IsCompleted() {
			return nil, fmt.Errorf("%w: round %d, match %d", ErrRoundIncomplete, round, m.ID)
		}
		if m.WinnerID == nil {
			continue
		}
		if _, dup := seen[*m.WinnerID]; dup {
			continue
		}
		seen[*m.WinnerID] = struct{}{}
		winners = append(winners, *m.WinnerID)
	}

	outcome := &RoundOutcome{Round: round, Winners: winners}
	switch len(winners) {
	case 0:
		return nil, fmt.Errorf("%w: round %d", ErrNoWinners, round)
	case 1:
		outcome.Champion = models.IntPtr(winners[0])
		return outcome, nil
	}

	outcome.Pairings = make([]*Pairing, 0, (len(winners)+1)/2)
	for i := 0; i < len(winners); i += 2 {
		p := &Pairing{
			Round:         round + 1,
			OrderInRound:  i/2 + 1,
			Competitor1ID: models.IntPtr(winners[i]),
		}
		if i+1 < len(winners) {
			p.Competitor2ID = models.IntPtr(winners[i+1])
		}
		outcome.Pairings = append(outcome.Pairings, p)
	}
	return outcome, nil
}
