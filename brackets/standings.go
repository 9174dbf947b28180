package brackets

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/Dosada05/pingpong-league/models"
)

// Roster resolves competitor IDs to display names.
type Roster map[int]string

func (r Roster) Name(id int) string {
	if name, ok := r[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

const tieBreakRatioRemark = "ranked by games ratio among tied competitors"

// rankingKey selects the standing field used to bucket ties.
type rankingKey func(*models.Standing) int

func keyFor(mode models.RankingMode) rankingKey {
	if mode == models.RankingByWins {
		return func(s *models.Standing) int { return s.Wins }
	}
	return func(s *models.Standing) int { return s.Points }
}

// CalculateStandings ranks every competitor that appears in matches.
// Only completed matches are scored. Competitors sharing the ranking value
// are ordered by head-to-head (two-way ties) or by the games ratio over the
// matches played among themselves (three or more).
func CalculateStandings(matches []*models.Match, roster Roster, mode models.RankingMode) []*models.Standing {
	byID := make(map[int]*models.Standing)
	order := make([]*models.Standing, 0)
	track := func(id *int) {
		if id == nil {
			return
		}
		if _, ok := byID[*id]; ok {
			return
		}
		s := &models.Standing{CompetitorID: *id, Name: roster.Name(*id)}
		byID[*id] = s
		order = append(order, s)
	}

	for _, m := range matches {
		track(m.Competitor1ID)
		track(m.Competitor2ID)
	}
	if len(order) == 0 {
		return []*models.Standing{}
	}

	for _, m := range matches {
		if !m.IsCompleted() || m.WinnerID == nil || m.HasBye() {
			continue
		}
		winnerID := *m.WinnerID
		loserID := *m.Opponent(winnerID)

		won, lost := m.ScoreFor(winnerID)
		byID[winnerID].RecordWin(won, lost)
		won, lost = m.ScoreFor(loserID)
		byID[loserID].RecordLoss(won, lost)
	}

	key := keyFor(mode)
	buckets := make(map[int][]*models.Standing)
	values := make([]int, 0)
	for _, s := range order {
		v := key(s)
		if _, ok := buckets[v]; !ok {
			values = append(values, v)
		}
		buckets[v] = append(buckets[v], s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	ranked := make([]*models.Standing, 0, len(order))
	for _, v := range values {
		ranked = append(ranked, breakTie(buckets[v], matches, roster)...)
	}
	for i, s := range ranked {
		s.Rank = i + 1
	}
	return ranked
}

func breakTie(tied []*models.Standing, matches []*models.Match, roster Roster) []*models.Standing {
	switch {
	case len(tied) == 2:
		return breakTwoWayTie(tied, matches, roster)
	case len(tied) >= 3:
		return breakMultiWayTie(tied, matches)
	default:
		return tied
	}
}

// breakTwoWayTie orders the pair by their head-to-head result. Without a
// completed head-to-head match the pair keeps its order of first appearance.
func breakTwoWayTie(tied []*models.Standing, matches []*models.Match, roster Roster) []*models.Standing {
	first, second := tied[0], tied[1]
	h2h := findHeadToHead(matches, first.CompetitorID, second.CompetitorID)
	if h2h == nil || !h2h.IsCompleted() || h2h.WinnerID == nil {
		return tied
	}

	if *h2h.WinnerID == second.CompetitorID {
		first, second = second, first
	}
	first.AddRemark(fmt.Sprintf("head-to-head win over %s", roster.Name(second.CompetitorID)))
	return []*models.Standing{first, second}
}

func findHeadToHead(matches []*models.Match, a, b int) *models.Match {
	for _, m := range matches {
		if m.HasBye() {
			continue
		}
		if m.Involves(a) && m.Involves(b) {
			return m
		}
	}
	return nil
}

// breakMultiWayTie re-scores the tied competitors over their mutual matches
// only and sorts them by games won over games lost.
func breakMultiWayTie(tied []*models.Standing, matches []*models.Match) []*models.Standing {
	members := make(map[int]*models.Standing, len(tied))
	for _, s := range tied {
		s.TieBreakGamesWon = 0
		s.TieBreakGamesLost = 0
		members[s.CompetitorID] = s
	}

	for _, m := range matches {
		if !m.IsCompleted() || m.HasBye() {
			continue
		}
		s1, ok1 := members[*m.Competitor1ID]
		s2, ok2 := members[*m.Competitor2ID]
		if !ok1 || !ok2 {
			continue
		}
		s1.TieBreakGamesWon += m.Score1
		s1.TieBreakGamesLost += m.Score2
		s2.TieBreakGamesWon += m.Score2
		s2.TieBreakGamesLost += m.Score1
	}

	sorted := slices.Clone(tied)
	sort.SliceStable(sorted, func(i, j int) bool {
		return TieBreakRatio(sorted[i]) > TieBreakRatio(sorted[j])
	})
	for _, s := range sorted {
		s.AddRemark(tieBreakRatioRemark)
	}
	return sorted
}

// TieBreakRatio is games won over games lost within a tied sub-group. No lost
// games yields +Inf when any game was won and 0 otherwise.
func TieBreakRatio(s *models.Standing) float64 {
	if s.TieBreakGamesLost == 0 {
		if s.TieBreakGamesWon > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return float64(s.TieBreakGamesWon) / float64(s.TieBreakGamesLost)
}
