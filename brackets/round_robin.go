package brackets

import (
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
)

// GroupSchedule is one round-robin group with its full match list.
type GroupSchedule struct {
	Name     string
	Members  []int
	Pairings []*Pairing
}

// Rounds returns the number of rounds the circle method used for this group.
func (g *GroupSchedule) Rounds() int {
	m := len(g.Members)
	if m < 2 {
		return 0
	}
	if m%2 == 1 {
		return m
	}
	return m - 1
}

type RoundRobinScheduler struct {
	GroupSize int
}

func NewRoundRobinScheduler(groupSize int) *RoundRobinScheduler {
	return &RoundRobinScheduler{GroupSize: groupSize}
}

func (s *RoundRobinScheduler) GetName() string {
	return "RoundRobin"
}

// Schedule splits the competitors, in the given order, into consecutive
// groups of GroupSize and builds an all-play-all schedule for each group.
// A trailing chunk with a single competitor is returned without pairings.
func (s *RoundRobinScheduler) Schedule(competitorIDs []int) ([]*GroupSchedule, error) {
	if s.GroupSize < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrGroupSizeTooSmall, s.GroupSize)
	}
	if len(competitorIDs) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientEntrants, len(competitorIDs))
	}

	groups := make([]*GroupSchedule, 0, (len(competitorIDs)+s.GroupSize-1)/s.GroupSize)
	for start := 0; start < len(competitorIDs); start += s.GroupSize {
		end := min(start+s.GroupSize, len(competitorIDs))
		members := make([]int, end-start)
		copy(members, competitorIDs[start:end])

		group := &GroupSchedule{
			Name:    GroupName(len(groups)),
			Members: members,
		}
		if len(members) >= 2 {
			group.Pairings = CirclePairings(members)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// CirclePairings builds a single round-robin with the circle method: the
// first seat stays fixed while the rest rotate one step per round. An odd
// field gets a bye seat, and pairings against it are not returned.
func CirclePairings(members []int) []*Pairing {
	seats := make([]*int, 0, len(members)+1)
	for _, id := range members {
		seats = append(seats, &id)
	}
	if len(seats)%2 == 1 {
		seats = append(seats, nil)
	}

	n := len(seats)
	pairings := make([]*Pairing, 0, len(members)*(len(members)-1)/2)
	for round := 1; round < n; round++ {
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := seats[i], seats[n-1-i]
			if home == nil || away == nil {
				continue
			}
			order++
			pairings = append(pairings, &Pairing{
				Round:         round,
				OrderInRound:  order,
				Competitor1ID: models.IntPtr(*home),
				Competitor2ID: models.IntPtr(*away),
			})
		}

		last := seats[n-1]
		copy(seats[2:], seats[1:n-1])
		seats[1] = last
	}
	return pairings
}

// GroupName labels groups A..Z, then AA, AB and so on.
func GroupName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}

// groupNameLess orders group labels the way GroupName issues them.
func groupNameLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
