package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

// Transactor runs fn inside one transaction. Implementations commit when fn
// returns nil and roll back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// Repositories groups the stores the services depend on.
type Repositories struct {
	Rooms        repositories.RoomRepository
	Participants repositories.ParticipantRepository
	Teams        repositories.TeamRepository
	Groups       repositories.GroupRepository
	Matches      repositories.MatchRepository
}

// lockedRand serializes access to a shared random source.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(rng *rand.Rand) *lockedRand {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &lockedRand{rng: rng}
}

func (l *lockedRand) shuffle(ids []int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return brackets.Shuffle(ids, l.rng)
}

func (l *lockedRand) score() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return brackets.SimulatedScore(l.rng)
}

func getRoom(ctx context.Context, rooms repositories.RoomRepository, exec repositories.SQLExecutor, id int) (*models.Room, error) {
	room, err := rooms.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

func lockRoom(ctx context.Context, rooms repositories.RoomRepository, exec repositories.SQLExecutor, id int) (*models.Room, error) {
	room, err := rooms.GetByIDForUpdate(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to lock room %d: %w", id, err)
	}
	return room, nil
}

// loadRoster returns the room's competitors: teams for team-based game types,
// participants otherwise.
func loadRoster(ctx context.Context, repos Repositories, exec repositories.SQLExecutor, room *models.Room) (brackets.Roster, []int, error) {
	roster := make(brackets.Roster)
	ids := make([]int, 0)

	if room.GameType.IsTeamBased() {
		teams, err := repos.Teams.ListByRoom(ctx, exec, room.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load teams for room %d: %w", room.ID, err)
		}
		for _, team := range teams {
			roster[team.ID] = team.Name
			ids = append(ids, team.ID)
		}
		return roster, ids, nil
	}

	participants, err := repos.Participants.ListByRoom(ctx, exec, room.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants for room %d: %w", room.ID, err)
	}
	for _, p := range participants {
		roster[p.ID] = p.Name
		ids = append(ids, p.ID)
	}
	return roster, ids, nil
}

func teamName(members []*models.Participant) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return strings.Join(names, " / ")
}

func groupMatches(matches []*models.Match) []*models.Match {
	out := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if !m.IsBracket() {
			out = append(out, m)
		}
	}
	return out
}

func bracketMatches(matches []*models.Match) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range matches {
		if m.IsBracket() {
			out = append(out, m)
		}
	}
	return out
}

func countPending(matches []*models.Match) int {
	n := 0
	for _, m := range matches {
		if !m.IsCompleted() {
			n++
		}
	}
	return n
}

func stageOf(m *models.Match) string {
	if m.IsBracket() {
		return "bracket"
	}
	return "group"
}
