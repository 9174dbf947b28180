package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
)

type fakeRecorder struct {
	mu             sync.Mutex
	groupStages    int
	results        map[string]int
	bracketRounds  int
	roomsCompleted map[string]int
	archives       map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		results:        map[string]int{},
		roomsCompleted: map[string]int{},
		archives:       map[string]int{},
	}
}

func (r *fakeRecorder) GroupStageGenerated(string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupStages++
}

func (r *fakeRecorder) MatchResultRecorded(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage]++
}

func (r *fakeRecorder) BracketRoundAdvanced() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bracketRounds++
}

func (r *fakeRecorder) RoomCompleted(format string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomsCompleted[format]++
}

func (r *fakeRecorder) ArchiveUploaded(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives[outcome]++
}

type fixture struct {
	store      *memStore
	recorder   *fakeRecorder
	rooms      RoomService
	tournament TournamentService
}

func newFixture(t *testing.T, allowSimulation bool) *fixture {
	t.Helper()
	store := newMemStore()
	recorder := newFakeRecorder()
	logger := zerolog.New(io.Discard)
	repos := store.repositories()

	return &fixture{
		store:    store,
		recorder: recorder,
		rooms:    NewRoomService(store, repos, RoomDefaults{PlayersPerGroup: 4, AdvancingPerGroup: 2}, brackets.NewRand(7), logger),
		tournament: NewTournamentService(store, repos, recorder, logger, TournamentServiceConfig{
			AllowSimulation: allowSimulation,
			Rand:            brackets.NewRand(11),
		}),
	}
}

// newRoom creates a room and registers n participants with generated names.
func (f *fixture) newRoom(t *testing.T, input CreateRoomInput, n int) (*models.Room, []*models.Participant) {
	t.Helper()
	ctx := context.Background()
	if input.Title == "" {
		input.Title = "Spring Cup"
	}
	room, err := f.rooms.CreateRoom(ctx, input)
	require.NoError(t, err)

	faker := gofakeit.New(42)
	participants := make([]*models.Participant, 0, n)
	for i := range n {
		p, err := f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: fmt.Sprintf("%s %d", faker.LastName(), i+1)})
		require.NoError(t, err)
		participants = append(participants, p)
	}
	return room, participants
}

func (f *fixture) room(t *testing.T, id int) *models.Room {
	t.Helper()
	room, err := f.rooms.GetRoom(context.Background(), id)
	require.NoError(t, err)
	return room
}

// lowerIDWins plays every pending match passed in so that the competitor
// with the lower ID wins 3-1.
func (f *fixture) lowerIDWins(t *testing.T, matches []*models.Match) {
	t.Helper()
	for _, m := range matches {
		if m.IsCompleted() {
			continue
		}
		s1, s2 := 3, 1
		if *m.Competitor1ID > *m.Competitor2ID {
			s1, s2 = 1, 3
		}
		_, err := f.tournament.RecordMatchResult(context.Background(), m.ID, s1, s2)
		require.NoError(t, err)
	}
}

func (f *fixture) matches(t *testing.T, roomID int) []*models.Match {
	t.Helper()
	matches, err := f.tournament.ListMatches(context.Background(), roomID)
	require.NoError(t, err)
	return matches
}

func ptr[T any](v T) *T {
	return &v
}

func participantIDs(participants []*models.Participant) []int {
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	return ids
}
