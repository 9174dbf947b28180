package services

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

// memState holds every table of the fake store. Values are stored by value
// so callers can never mutate stored rows through returned pointers.
type memState struct {
	nextID       int
	rooms        map[int]models.Room
	participants map[int]models.Participant
	teams        map[int]models.Team
	groups       map[int]models.Group
	matches      map[int]models.Match
}

func (s memState) clone() memState {
	c := s
	c.rooms = maps.Clone(s.rooms)
	c.participants = maps.Clone(s.participants)
	c.teams = maps.Clone(s.teams)
	c.groups = maps.Clone(s.groups)
	c.matches = maps.Clone(s.matches)
	return c
}

// memStore implements every repository in memory.
type memStore struct {
	mu    sync.Mutex
	state memState
	txs   int
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		rooms:        map[int]models.Room{},
		participants: map[int]models.Participant{},
		teams:        map[int]models.Team{},
		groups:       map[int]models.Group{},
		matches:      map[int]models.Match{},
	}}
}

func (m *memStore) id() int {
	m.state.nextID++
	return m.state.nextID
}

func (m *memStore) repositories() Repositories {
	return Repositories{
		Rooms:        memRooms{m},
		Participants: memParticipants{m},
		Teams:        memTeams{m},
		Groups:       memGroups{m},
		Matches:      memMatches{m},
	}
}

// txExec stands in for *sql.Tx. The in-memory repositories never call it.
type txExec struct{ repositories.SQLExecutor }

// WithinTx restores the previous state when fn fails.
func (m *memStore) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.mu.Lock()
	saved := m.state.clone()
	m.txs++
	m.mu.Unlock()

	if err := fn(txExec{}); err != nil {
		m.mu.Lock()
		m.state = saved
		m.mu.Unlock()
		return err
	}
	return nil
}

func sortedValues[T any](rows map[int]T, keep func(T) bool) []T {
	ids := slices.Sorted(maps.Keys(rows))
	out := make([]T, 0)
	for _, id := range ids {
		if keep(rows[id]) {
			out = append(out, rows[id])
		}
	}
	return out
}

type memRooms struct{ m *memStore }

func (r memRooms) Create(_ context.Context, _ repositories.SQLExecutor, room *models.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room.ID = r.m.id()
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	r.m.state.rooms[room.ID] = *room
	return nil
}

func (r memRooms) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.state.rooms[id]
	if !ok {
		return nil, repositories.ErrRoomNotFound
	}
	return &room, nil
}

func (r memRooms) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Room, error) {
	return r.GetByID(ctx, exec, id)
}

func (r memRooms) List(_ context.Context, _ repositories.SQLExecutor, filter repositories.ListRoomsFilter) ([]*models.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rooms := sortedValues(r.m.state.rooms, func(room models.Room) bool {
		return filter.Status == nil || room.Status == *filter.Status
	})
	out := make([]*models.Room, 0, len(rooms))
	for i := range rooms {
		out = append(out, &rooms[i])
	}
	return out, nil
}

func (r memRooms) Update(_ context.Context, _ repositories.SQLExecutor, room *models.Room) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.rooms[room.ID]; !ok {
		return repositories.ErrRoomNotFound
	}
	room.UpdatedAt = time.Now()
	r.m.state.rooms[room.ID] = *room
	return nil
}

func (r memRooms) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RoomStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.state.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.Status = status
	r.m.state.rooms[id] = room
	return nil
}

func (r memRooms) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.rooms[id]; !ok {
		return repositories.ErrRoomNotFound
	}
	delete(r.m.state.rooms, id)
	maps.DeleteFunc(r.m.state.participants, func(_ int, p models.Participant) bool { return p.RoomID == id })
	maps.DeleteFunc(r.m.state.teams, func(_ int, t models.Team) bool { return t.RoomID == id })
	maps.DeleteFunc(r.m.state.groups, func(_ int, g models.Group) bool { return g.RoomID == id })
	maps.DeleteFunc(r.m.state.matches, func(_ int, m models.Match) bool { return m.RoomID == id })
	return nil
}

func (r memRooms) ListUnarchivedCompleted(_ context.Context, _ repositories.SQLExecutor, limit int) ([]*models.Room, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rooms := sortedValues(r.m.state.rooms, func(room models.Room) bool {
		return room.Status == models.RoomStatusCompleted && room.ArchivedAt == nil
	})
	slices.SortStableFunc(rooms, func(a, b models.Room) int {
		switch {
		case a.ArchiveFailedAt == nil && b.ArchiveFailedAt == nil:
			return 0
		case a.ArchiveFailedAt == nil:
			return -1
		case b.ArchiveFailedAt == nil:
			return 1
		}
		return a.ArchiveFailedAt.Compare(*b.ArchiveFailedAt)
	})
	out := make([]*models.Room, 0, len(rooms))
	for i := range rooms[:min(limit, len(rooms))] {
		out = append(out, &rooms[i])
	}
	return out, nil
}

func (r memRooms) MarkArchived(_ context.Context, _ repositories.SQLExecutor, id int, key string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.state.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.ArchiveKey = &key
	room.ArchivedAt = &at
	r.m.state.rooms[id] = room
	return nil
}

func (r memRooms) MarkArchiveFailed(_ context.Context, _ repositories.SQLExecutor, id int, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	room, ok := r.m.state.rooms[id]
	if !ok {
		return repositories.ErrRoomNotFound
	}
	room.ArchiveFailedAt = &at
	r.m.state.rooms[id] = room
	return nil
}

type memParticipants struct{ m *memStore }

func (r memParticipants) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.rooms[p.RoomID]; !ok {
		return repositories.ErrParticipantRoomInvalid
	}
	for _, existing := range r.m.state.participants {
		if existing.RoomID == p.RoomID && existing.Name == p.Name {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.m.id()
	p.CreatedAt = time.Now()
	r.m.state.participants[p.ID] = *p
	return nil
}

func (r memParticipants) ListByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) ([]*models.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := sortedValues(r.m.state.participants, func(p models.Participant) bool { return p.RoomID == roomID })
	out := make([]*models.Participant, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r memParticipants) CountByRoom(ctx context.Context, exec repositories.SQLExecutor, roomID int) (int, error) {
	rows, err := r.ListByRoom(ctx, exec, roomID)
	return len(rows), err
}

func (r memParticipants) Delete(_ context.Context, _ repositories.SQLExecutor, roomID, participantID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.state.participants[participantID]
	if !ok || p.RoomID != roomID {
		return repositories.ErrParticipantNotFound
	}
	delete(r.m.state.participants, participantID)
	return nil
}

func (r memParticipants) DeleteByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	before := len(r.m.state.participants)
	maps.DeleteFunc(r.m.state.participants, func(_ int, p models.Participant) bool { return p.RoomID == roomID })
	return before - len(r.m.state.participants), nil
}

type memTeams struct{ m *memStore }

func (r memTeams) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.rooms[team.RoomID]; !ok {
		return repositories.ErrTeamRoomInvalid
	}
	team.ID = r.m.id()
	team.CreatedAt = time.Now()
	stored := *team
	stored.MemberIDs = slices.Clone(team.MemberIDs)
	stored.Members = nil
	r.m.state.teams[team.ID] = stored
	return nil
}

func (r memTeams) ListByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) ([]*models.Team, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := sortedValues(r.m.state.teams, func(t models.Team) bool { return t.RoomID == roomID })
	out := make([]*models.Team, 0, len(rows))
	for i := range rows {
		rows[i].MemberIDs = slices.Clone(rows[i].MemberIDs)
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r memTeams) DeleteByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	maps.DeleteFunc(r.m.state.teams, func(_ int, t models.Team) bool { return t.RoomID == roomID })
	return nil
}

type memGroups struct{ m *memStore }

func (r memGroups) Create(_ context.Context, _ repositories.SQLExecutor, group *models.Group) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.state.groups {
		if existing.RoomID == group.RoomID && existing.Name == group.Name {
			return repositories.ErrGroupConflict
		}
	}
	group.ID = r.m.id()
	group.CreatedAt = time.Now()
	r.m.state.groups[group.ID] = *group
	return nil
}

func (r memGroups) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	group, ok := r.m.state.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	return &group, nil
}

func (r memGroups) ListByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) ([]*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := sortedValues(r.m.state.groups, func(g models.Group) bool { return g.RoomID == roomID })
	out := make([]*models.Group, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, nil
}

func (r memGroups) DeleteByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	maps.DeleteFunc(r.m.state.groups, func(_ int, g models.Group) bool { return g.RoomID == roomID })
	return nil
}

type memMatches struct{ m *memStore }

func (r memMatches) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	match.ID = r.m.id()
	match.CreatedAt = time.Now()
	match.UpdatedAt = match.CreatedAt
	r.m.state.matches[match.ID] = *match
	return nil
}

func (r memMatches) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	match, ok := r.m.state.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &match, nil
}

func (r memMatches) list(keep func(models.Match) bool) []*models.Match {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rows := sortedValues(r.m.state.matches, keep)
	out := make([]*models.Match, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out
}

func (r memMatches) ListByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) ([]*models.Match, error) {
	return r.list(func(m models.Match) bool { return m.RoomID == roomID }), nil
}

func (r memMatches) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) ([]*models.Match, error) {
	matches := r.list(func(m models.Match) bool { return m.GroupID != nil && *m.GroupID == groupID })
	slices.SortStableFunc(matches, func(a, b *models.Match) int { return a.Round - b.Round })
	return matches, nil
}

func (r memMatches) UpdateResult(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.state.matches[match.ID]
	if !ok || stored.Status != models.MatchStatusPending {
		return repositories.ErrMatchNotPending
	}
	match.UpdatedAt = time.Now()
	r.m.state.matches[match.ID] = *match
	return nil
}

func (r memMatches) DeleteByRoom(_ context.Context, _ repositories.SQLExecutor, roomID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	maps.DeleteFunc(r.m.state.matches, func(_ int, m models.Match) bool { return m.RoomID == roomID })
	return nil
}
