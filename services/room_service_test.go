package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

func TestCreateRoom_Defaults(t *testing.T) {
	f := newFixture(t, false)

	room, err := f.rooms.CreateRoom(context.Background(), CreateRoomInput{Title: "  Autumn Open  "})
	require.NoError(t, err)

	assert.Equal(t, "Autumn Open", room.Title)
	assert.Equal(t, models.GameTypeSingle, room.GameType)
	assert.Equal(t, models.MatchFormatPreliminaryTournament, room.MatchFormat)
	assert.Equal(t, models.RankingByPoints, room.RankingMode)
	assert.Equal(t, models.BracketLayoutStandard, room.BracketLayout)
	assert.Equal(t, 4, room.PlayersPerGroup)
	assert.Equal(t, 2, room.AdvancingPerGroup)
	assert.Equal(t, 1, room.TeamSize)
	assert.Equal(t, models.RoomStatusOpen, room.Status)

	doubles, err := f.rooms.CreateRoom(context.Background(), CreateRoomInput{Title: "Doubles", GameType: ptr(models.GameTypeDouble)})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTeamSize, doubles.TeamSize)
}

func TestCreateRoom_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateRoomInput
		wantErr error
	}{
		{name: "missing title", input: CreateRoomInput{Title: "   "}, wantErr: ErrRoomTitleRequired},
		{name: "group of one", input: CreateRoomInput{Title: "x", PlayersPerGroup: ptr(1)}, wantErr: ErrInvalidConfiguration},
		{name: "nobody advances", input: CreateRoomInput{Title: "x", AdvancingPerGroup: ptr(0)}, wantErr: ErrAdvancingCountInvalid},
		{name: "team of one", input: CreateRoomInput{Title: "x", GameType: ptr(models.GameTypeTeam), TeamSize: ptr(1)}, wantErr: ErrTeamSizeInvalid},
		{name: "unknown game type", input: CreateRoomInput{Title: "x", GameType: ptr(models.GameType("squash"))}, wantErr: ErrValidationFailed},
		{name: "unknown layout", input: CreateRoomInput{Title: "x", BracketLayout: ptr(models.BracketLayout("radial"))}, wantErr: ErrRoomSettingInvalid},
		{name: "negative capacity", input: CreateRoomInput{Title: "x", MaxParticipants: ptr(-1)}, wantErr: ErrRoomSettingInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			_, err := f.rooms.CreateRoom(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateRoom_RoundRobinIgnoresAdvancing(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.rooms.CreateRoom(context.Background(), CreateRoomInput{
		Title:             "League",
		MatchFormat:       ptr(models.MatchFormatRoundRobin),
		AdvancingPerGroup: ptr(0),
	})
	assert.NoError(t, err)
}

func TestUpdateAndDeleteRoom(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, _ := f.newRoom(t, CreateRoomInput{}, 4)

	updated, err := f.rooms.UpdateRoom(ctx, room.ID, UpdateRoomInput{
		Title:         ptr("Renamed"),
		RankingMode:   ptr(models.RankingByWins),
		BracketLayout: ptr(models.BracketLayoutSplit),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, models.RankingByWins, f.room(t, room.ID).RankingMode)

	_, err = f.rooms.UpdateRoom(ctx, room.ID, UpdateRoomInput{PlayersPerGroup: ptr(1)})
	assert.ErrorIs(t, err, ErrGroupSizeTooSmall)
	assert.Equal(t, 4, f.room(t, room.ID).PlayersPerGroup)

	_, err = f.tournament.GenerateGroupStage(ctx, room.ID)
	require.NoError(t, err)

	_, err = f.rooms.UpdateRoom(ctx, room.ID, UpdateRoomInput{Title: ptr("Late")})
	assert.ErrorIs(t, err, ErrRoomNotOpen)

	err = f.rooms.DeleteRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomInProgress)

	require.NoError(t, f.tournament.ResetRoom(ctx, room.ID))
	require.NoError(t, f.rooms.DeleteRoom(ctx, room.ID))

	_, err = f.rooms.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, f.store.state.participants)
}

func TestListRooms_FiltersByStatus(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	open, _ := f.newRoom(t, CreateRoomInput{Title: "Open"}, 2)
	started, _ := f.newRoom(t, CreateRoomInput{Title: "Started"}, 2)
	_, err := f.tournament.GenerateGroupStage(ctx, started.ID)
	require.NoError(t, err)

	all, err := f.rooms.ListRooms(ctx, repositories.ListRoomsFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := models.RoomStatusOpen
	onlyOpen, err := f.rooms.ListRooms(ctx, repositories.ListRoomsFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, open.ID, onlyOpen[0].ID)
}

func TestAddParticipant(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, participants := f.newRoom(t, CreateRoomInput{MaxParticipants: ptr(3)}, 2)

	_, err := f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: " "})
	assert.ErrorIs(t, err, ErrParticipantNameEmpty)

	_, err = f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: participants[0].Name})
	assert.ErrorIs(t, err, ErrParticipantConflict)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: "Third", ExternalRef: ptr("tg:42")})
	require.NoError(t, err)

	_, err = f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: "Fourth"})
	assert.ErrorIs(t, err, ErrRoomFull)

	_, err = f.rooms.AddParticipant(ctx, 404, AddParticipantInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	list, err := f.rooms.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, "tg:42", *list[2].ExternalRef)
}

func TestRemoveParticipant(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, participants := f.newRoom(t, CreateRoomInput{}, 3)

	err := f.rooms.RemoveParticipant(ctx, room.ID, 9999)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	require.NoError(t, f.rooms.RemoveParticipant(ctx, room.ID, participants[1].ID))
	list, err := f.rooms.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{participants[0].ID, participants[2].ID}, participantIDs(list))

	_, err = f.tournament.GenerateGroupStage(ctx, room.ID)
	require.NoError(t, err)
	err = f.rooms.RemoveParticipant(ctx, room.ID, participants[0].ID)
	assert.ErrorIs(t, err, ErrRoomNotOpen)
}

func TestAddParticipantsBulk(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, participants := f.newRoom(t, CreateRoomInput{MaxParticipants: ptr(4)}, 1)

	_, err := f.rooms.AddParticipantsBulk(ctx, room.ID, nil)
	assert.ErrorIs(t, err, ErrNoParticipantNames)

	result, err := f.rooms.AddParticipantsBulk(ctx, room.ID, []string{
		" Kim ", "", participants[0].Name, "Lee", "Kim", "Park", "Choi",
	})
	require.NoError(t, err)

	added := make([]string, 0, len(result.Added))
	for _, p := range result.Added {
		added = append(added, p.Name)
	}
	assert.Equal(t, []string{"Kim", "Lee", "Park"}, added)
	assert.Equal(t, []BulkAddFailure{
		{Identifier: participants[0].Name, Reason: bulkReasonDuplicate},
		{Identifier: "Kim", Reason: bulkReasonDuplicate},
		{Identifier: "Choi", Reason: bulkReasonFull},
	}, result.Failed)

	list, err := f.rooms.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	_, err = f.rooms.AddParticipantsBulk(ctx, 404, []string{"Ghost"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestAddParticipantsBulk_ClosedRoomAndTeams(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	doubles, _ := f.newRoom(t, CreateRoomInput{GameType: ptr(models.GameTypeDouble)}, 4)
	_, err := f.rooms.AutoAssignTeams(ctx, doubles.ID)
	require.NoError(t, err)
	_, err = f.rooms.AddParticipantsBulk(ctx, doubles.ID, []string{"Newcomer"})
	require.NoError(t, err)
	teams, err := f.rooms.ListTeams(ctx, doubles.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)

	started, _ := f.newRoom(t, CreateRoomInput{Title: "Started"}, 2)
	_, err = f.tournament.GenerateGroupStage(ctx, started.ID)
	require.NoError(t, err)
	_, err = f.rooms.AddParticipantsBulk(ctx, started.ID, []string{"Latecomer"})
	assert.ErrorIs(t, err, ErrRoomNotOpen)
}

func TestClearParticipants(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, _ := f.newRoom(t, CreateRoomInput{GameType: ptr(models.GameTypeDouble)}, 4)
	other, _ := f.newRoom(t, CreateRoomInput{Title: "Other"}, 2)
	_, err := f.rooms.AutoAssignTeams(ctx, room.ID)
	require.NoError(t, err)

	removed, err := f.rooms.ClearParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	list, err := f.rooms.ListParticipants(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	teams, err := f.rooms.ListTeams(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)

	list, err = f.rooms.ListParticipants(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.tournament.GenerateGroupStage(ctx, other.ID)
	require.NoError(t, err)
	_, err = f.rooms.ClearParticipants(ctx, other.ID)
	assert.ErrorIs(t, err, ErrRoomNotOpen)

	_, err = f.rooms.ClearParticipants(ctx, 404)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSaveTeams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	room, p := f.newRoom(t, CreateRoomInput{GameType: ptr(models.GameTypeDouble)}, 4)

	tests := []struct {
		name  string
		teams []TeamInput
	}{
		{name: "no teams", teams: nil},
		{name: "wrong size", teams: []TeamInput{{MemberIDs: []int{p[0].ID, p[1].ID, p[2].ID}}, {MemberIDs: []int{p[3].ID}}}},
		{name: "foreign member", teams: []TeamInput{{MemberIDs: []int{p[0].ID, 9999}}, {MemberIDs: []int{p[2].ID, p[3].ID}}}},
		{name: "member twice", teams: []TeamInput{{MemberIDs: []int{p[0].ID, p[1].ID}}, {MemberIDs: []int{p[1].ID, p[2].ID}}}},
		{name: "member left out", teams: []TeamInput{{MemberIDs: []int{p[0].ID, p[1].ID}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rooms.SaveTeams(ctx, room.ID, tt.teams)
			assert.ErrorIs(t, err, ErrInvalidTeamSetup)
		})
	}

	teams, err := f.rooms.SaveTeams(ctx, room.ID, []TeamInput{
		{Name: "Smashers", MemberIDs: []int{p[0].ID, p[3].ID}},
		{MemberIDs: []int{p[1].ID, p[2].ID}},
	})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Smashers", teams[0].Name)
	assert.Equal(t, p[1].Name+" / "+p[2].Name, teams[1].Name)

	listed, err := f.rooms.ListTeams(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Len(t, listed[0].Members, 2)
	assert.Equal(t, p[3].Name, listed[0].Members[1].Name)
}

func TestSaveTeams_SingleRoomRejected(t *testing.T) {
	f := newFixture(t, false)
	room, p := f.newRoom(t, CreateRoomInput{}, 2)

	_, err := f.rooms.SaveTeams(context.Background(), room.ID, []TeamInput{{MemberIDs: participantIDs(p)}})
	assert.ErrorIs(t, err, ErrInvalidTeamSetup)
}

func TestAutoAssignTeams(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	room, p := f.newRoom(t, CreateRoomInput{GameType: ptr(models.GameTypeDouble)}, 5)

	teams, err := f.rooms.AutoAssignTeams(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	assert.Len(t, teams[2].MemberIDs, 1)

	assigned := []int{}
	for _, team := range teams {
		assigned = append(assigned, team.MemberIDs...)
	}
	assert.ElementsMatch(t, participantIDs(p), assigned)

	_, err = f.rooms.AddParticipant(ctx, room.ID, AddParticipantInput{Name: "Latecomer"})
	require.NoError(t, err)
	listed, err := f.rooms.ListTeams(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAutoAssignTeams_NeedsTwoParticipants(t *testing.T) {
	f := newFixture(t, false)
	room, _ := f.newRoom(t, CreateRoomInput{GameType: ptr(models.GameTypeTeam)}, 1)

	_, err := f.rooms.AutoAssignTeams(context.Background(), room.ID)
	assert.ErrorIs(t, err, ErrInsufficientEntrants)
}
