package handlers

import (
	"context"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
	"github.com/Dosada05/pingpong-league/services"
)

type fakeRoomService struct {
	CreateRoomFunc          func(ctx context.Context, input services.CreateRoomInput) (*models.Room, error)
	GetRoomFunc             func(ctx context.Context, id int) (*models.Room, error)
	ListRoomsFunc           func(ctx context.Context, filter repositories.ListRoomsFilter) ([]*models.Room, error)
	UpdateRoomFunc          func(ctx context.Context, id int, input services.UpdateRoomInput) (*models.Room, error)
	DeleteRoomFunc          func(ctx context.Context, id int) error
	AddParticipantFunc      func(ctx context.Context, roomID int, input services.AddParticipantInput) (*models.Participant, error)
	ListParticipantsFunc    func(ctx context.Context, roomID int) ([]*models.Participant, error)
	RemoveParticipantFunc   func(ctx context.Context, roomID, participantID int) error
	AddParticipantsBulkFunc func(ctx context.Context, roomID int, names []string) (*services.BulkAddResult, error)
	ClearParticipantsFunc   func(ctx context.Context, roomID int) (int, error)
	ListTeamsFunc           func(ctx context.Context, roomID int) ([]*models.Team, error)
	SaveTeamsFunc           func(ctx context.Context, roomID int, teams []services.TeamInput) ([]*models.Team, error)
	AutoAssignTeamsFunc     func(ctx context.Context, roomID int) ([]*models.Team, error)
}

func (f *fakeRoomService) CreateRoom(ctx context.Context, input services.CreateRoomInput) (*models.Room, error) {
	return f.CreateRoomFunc(ctx, input)
}

func (f *fakeRoomService) GetRoom(ctx context.Context, id int) (*models.Room, error) {
	return f.GetRoomFunc(ctx, id)
}

func (f *fakeRoomService) ListRooms(ctx context.Context, filter repositories.ListRoomsFilter) ([]*models.Room, error) {
	return f.ListRoomsFunc(ctx, filter)
}

func (f *fakeRoomService) UpdateRoom(ctx context.Context, id int, input services.UpdateRoomInput) (*models.Room, error) {
	return f.UpdateRoomFunc(ctx, id, input)
}

func (f *fakeRoomService) DeleteRoom(ctx context.Context, id int) error {
	return f.DeleteRoomFunc(ctx, id)
}

func (f *fakeRoomService) AddParticipant(ctx context.Context, roomID int, input services.AddParticipantInput) (*models.Participant, error) {
	return f.AddParticipantFunc(ctx, roomID, input)
}

func (f *fakeRoomService) ListParticipants(ctx context.Context, roomID int) ([]*models.Participant, error) {
	return f.ListParticipantsFunc(ctx, roomID)
}

func (f *fakeRoomService) RemoveParticipant(ctx context.Context, roomID, participantID int) error {
	return f.RemoveParticipantFunc(ctx, roomID, participantID)
}

func (f *fakeRoomService) AddParticipantsBulk(ctx context.Context, roomID int, names []string) (*services.BulkAddResult, error) {
	return f.AddParticipantsBulkFunc(ctx, roomID, names)
}

func (f *fakeRoomService) ClearParticipants(ctx context.Context, roomID int) (int, error) {
	return f.ClearParticipantsFunc(ctx, roomID)
}

func (f *fakeRoomService) ListTeams(ctx context.Context, roomID int) ([]*models.Team, error) {
	return f.ListTeamsFunc(ctx, roomID)
}

func (f *fakeRoomService) SaveTeams(ctx context.Context, roomID int, teams []services.TeamInput) ([]*models.Team, error) {
	return f.SaveTeamsFunc(ctx, roomID, teams)
}

func (f *fakeRoomService) AutoAssignTeams(ctx context.Context, roomID int) ([]*models.Team, error) {
	return f.AutoAssignTeamsFunc(ctx, roomID)
}

type fakeTournamentService struct {
	GenerateGroupStageFunc   func(ctx context.Context, roomID int) ([]*services.GroupDetail, error)
	RecordMatchResultFunc    func(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error)
	BulkRecordResultsFunc    func(ctx context.Context, roomID int, results []services.ResultInput) ([]*models.Match, error)
	RecordGridResultsFunc    func(ctx context.Context, roomID int, results []services.GridResultInput) ([]*models.Match, error)
	ComputeStandingsFunc     func(ctx context.Context, groupID int, mode *models.RankingMode) ([]*models.Standing, error)
	GetGroupDetailFunc       func(ctx context.Context, groupID int, mode *models.RankingMode) (*services.GroupDetail, error)
	GetGroupStageFunc        func(ctx context.Context, roomID int) ([]*services.GroupDetail, error)
	ListMatchesFunc          func(ctx context.Context, roomID int) ([]*models.Match, error)
	AdvanceToFinalsFunc      func(ctx context.Context, roomID int) (*services.BracketStart, error)
	AdvanceBracketRoundFunc  func(ctx context.Context, roomID int) (*services.RoundAdvance, error)
	GetBracketFunc           func(ctx context.Context, roomID int) (*brackets.BracketView, error)
	GetFinalResultFunc       func(ctx context.Context, roomID int) (*models.FinalResult, error)
	ResetRoomFunc            func(ctx context.Context, roomID int) error
	SimulateGroupStageFunc   func(ctx context.Context, roomID int) ([]*models.Match, error)
	SimulateBracketRoundFunc func(ctx context.Context, roomID int) ([]*models.Match, error)
}

func (f *fakeTournamentService) GenerateGroupStage(ctx context.Context, roomID int) ([]*services.GroupDetail, error) {
	return f.GenerateGroupStageFunc(ctx, roomID)
}

func (f *fakeTournamentService) RecordMatchResult(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error) {
	return f.RecordMatchResultFunc(ctx, matchID, score1, score2)
}

func (f *fakeTournamentService) BulkRecordResults(ctx context.Context, roomID int, results []services.ResultInput) ([]*models.Match, error) {
	return f.BulkRecordResultsFunc(ctx, roomID, results)
}

func (f *fakeTournamentService) RecordGridResults(ctx context.Context, roomID int, results []services.GridResultInput) ([]*models.Match, error) {
	return f.RecordGridResultsFunc(ctx, roomID, results)
}

func (f *fakeTournamentService) ComputeStandings(ctx context.Context, groupID int, mode *models.RankingMode) ([]*models.Standing, error) {
	return f.ComputeStandingsFunc(ctx, groupID, mode)
}

func (f *fakeTournamentService) GetGroupDetail(ctx context.Context, groupID int, mode *models.RankingMode) (*services.GroupDetail, error) {
	return f.GetGroupDetailFunc(ctx, groupID, mode)
}

func (f *fakeTournamentService) GetGroupStage(ctx context.Context, roomID int) ([]*services.GroupDetail, error) {
	return f.GetGroupStageFunc(ctx, roomID)
}

func (f *fakeTournamentService) ListMatches(ctx context.Context, roomID int) ([]*models.Match, error) {
	return f.ListMatchesFunc(ctx, roomID)
}

func (f *fakeTournamentService) AdvanceToFinals(ctx context.Context, roomID int) (*services.BracketStart, error) {
	return f.AdvanceToFinalsFunc(ctx, roomID)
}

func (f *fakeTournamentService) AdvanceBracketRound(ctx context.Context, roomID int) (*services.RoundAdvance, error) {
	return f.AdvanceBracketRoundFunc(ctx, roomID)
}

func (f *fakeTournamentService) GetBracket(ctx context.Context, roomID int) (*brackets.BracketView, error) {
	return f.GetBracketFunc(ctx, roomID)
}

func (f *fakeTournamentService) GetFinalResult(ctx context.Context, roomID int) (*models.FinalResult, error) {
	return f.GetFinalResultFunc(ctx, roomID)
}

func (f *fakeTournamentService) ResetRoom(ctx context.Context, roomID int) error {
	return f.ResetRoomFunc(ctx, roomID)
}

func (f *fakeTournamentService) SimulateGroupStage(ctx context.Context, roomID int) ([]*models.Match, error) {
	return f.SimulateGroupStageFunc(ctx, roomID)
}

func (f *fakeTournamentService) SimulateBracketRound(ctx context.Context, roomID int) ([]*models.Match, error) {
	return f.SimulateBracketRoundFunc(ctx, roomID)
}
