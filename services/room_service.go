package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

type RoomService interface {
	CreateRoom(ctx context.Context, input CreateRoomInput) (*models.Room, error)
	GetRoom(ctx context.Context, id int) (*models.Room, error)
	ListRooms(ctx context.Context, filter repositories.ListRoomsFilter) ([]*models.Room, error)
	UpdateRoom(ctx context.Context, id int, input UpdateRoomInput) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int) error

	AddParticipant(ctx context.Context, roomID int, input AddParticipantInput) (*models.Participant, error)
	ListParticipants(ctx context.Context, roomID int) ([]*models.Participant, error)
	RemoveParticipant(ctx context.Context, roomID, participantID int) error
	AddParticipantsBulk(ctx context.Context, roomID int, names []string) (*BulkAddResult, error)
	ClearParticipants(ctx context.Context, roomID int) (int, error)

	ListTeams(ctx context.Context, roomID int) ([]*models.Team, error)
	SaveTeams(ctx context.Context, roomID int, teams []TeamInput) ([]*models.Team, error)
	AutoAssignTeams(ctx context.Context, roomID int) ([]*models.Team, error)
}

type CreateRoomInput struct {
	Title             string                `json:"title"`
	GameType          *models.GameType      `json:"game_type,omitempty"`
	MatchFormat       *models.MatchFormat   `json:"match_format,omitempty"`
	RankingMode       *models.RankingMode   `json:"ranking_mode,omitempty"`
	BracketLayout     *models.BracketLayout `json:"bracket_layout,omitempty"`
	PlayersPerGroup   *int                  `json:"players_per_group,omitempty"`
	AdvancingPerGroup *int                  `json:"advancing_per_group,omitempty"`
	TeamSize          *int                  `json:"team_size,omitempty"`
	MaxParticipants   *int                  `json:"max_participants,omitempty"`
}

type UpdateRoomInput struct {
	Title             *string               `json:"title,omitempty"`
	GameType          *models.GameType      `json:"game_type,omitempty"`
	MatchFormat       *models.MatchFormat   `json:"match_format,omitempty"`
	RankingMode       *models.RankingMode   `json:"ranking_mode,omitempty"`
	BracketLayout     *models.BracketLayout `json:"bracket_layout,omitempty"`
	PlayersPerGroup   *int                  `json:"players_per_group,omitempty"`
	AdvancingPerGroup *int                  `json:"advancing_per_group,omitempty"`
	TeamSize          *int                  `json:"team_size,omitempty"`
	MaxParticipants   *int                  `json:"max_participants,omitempty"`
}

type AddParticipantInput struct {
	Name        string  `json:"name"`
	ExternalRef *string `json:"external_ref,omitempty"`
}

// BulkAddResult lists the names that joined and those that were turned away.
type BulkAddResult struct {
	Added  []*models.Participant `json:"added"`
	Failed []BulkAddFailure      `json:"failed"`
}

type BulkAddFailure struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

const (
	bulkReasonDuplicate = "name already registered in the room"
	bulkReasonFull      = "room is full"
)

type TeamInput struct {
	Name      string `json:"name"`
	MemberIDs []int  `json:"member_ids"`
}

// RoomDefaults are applied to settings a new room leaves unset.
type RoomDefaults struct {
	PlayersPerGroup   int
	AdvancingPerGroup int
}

type roomService struct {
	tx       Transactor
	repos    Repositories
	defaults RoomDefaults
	rand     *lockedRand
	logger   zerolog.Logger
}

func NewRoomService(tx Transactor, repos Repositories, defaults RoomDefaults, rng *rand.Rand, logger zerolog.Logger) RoomService {
	if defaults.PlayersPerGroup == 0 {
		defaults.PlayersPerGroup = 4
	}
	if defaults.AdvancingPerGroup == 0 {
		defaults.AdvancingPerGroup = 2
	}
	return &roomService{
		tx:       tx,
		repos:    repos,
		defaults: defaults,
		rand:     newLockedRand(rng),
		logger:   logger.With().Str("service", "room").Logger(),
	}
}

func (s *roomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*models.Room, error) {
	room := &models.Room{
		Title:             strings.TrimSpace(input.Title),
		GameType:          models.GameTypeSingle,
		MatchFormat:       models.MatchFormatPreliminaryTournament,
		RankingMode:       models.RankingByPoints,
		BracketLayout:     models.BracketLayoutStandard,
		PlayersPerGroup:   s.defaults.PlayersPerGroup,
		AdvancingPerGroup: s.defaults.AdvancingPerGroup,
		Status:            models.RoomStatusOpen,
	}
	applyRoomSettings(room, UpdateRoomInput{
		GameType:          input.GameType,
		MatchFormat:       input.MatchFormat,
		RankingMode:       input.RankingMode,
		BracketLayout:     input.BracketLayout,
		PlayersPerGroup:   input.PlayersPerGroup,
		AdvancingPerGroup: input.AdvancingPerGroup,
		TeamSize:          input.TeamSize,
		MaxParticipants:   input.MaxParticipants,
	})
	if err := validateRoom(room); err != nil {
		return nil, err
	}

	if err := s.repos.Rooms.Create(ctx, nil, room); err != nil {
		if errors.Is(err, repositories.ErrRoomInvalidValue) {
			return nil, fmt.Errorf("%w: %v", ErrRoomSettingInvalid, err)
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	s.logger.Info().Int("room_id", room.ID).Str("game_type", string(room.GameType)).Msg("room created")
	return room, nil
}

func (s *roomService) GetRoom(ctx context.Context, id int) (*models.Room, error) {
	return getRoom(ctx, s.repos.Rooms, nil, id)
}

func (s *roomService) ListRooms(ctx context.Context, filter repositories.ListRoomsFilter) ([]*models.Room, error) {
	rooms, err := s.repos.Rooms.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *roomService) UpdateRoom(ctx context.Context, id int, input UpdateRoomInput) (*models.Room, error) {
	var room *models.Room
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		room, err = lockRoom(ctx, s.repos.Rooms, exec, id)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}

		wasTeamBased := room.GameType.IsTeamBased()
		previousTeamSize := room.TeamSize
		if input.Title != nil {
			room.Title = strings.TrimSpace(*input.Title)
		}
		applyRoomSettings(room, input)
		if err := validateRoom(room); err != nil {
			return err
		}

		if wasTeamBased && (!room.GameType.IsTeamBased() || room.TeamSize != previousTeamSize) {
			if err := s.repos.Teams.DeleteByRoom(ctx, exec, room.ID); err != nil {
				return err
			}
		}
		return s.repos.Rooms.Update(ctx, exec, room)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, id int) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, id)
		if err != nil {
			return err
		}
		if room.Status == models.RoomStatusInProgress {
			return ErrRoomInProgress
		}
		return s.repos.Rooms.Delete(ctx, exec, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("room_id", id).Msg("room deleted")
	return nil
}

func (s *roomService) AddParticipant(ctx context.Context, roomID int, input AddParticipantInput) (*models.Participant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrParticipantNameEmpty
	}

	participant := &models.Participant{RoomID: roomID, Name: name, ExternalRef: input.ExternalRef}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}

		if room.MaxParticipants > 0 {
			count, err := s.repos.Participants.CountByRoom(ctx, exec, roomID)
			if err != nil {
				return err
			}
			if count >= room.MaxParticipants {
				return fmt.Errorf("%w: limit is %d", ErrRoomFull, room.MaxParticipants)
			}
		}

		if err := s.repos.Participants.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrParticipantConflict
			}
			return err
		}
		return s.invalidateTeams(ctx, exec, room)
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *roomService) ListParticipants(ctx context.Context, roomID int) ([]*models.Participant, error) {
	if _, err := getRoom(ctx, s.repos.Rooms, nil, roomID); err != nil {
		return nil, err
	}
	return s.repos.Participants.ListByRoom(ctx, nil, roomID)
}

func (s *roomService) RemoveParticipant(ctx context.Context, roomID, participantID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}
		if err := s.repos.Participants.Delete(ctx, exec, roomID, participantID); err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return ErrParticipantNotFound
			}
			return err
		}
		return s.invalidateTeams(ctx, exec, room)
	})
}

// AddParticipantsBulk registers every non-blank name in one transaction.
// Names that are already taken or do not fit under the room limit are
// reported as failures instead of aborting the batch.
func (s *roomService) AddParticipantsBulk(ctx context.Context, roomID int, names []string) (*BulkAddResult, error) {
	if len(names) == 0 {
		return nil, ErrNoParticipantNames
	}

	result := &BulkAddResult{Added: []*models.Participant{}, Failed: []BulkAddFailure{}}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}

		existing, err := s.repos.Participants.ListByRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}
		taken := make(map[string]struct{}, len(existing)+len(names))
		for _, p := range existing {
			taken[p.Name] = struct{}{}
		}
		count := len(existing)

		for _, raw := range names {
			name := strings.TrimSpace(raw)
			if name == "" {
				continue
			}
			if _, dup := taken[name]; dup {
				result.Failed = append(result.Failed, BulkAddFailure{Identifier: name, Reason: bulkReasonDuplicate})
				continue
			}
			if room.MaxParticipants > 0 && count >= room.MaxParticipants {
				result.Failed = append(result.Failed, BulkAddFailure{Identifier: name, Reason: bulkReasonFull})
				continue
			}

			participant := &models.Participant{RoomID: roomID, Name: name}
			if err := s.repos.Participants.Create(ctx, exec, participant); err != nil {
				if errors.Is(err, repositories.ErrParticipantConflict) {
					return ErrParticipantConflict
				}
				return err
			}
			taken[name] = struct{}{}
			count++
			result.Added = append(result.Added, participant)
		}

		if len(result.Added) == 0 {
			return nil
		}
		return s.invalidateTeams(ctx, exec, room)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("room_id", roomID).
		Int("added", len(result.Added)).
		Int("failed", len(result.Failed)).
		Msg("participants added in bulk")
	return result, nil
}

// ClearParticipants empties the roster of an open room and returns how many
// participants were removed. Teams go with it.
func (s *roomService) ClearParticipants(ctx context.Context, roomID int) (int, error) {
	var removed int
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}
		if err := s.repos.Teams.DeleteByRoom(ctx, exec, roomID); err != nil {
			return err
		}
		removed, err = s.repos.Participants.DeleteByRoom(ctx, exec, roomID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("room_id", roomID).Int("removed", removed).Msg("participants cleared")
	return removed, nil
}

// invalidateTeams drops formed teams once the roster of a team room changes.
func (s *roomService) invalidateTeams(ctx context.Context, exec repositories.SQLExecutor, room *models.Room) error {
	if !room.GameType.IsTeamBased() {
		return nil
	}
	if err := s.repos.Teams.DeleteByRoom(ctx, exec, room.ID); err != nil {
		return err
	}
	s.logger.Debug().Int("room_id", room.ID).Msg("roster changed, teams cleared")
	return nil
}

func (s *roomService) ListTeams(ctx context.Context, roomID int) ([]*models.Team, error) {
	if _, err := getRoom(ctx, s.repos.Rooms, nil, roomID); err != nil {
		return nil, err
	}
	teams, err := s.repos.Teams.ListByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repos.Participants.ListByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, err
	}
	attachMembers(teams, participants)
	return teams, nil
}

func (s *roomService) SaveTeams(ctx context.Context, roomID int, input []TeamInput) ([]*models.Team, error) {
	var teams []*models.Team
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, participants, err := s.lockTeamRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if err := validateTeams(input, participants, room.TeamSize); err != nil {
			return err
		}

		byID := participantIndex(participants)
		teams = make([]*models.Team, 0, len(input))
		for _, ti := range input {
			members := make([]*models.Participant, 0, len(ti.MemberIDs))
			for _, id := range ti.MemberIDs {
				members = append(members, byID[id])
			}
			name := strings.TrimSpace(ti.Name)
			if name == "" {
				name = teamName(members)
			}
			teams = append(teams, &models.Team{RoomID: roomID, Name: name, MemberIDs: slices.Clone(ti.MemberIDs)})
		}
		return s.replaceTeams(ctx, exec, roomID, teams)
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *roomService) AutoAssignTeams(ctx context.Context, roomID int) ([]*models.Team, error) {
	var teams []*models.Team
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, participants, err := s.lockTeamRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}
		if len(participants) < 2 {
			return ErrNotEnoughCompetitors
		}

		ids := make([]int, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.ID)
		}
		shuffled := s.rand.shuffle(ids)

		byID := participantIndex(participants)
		teams = make([]*models.Team, 0, (len(shuffled)+room.TeamSize-1)/room.TeamSize)
		for start := 0; start < len(shuffled); start += room.TeamSize {
			chunk := shuffled[start:min(start+room.TeamSize, len(shuffled))]
			members := make([]*models.Participant, 0, len(chunk))
			for _, id := range chunk {
				members = append(members, byID[id])
			}
			teams = append(teams, &models.Team{RoomID: roomID, Name: teamName(members), MemberIDs: slices.Clone(chunk)})
		}
		return s.replaceTeams(ctx, exec, roomID, teams)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("room_id", roomID).Int("teams", len(teams)).Msg("teams assigned automatically")
	return teams, nil
}

func (s *roomService) lockTeamRoom(ctx context.Context, exec repositories.SQLExecutor, roomID int) (*models.Room, []*models.Participant, error) {
	room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.Status != models.RoomStatusOpen {
		return nil, nil, ErrRoomNotOpen
	}
	if !room.GameType.IsTeamBased() {
		return nil, nil, fmt.Errorf("%w: game type %s does not use teams", ErrInvalidTeamSetup, room.GameType)
	}
	participants, err := s.repos.Participants.ListByRoom(ctx, exec, roomID)
	if err != nil {
		return nil, nil, err
	}
	return room, participants, nil
}

func (s *roomService) replaceTeams(ctx context.Context, exec repositories.SQLExecutor, roomID int, teams []*models.Team) error {
	if err := s.repos.Teams.DeleteByRoom(ctx, exec, roomID); err != nil {
		return err
	}
	for _, team := range teams {
		if err := s.repos.Teams.Create(ctx, exec, team); err != nil {
			return err
		}
	}
	return nil
}

func applyRoomSettings(room *models.Room, input UpdateRoomInput) {
	if input.GameType != nil {
		room.GameType = *input.GameType
	}
	if input.MatchFormat != nil {
		room.MatchFormat = *input.MatchFormat
	}
	if input.RankingMode != nil {
		room.RankingMode = *input.RankingMode
	}
	if input.BracketLayout != nil {
		room.BracketLayout = *input.BracketLayout
	}
	if input.PlayersPerGroup != nil {
		room.PlayersPerGroup = *input.PlayersPerGroup
	}
	if input.AdvancingPerGroup != nil {
		room.AdvancingPerGroup = *input.AdvancingPerGroup
	}
	if input.MaxParticipants != nil {
		room.MaxParticipants = *input.MaxParticipants
	}
	if input.TeamSize != nil {
		room.TeamSize = *input.TeamSize
	}

	switch {
	case !room.GameType.IsTeamBased():
		room.TeamSize = 1
	case room.TeamSize <= 1 && input.TeamSize == nil:
		room.TeamSize = models.DefaultTeamSize
	}
}

func validateRoom(room *models.Room) error {
	if room.Title == "" {
		return ErrRoomTitleRequired
	}
	if !room.GameType.Valid() {
		return fmt.Errorf("%w: game type %q", ErrRoomSettingInvalid, room.GameType)
	}
	if !room.MatchFormat.Valid() {
		return fmt.Errorf("%w: match format %q", ErrRoomSettingInvalid, room.MatchFormat)
	}
	if !room.RankingMode.Valid() {
		return fmt.Errorf("%w: ranking mode %q", ErrRoomSettingInvalid, room.RankingMode)
	}
	if !room.BracketLayout.Valid() {
		return fmt.Errorf("%w: bracket layout %q", ErrRoomSettingInvalid, room.BracketLayout)
	}
	if room.PlayersPerGroup < 2 {
		return fmt.Errorf("%w: got %d", ErrGroupSizeTooSmall, room.PlayersPerGroup)
	}
	if room.MatchFormat.HasBracket() && room.AdvancingPerGroup < 1 {
		return fmt.Errorf("%w: got %d", ErrAdvancingCountInvalid, room.AdvancingPerGroup)
	}
	if room.GameType.IsTeamBased() && room.TeamSize < 2 {
		return fmt.Errorf("%w: got %d", ErrTeamSizeInvalid, room.TeamSize)
	}
	if room.MaxParticipants < 0 {
		return fmt.Errorf("%w: max participants must not be negative", ErrRoomSettingInvalid)
	}
	return nil
}

// validateTeams checks a manual assignment: exact team size, members from the
// room, nobody twice, nobody left out.
func validateTeams(teams []TeamInput, participants []*models.Participant, teamSize int) error {
	if len(teams) == 0 {
		return fmt.Errorf("%w: no teams given", ErrInvalidTeamSetup)
	}
	byID := participantIndex(participants)
	assigned := make(map[int]bool, len(participants))

	for i, team := range teams {
		if len(team.MemberIDs) != teamSize {
			return fmt.Errorf("%w: team %d has %d members, expected %d", ErrInvalidTeamSetup, i+1, len(team.MemberIDs), teamSize)
		}
		for _, id := range team.MemberIDs {
			if _, ok := byID[id]; !ok {
				return fmt.Errorf("%w: participant %d is not in the room", ErrInvalidTeamSetup, id)
			}
			if assigned[id] {
				return fmt.Errorf("%w: participant %d is assigned twice", ErrInvalidTeamSetup, id)
			}
			assigned[id] = true
		}
	}

	if len(assigned) != len(participants) {
		return fmt.Errorf("%w: %d of %d participants are unassigned", ErrInvalidTeamSetup, len(participants)-len(assigned), len(participants))
	}
	return nil
}

func participantIndex(participants []*models.Participant) map[int]*models.Participant {
	byID := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	return byID
}

func attachMembers(teams []*models.Team, participants []*models.Participant) {
	byID := participantIndex(participants)
	for _, team := range teams {
		team.Members = make([]models.Participant, 0, len(team.MemberIDs))
		for _, id := range team.MemberIDs {
			if p, ok := byID[id]; ok {
				team.Members = append(team.Members, *p)
			}
		}
	}
}
