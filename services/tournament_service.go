package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/metrics"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

// TournamentService drives a room through its stages: group stage, optional
// elimination bracket, completion.
type TournamentService interface {
	GenerateGroupStage(ctx context.Context, roomID int) ([]*GroupDetail, error)
	RecordMatchResult(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error)
	BulkRecordResults(ctx context.Context, roomID int, results []ResultInput) ([]*models.Match, error)
	RecordGridResults(ctx context.Context, roomID int, results []GridResultInput) ([]*models.Match, error)

	ComputeStandings(ctx context.Context, groupID int, mode *models.RankingMode) ([]*models.Standing, error)
	GetGroupDetail(ctx context.Context, groupID int, mode *models.RankingMode) (*GroupDetail, error)
	GetGroupStage(ctx context.Context, roomID int) ([]*GroupDetail, error)
	ListMatches(ctx context.Context, roomID int) ([]*models.Match, error)

	AdvanceToFinals(ctx context.Context, roomID int) (*BracketStart, error)
	AdvanceBracketRound(ctx context.Context, roomID int) (*RoundAdvance, error)
	GetBracket(ctx context.Context, roomID int) (*brackets.BracketView, error)
	GetFinalResult(ctx context.Context, roomID int) (*models.FinalResult, error)

	ResetRoom(ctx context.Context, roomID int) error
	SimulateGroupStage(ctx context.Context, roomID int) ([]*models.Match, error)
	SimulateBracketRound(ctx context.Context, roomID int) ([]*models.Match, error)
}

// BracketStart is the first bracket round created by AdvanceToFinals.
type BracketStart struct {
	Size    int             `json:"size"`
	Byes    int             `json:"byes"`
	Seeds   []brackets.Seed `json:"seeds"`
	Matches []*models.Match `json:"matches"`
}

// RoundAdvance reports either the next round's matches or the champion.
type RoundAdvance struct {
	ClosedRound int             `json:"closed_round"`
	Round       int             `json:"round,omitempty"`
	Matches     []*models.Match `json:"matches,omitempty"`
	ChampionID  *int            `json:"champion_id,omitempty"`
	Completed   bool            `json:"completed"`
}

type TournamentServiceConfig struct {
	AllowSimulation bool
	// Rand shuffles entrants and produces simulated scores. Nil means a
	// randomly seeded source.
	Rand *rand.Rand
}

type tournamentService struct {
	tx       Transactor
	repos    Repositories
	recorder metrics.Recorder
	logger   zerolog.Logger
	rand     *lockedRand
	simulate bool
	bracket  *brackets.SingleEliminationGenerator
}

func NewTournamentService(tx Transactor, repos Repositories, recorder metrics.Recorder, logger zerolog.Logger, cfg TournamentServiceConfig) TournamentService {
	if recorder == nil {
		recorder = metrics.NoOp{}
	}
	return &tournamentService{
		tx:       tx,
		repos:    repos,
		recorder: recorder,
		logger:   logger.With().Str("service", "tournament").Logger(),
		rand:     newLockedRand(cfg.Rand),
		simulate: cfg.AllowSimulation,
		bracket:  brackets.NewSingleEliminationGenerator(),
	}
}

// roomSnapshot is everything the engine needs to reason about one room.
type roomSnapshot struct {
	room    *models.Room
	groups  []*models.Group
	matches []*models.Match
	roster  brackets.Roster
}

// loadSnapshot reads a room with its groups, matches and roster. Without an
// executor the reads run in parallel on the pool; inside a transaction they
// run one after another on the transaction's connection and the room row is
// locked first.
func loadSnapshot(ctx context.Context, repos Repositories, exec repositories.SQLExecutor, roomID int) (*roomSnapshot, error) {
	snap := &roomSnapshot{}

	if exec != nil {
		var err error
		if snap.room, err = lockRoom(ctx, repos.Rooms, exec, roomID); err != nil {
			return nil, err
		}
		if snap.groups, err = repos.Groups.ListByRoom(ctx, exec, roomID); err != nil {
			return nil, fmt.Errorf("failed to load groups: %w", err)
		}
		if snap.matches, err = repos.Matches.ListByRoom(ctx, exec, roomID); err != nil {
			return nil, fmt.Errorf("failed to load matches: %w", err)
		}
		if snap.roster, _, err = loadRoster(ctx, repos, exec, snap.room); err != nil {
			return nil, err
		}
		return snap, nil
	}

	room, err := getRoom(ctx, repos.Rooms, nil, roomID)
	if err != nil {
		return nil, err
	}
	snap.room = room

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := repos.Groups.ListByRoom(gctx, nil, roomID)
		if err != nil {
			return fmt.Errorf("failed to load groups: %w", err)
		}
		snap.groups = groups
		return nil
	})
	g.Go(func() error {
		matches, err := repos.Matches.ListByRoom(gctx, nil, roomID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		snap.matches = matches
		return nil
	})
	g.Go(func() error {
		roster, _, err := loadRoster(gctx, repos, nil, room)
		if err != nil {
			return err
		}
		snap.roster = roster
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *tournamentService) GenerateGroupStage(ctx context.Context, roomID int) ([]*GroupDetail, error) {
	var (
		details  []*GroupDetail
		gameType models.GameType
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		gameType = room.GameType
		if room.Status != models.RoomStatusOpen {
			return ErrRoomNotOpen
		}
		if room.PlayersPerGroup < 2 {
			return fmt.Errorf("%w: got %d", ErrGroupSizeTooSmall, room.PlayersPerGroup)
		}

		roster, ids, err := loadRoster(ctx, s.repos, exec, room)
		if err != nil {
			return err
		}
		if room.GameType.IsTeamBased() && len(ids) == 0 {
			return ErrTeamsNotAssigned
		}

		scheduler := brackets.NewRoundRobinScheduler(room.PlayersPerGroup)
		schedules, err := scheduler.Schedule(s.rand.shuffle(ids))
		if err != nil {
			return translateEngineError(err)
		}

		details = make([]*GroupDetail, 0, len(schedules))
		for _, schedule := range schedules {
			group := &models.Group{RoomID: roomID, Name: schedule.Name}
			if err := s.repos.Groups.Create(ctx, exec, group); err != nil {
				return fmt.Errorf("failed to create group %s: %w", schedule.Name, err)
			}

			matches := make([]*models.Match, 0, len(schedule.Pairings))
			for _, pairing := range schedule.Pairings {
				match := pairing.ToMatch(roomID, models.IntPtr(group.ID))
				if err := s.repos.Matches.Create(ctx, exec, match); err != nil {
					return fmt.Errorf("failed to create match in group %s: %w", schedule.Name, err)
				}
				matches = append(matches, match)
			}
			details = append(details, buildGroupDetail(group, matches, roster, room.RankingMode))
		}

		return s.repos.Rooms.UpdateStatus(ctx, exec, roomID, models.RoomStatusInProgress)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.GroupStageGenerated(string(gameType), len(details))
	s.logger.Info().Int("room_id", roomID).Int("groups", len(details)).Msg("group stage generated")
	return details, nil
}

func (s *tournamentService) AdvanceToFinals(ctx context.Context, roomID int) (*BracketStart, error) {
	var start *BracketStart
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		snap, err := loadSnapshot(ctx, s.repos, exec, roomID)
		if err != nil {
			return err
		}
		room := snap.room
		if room.Status != models.RoomStatusInProgress {
			return ErrRoomNotInProgress
		}
		if !room.MatchFormat.HasBracket() {
			return ErrFormatHasNoBracket
		}
		if room.AdvancingPerGroup < 1 {
			return fmt.Errorf("%w: got %d", ErrAdvancingCountInvalid, room.AdvancingPerGroup)
		}
		if len(bracketMatches(snap.matches)) > 0 {
			return ErrFinalsAlreadyStarted
		}

		played := groupMatches(snap.matches)
		if pending := countPending(played); pending > 0 {
			return fmt.Errorf("%w: %d pending", ErrGroupStageIncomplete, pending)
		}
		if len(played) == 0 {
			return ErrNoGroupMatches
		}

		seeds := brackets.QualifyFinalists(snap.groups, snap.matches, snap.roster, room.RankingMode, room.AdvancingPerGroup)
		ids := make([]int, 0, len(seeds))
		for _, seed := range seeds {
			ids = append(ids, seed.CompetitorID)
		}

		bracket, err := s.bracket.Build(ids)
		if err != nil {
			if errors.Is(err, brackets.ErrInsufficientEntrants) {
				return fmt.Errorf("%w: found %d", ErrNotEnoughFinalists, len(ids))
			}
			return translateEngineError(err)
		}

		matches, err := s.createPairings(ctx, exec, roomID, bracket.Pairings)
		if err != nil {
			return err
		}
		start = &BracketStart{Size: bracket.Size, Byes: bracket.Byes, Seeds: seeds, Matches: matches}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("room_id", roomID).
		Int("bracket_size", start.Size).
		Int("byes", start.Byes).
		Msg("elimination bracket created")
	return start, nil
}

func (s *tournamentService) createPairings(ctx context.Context, exec repositories.SQLExecutor, roomID int, pairings []*brackets.Pairing) ([]*models.Match, error) {
	matches := make([]*models.Match, 0, len(pairings))
	for _, pairing := range pairings {
		match := pairing.ToMatch(roomID, nil)
		if err := s.repos.Matches.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create bracket match for round %d: %w", pairing.Round, err)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (s *tournamentService) AdvanceBracketRound(ctx context.Context, roomID int) (*RoundAdvance, error) {
	var advance *RoundAdvance
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusInProgress {
			return ErrRoomNotInProgress
		}
		if !room.MatchFormat.HasBracket() {
			return ErrFormatHasNoBracket
		}

		matches, err := s.repos.Matches.ListByRoom(ctx, exec, roomID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		outcome, err := s.bracket.AdvanceRound(bracketMatches(matches))
		if err != nil {
			return translateEngineError(err)
		}

		advance = &RoundAdvance{ClosedRound: outcome.Round}
		if outcome.Champion != nil {
			advance.ChampionID = outcome.Champion
			advance.Completed = true
			return s.repos.Rooms.UpdateStatus(ctx, exec, roomID, models.RoomStatusCompleted)
		}

		advance.Round = outcome.Round + 1
		advance.Matches, err = s.createPairings(ctx, exec, roomID, outcome.Pairings)
		return err
	})
	if err != nil {
		return nil, err
	}

	if advance.Completed {
		s.recorder.RoomCompleted(string(models.MatchFormatPreliminaryTournament))
		s.logger.Info().Int("room_id", roomID).Int("champion_id", *advance.ChampionID).Msg("tournament completed")
	} else {
		s.recorder.BracketRoundAdvanced()
		s.logger.Info().Int("room_id", roomID).Int("round", advance.Round).Int("matches", len(advance.Matches)).Msg("bracket round created")
	}
	return advance, nil
}

func (s *tournamentService) ResetRoom(ctx context.Context, roomID int) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusInProgress {
			return ErrRoomNotInProgress
		}
		if err := s.repos.Matches.DeleteByRoom(ctx, exec, roomID); err != nil {
			return err
		}
		if err := s.repos.Groups.DeleteByRoom(ctx, exec, roomID); err != nil {
			return err
		}
		return s.repos.Rooms.UpdateStatus(ctx, exec, roomID, models.RoomStatusOpen)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("room_id", roomID).Msg("room reset")
	return nil
}

// translateEngineError maps engine sentinels onto service error kinds.
func translateEngineError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrGroupSizeTooSmall):
		return fmt.Errorf("%w: %v", ErrGroupSizeTooSmall, err)
	case errors.Is(err, brackets.ErrInsufficientEntrants):
		return fmt.Errorf("%w: %v", ErrNotEnoughCompetitors, err)
	case errors.Is(err, brackets.ErrNoRound):
		return ErrNoBracketRound
	case errors.Is(err, brackets.ErrRoundIncomplete):
		return fmt.Errorf("%w: %v", ErrRoundIncomplete, err)
	case errors.Is(err, brackets.ErrNoWinners):
		return fmt.Errorf("%w: %v", ErrNoChampion, err)
	default:
		return err
	}
}
