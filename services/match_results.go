package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/pingpong-league/brackets"
	"github.com/Dosada05/pingpong-league/models"
	"github.com/Dosada05/pingpong-league/repositories"
)

type ResultInput struct {
	MatchID int `json:"match_id"`
	Score1  int `json:"score1"`
	Score2  int `json:"score2"`
}

// GridResultInput is a score entered into a cross-table cell: RowScore
// belongs to the row competitor, ColumnScore to its opponent.
type GridResultInput struct {
	MatchID         int `json:"match_id"`
	RowCompetitorID int `json:"row_competitor_id"`
	RowScore        int `json:"row_score"`
	ColumnScore     int `json:"column_score"`
}

func validateScores(score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return ErrNegativeScore
	}
	if score1 == score2 {
		return fmt.Errorf("%w: got %d-%d", ErrDrawNotAllowed, score1, score2)
	}
	return nil
}

func (s *tournamentService) RecordMatchResult(ctx context.Context, matchID int, score1, score2 int) (*models.Match, error) {
	if err := validateScores(score1, score2); err != nil {
		return nil, err
	}

	match, err := s.repos.Matches.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}

	results, err := s.recordResults(ctx, match.RoomID, []ResultInput{{MatchID: matchID, Score1: score1, Score2: score2}})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (s *tournamentService) BulkRecordResults(ctx context.Context, roomID int, results []ResultInput) ([]*models.Match, error) {
	if len(results) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, r := range results {
		if err := validateScores(r.Score1, r.Score2); err != nil {
			return nil, fmt.Errorf("match %d: %w", r.MatchID, err)
		}
	}
	return s.recordResults(ctx, roomID, results)
}

func (s *tournamentService) RecordGridResults(ctx context.Context, roomID int, cells []GridResultInput) ([]*models.Match, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyBatch
	}

	var (
		updated []*models.Match
		room    *models.Room
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var (
			matches []*models.Match
			err     error
		)
		room, matches, err = s.lockPlayableRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}

		byID := indexMatches(matches)
		results := make([]ResultInput, 0, len(cells))
		for _, cell := range cells {
			match, ok := byID[cell.MatchID]
			if !ok {
				return fmt.Errorf("%w: match %d", ErrMatchNotFound, cell.MatchID)
			}
			result, err := orientGridResult(match, cell)
			if err != nil {
				return err
			}
			if err := validateScores(result.Score1, result.Score2); err != nil {
				return fmt.Errorf("match %d: %w", cell.MatchID, err)
			}
			results = append(results, result)
		}

		updated, err = s.applyResults(ctx, exec, room, matches, results)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterResults(room, updated)
	return updated, nil
}

// orientGridResult maps a row-perspective score onto the match's slots.
func orientGridResult(match *models.Match, cell GridResultInput) (ResultInput, error) {
	result := ResultInput{MatchID: match.ID}
	switch {
	case match.Competitor1ID != nil && *match.Competitor1ID == cell.RowCompetitorID:
		result.Score1, result.Score2 = cell.RowScore, cell.ColumnScore
	case match.Competitor2ID != nil && *match.Competitor2ID == cell.RowCompetitorID:
		result.Score1, result.Score2 = cell.ColumnScore, cell.RowScore
	default:
		return result, fmt.Errorf("%w: competitor %d, match %d", ErrGridCompetitor, cell.RowCompetitorID, match.ID)
	}
	return result, nil
}

func (s *tournamentService) recordResults(ctx context.Context, roomID int, results []ResultInput) ([]*models.Match, error) {
	var (
		updated []*models.Match
		room    *models.Room
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var (
			matches []*models.Match
			err     error
		)
		room, matches, err = s.lockPlayableRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}
		updated, err = s.applyResults(ctx, exec, room, matches, results)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterResults(room, updated)
	return updated, nil
}

// lockPlayableRoom locks an in-progress room and loads its matches in
// creation order.
func (s *tournamentService) lockPlayableRoom(ctx context.Context, exec repositories.SQLExecutor, roomID int) (*models.Room, []*models.Match, error) {
	room, err := lockRoom(ctx, s.repos.Rooms, exec, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room.Status != models.RoomStatusInProgress {
		return nil, nil, ErrRoomNotInProgress
	}
	matches, err := s.repos.Matches.ListByRoom(ctx, exec, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load matches: %w", err)
	}
	return room, matches, nil
}

func indexMatches(matches []*models.Match) map[int]*models.Match {
	byID := make(map[int]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	return byID
}

// applyResults completes each match in order and, for a round-robin room,
// closes the room once no group match is left pending.
func (s *tournamentService) applyResults(ctx context.Context, exec repositories.SQLExecutor, room *models.Room, matches []*models.Match, results []ResultInput) ([]*models.Match, error) {
	byID := indexMatches(matches)
	updated := make([]*models.Match, 0, len(results))
	for _, r := range results {
		match, ok := byID[r.MatchID]
		if !ok {
			return nil, fmt.Errorf("%w: match %d", ErrMatchNotFound, r.MatchID)
		}
		if match.IsCompleted() {
			return nil, fmt.Errorf("%w: match %d", ErrMatchAlreadyCompleted, match.ID)
		}

		match.Complete(r.Score1, r.Score2)
		if err := s.repos.Matches.UpdateResult(ctx, exec, match); err != nil {
			if errors.Is(err, repositories.ErrMatchNotPending) {
				return nil, fmt.Errorf("%w: match %d", ErrMatchAlreadyCompleted, match.ID)
			}
			return nil, fmt.Errorf("failed to store result of match %d: %w", match.ID, err)
		}
		updated = append(updated, match)
	}

	if room.MatchFormat.HasBracket() {
		return updated, nil
	}

	if countPending(groupMatches(matches)) > 0 {
		return updated, nil
	}
	if err := s.repos.Rooms.UpdateStatus(ctx, exec, room.ID, models.RoomStatusCompleted); err != nil {
		return nil, err
	}
	room.Status = models.RoomStatusCompleted
	return updated, nil
}

func (s *tournamentService) afterResults(room *models.Room, updated []*models.Match) {
	for _, m := range updated {
		s.recorder.MatchResultRecorded(stageOf(m))
	}
	s.logger.Debug().Int("room_id", room.ID).Int("results", len(updated)).Msg("match results recorded")

	if room.Status == models.RoomStatusCompleted {
		s.recorder.RoomCompleted(string(room.MatchFormat))
		s.logger.Info().Int("room_id", room.ID).Msg("round robin completed")
	}
}

func (s *tournamentService) SimulateGroupStage(ctx context.Context, roomID int) ([]*models.Match, error) {
	return s.simulateMatches(ctx, roomID, func(room *models.Room, matches []*models.Match) ([]*models.Match, error) {
		return groupMatches(matches), nil
	})
}

func (s *tournamentService) SimulateBracketRound(ctx context.Context, roomID int) ([]*models.Match, error) {
	return s.simulateMatches(ctx, roomID, func(room *models.Room, matches []*models.Match) ([]*models.Match, error) {
		if !room.MatchFormat.HasBracket() {
			return nil, ErrFormatHasNoBracket
		}
		bracket := bracketMatches(matches)
		round := brackets.LatestRound(bracket)
		if round == 0 {
			return nil, ErrNoBracketRound
		}
		return brackets.RoundMatches(bracket, round), nil
	})
}

// simulateMatches fills every pending match picked by selectFn with a random
// 3-x score.
func (s *tournamentService) simulateMatches(ctx context.Context, roomID int, selectFn func(*models.Room, []*models.Match) ([]*models.Match, error)) ([]*models.Match, error) {
	if !s.simulate {
		return nil, ErrSimulationDisabled
	}

	var (
		updated []*models.Match
		room    *models.Room
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var (
			matches []*models.Match
			err     error
		)
		room, matches, err = s.lockPlayableRoom(ctx, exec, roomID)
		if err != nil {
			return err
		}
		selected, err := selectFn(room, matches)
		if err != nil {
			return err
		}

		results := make([]ResultInput, 0, len(selected))
		for _, m := range selected {
			if m.IsCompleted() {
				continue
			}
			score1, score2 := s.rand.score()
			results = append(results, ResultInput{MatchID: m.ID, Score1: score1, Score2: score2})
		}
		updated, err = s.applyResults(ctx, exec, room, matches, results)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterResults(room, updated)
	return updated, nil
}
