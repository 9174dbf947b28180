package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchNotPending   = errors.New("match is not pending")
	ErrMatchRoomInvalid  = errors.New("match room or group reference is invalid")
	ErrMatchInvalidValue = errors.New("match violates a column constraint")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// ListByRoom returns every match of the room in creation order.
	ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Match, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error)
	// UpdateResult stores scores, winner and status of a match that is still pending.
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error
}

type postgresMatchRepository struct {
	baseRepository
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{baseRepository{db: db}}
}

const matchColumns = `
	id, room_id, group_id, round, competitor1_id, competitor2_id,
	score1, score2, status, winner_id, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var groupID, c1, c2, winner sql.NullInt64
	err := row.Scan(
		&m.ID, &m.RoomID, &groupID, &m.Round, &c1, &c2,
		&m.Score1, &m.Score2, &m.Status, &winner, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.GroupID = nullIntPtr(groupID)
	m.Competitor1ID = nullIntPtr(c1)
	m.Competitor2ID = nullIntPtr(c2)
	m.WinnerID = nullIntPtr(winner)
	return m, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.IntPtr(int(v.Int64))
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (
			room_id, group_id, round, competitor1_id, competitor2_id,
			score1, score2, status, winner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.RoomID, match.GroupID, match.Round, match.Competitor1ID, match.Competitor2ID,
		match.Score1, match.Score2, match.Status, match.WinnerID,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)
	if err != nil {
		switch code, _ := pqCode(err); code {
		case pqForeignKeyViolation:
			return ErrMatchRoomInvalid
		case pqCheckViolation:
			return ErrMatchInvalidValue
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE room_id = $1 ORDER BY id`
	return r.queryMatches(ctx, exec, query, roomID)
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY round, id`
	return r.queryMatches(ctx, exec, query, groupID)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET score1 = $1, score2 = $2, winner_id = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.Score1, match.Score2, match.WinnerID, match.Status,
		match.ID, models.MatchStatusPending,
	)
	if err != nil {
		if code, _ := pqCode(err); code == pqCheckViolation {
			return ErrMatchInvalidValue
		}
		return fmt.Errorf("failed to update result of match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

func (r *postgresMatchRepository) DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("failed to delete matches for room %d: %w", roomID, err)
	}
	return nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}
