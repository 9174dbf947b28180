package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
	"github.com/lib/pq"
)

var ErrTeamRoomInvalid = errors.New("team room reference is invalid")

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Team, error)
	DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error
}

type postgresTeamRepository struct {
	baseRepository
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{baseRepository{db: db}}
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (room_id, name, member_ids)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	members := make(pq.Int64Array, 0, len(team.MemberIDs))
	for _, id := range team.MemberIDs {
		members = append(members, int64(id))
	}

	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.RoomID, team.Name, members).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if code, _ := pqCode(err); code == pqForeignKeyViolation {
			return ErrTeamRoomInvalid
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Team, error) {
	query := `
		SELECT id, room_id, name, member_ids, created_at
		FROM teams
		WHERE room_id = $1
		ORDER BY id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for room %d: %w", roomID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		var members pq.Int64Array
		if err := rows.Scan(&team.ID, &team.RoomID, &team.Name, &members, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		team.MemberIDs = make([]int, 0, len(members))
		for _, id := range members {
			team.MemberIDs = append(team.MemberIDs, int(id))
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("failed to delete teams for room %d: %w", roomID, err)
	}
	return nil
}
