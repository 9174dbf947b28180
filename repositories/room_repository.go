package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/pingpong-league/models"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomInvalidValue = errors.New("room violates a column constraint")
)

type ListRoomsFilter struct {
	Status *models.RoomStatus
	Limit  int
	Offset int
}

type RoomRepository interface {
	Create(ctx context.Context, exec SQLExecutor, room *models.Room) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error)
	// GetByIDForUpdate locks the room row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error)
	List(ctx context.Context, exec SQLExecutor, filter ListRoomsFilter) ([]*models.Room, error)
	Update(ctx context.Context, exec SQLExecutor, room *models.Room) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoomStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListUnarchivedCompleted(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Room, error)
	MarkArchived(ctx context.Context, exec SQLExecutor, id int, archiveKey string, archivedAt time.Time) error
	MarkArchiveFailed(ctx context.Context, exec SQLExecutor, id int, failedAt time.Time) error
}

type postgresRoomRepository struct {
	baseRepository
}

func NewPostgresRoomRepository(db *sql.DB) RoomRepository {
	return &postgresRoomRepository{baseRepository{db: db}}
}

const roomColumns = `
	id, title, game_type, match_format, ranking_mode, bracket_layout,
	players_per_group, advancing_per_group, team_size, max_participants,
	status, archive_key, archived_at, archive_failed_at, created_at, updated_at`

func scanRoom(row rowScanner) (*models.Room, error) {
	room := &models.Room{}
	err := row.Scan(
		&room.ID, &room.Title, &room.GameType, &room.MatchFormat, &room.RankingMode, &room.BracketLayout,
		&room.PlayersPerGroup, &room.AdvancingPerGroup, &room.TeamSize, &room.MaxParticipants,
		&room.Status, &room.ArchiveKey, &room.ArchivedAt, &room.ArchiveFailedAt, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *postgresRoomRepository) Create(ctx context.Context, exec SQLExecutor, room *models.Room) error {
	query := `
		INSERT INTO rooms (
			title, game_type, match_format, ranking_mode, bracket_layout,
			players_per_group, advancing_per_group, team_size, max_participants, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		room.Title, room.GameType, room.MatchFormat, room.RankingMode, room.BracketLayout,
		room.PlayersPerGroup, room.AdvancingPerGroup, room.TeamSize, room.MaxParticipants, room.Status,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	return r.handleRoomError(err)
}

func (r *postgresRoomRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	room, err := scanRoom(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, r.handleRoomError(err)
	}
	return room, nil
}

func (r *postgresRoomRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1 FOR UPDATE`
	room, err := scanRoom(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, r.handleRoomError(err)
	}
	return room, nil
}

func (r *postgresRoomRepository) List(ctx context.Context, exec SQLExecutor, filter ListRoomsFilter) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.queryRooms(ctx, exec, query, args...)
}

func (r *postgresRoomRepository) Update(ctx context.Context, exec SQLExecutor, room *models.Room) error {
	query := `
		UPDATE rooms SET
			title = $1, game_type = $2, match_format = $3, ranking_mode = $4, bracket_layout = $5,
			players_per_group = $6, advancing_per_group = $7, team_size = $8, max_participants = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		room.Title, room.GameType, room.MatchFormat, room.RankingMode, room.BracketLayout,
		room.PlayersPerGroup, room.AdvancingPerGroup, room.TeamSize, room.MaxParticipants,
		room.ID,
	).Scan(&room.UpdatedAt)
	return r.handleRoomError(err)
}

func (r *postgresRoomRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RoomStatus) error {
	query := `UPDATE rooms SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleRoomError(err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) ListUnarchivedCompleted(ctx context.Context, exec SQLExecutor, limit int) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + `
		FROM rooms
		WHERE status = $1 AND archived_at IS NULL
		ORDER BY archive_failed_at NULLS FIRST, updated_at, id
		LIMIT $2`
	return r.queryRooms(ctx, exec, query, models.RoomStatusCompleted, limit)
}

func (r *postgresRoomRepository) MarkArchived(ctx context.Context, exec SQLExecutor, id int, archiveKey string, archivedAt time.Time) error {
	query := `UPDATE rooms SET archive_key = $1, archived_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, archiveKey, archivedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark room %d archived: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) MarkArchiveFailed(ctx context.Context, exec SQLExecutor, id int, failedAt time.Time) error {
	query := `UPDATE rooms SET archive_failed_at = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, failedAt, id)
	if err != nil {
		return fmt.Errorf("failed to record archive failure for room %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoomNotFound)
}

func (r *postgresRoomRepository) queryRooms(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Room, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*models.Room, 0)
	for rows.Next() {
		room, scanErr := scanRoom(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan room: %w", scanErr)
		}
		rooms = append(rooms, room)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during room rows iteration: %w", err)
	}
	return rooms, nil
}

func (r *postgresRoomRepository) handleRoomError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if code, _ := pqCode(err); code == pqCheckViolation {
		return ErrRoomInvalidValue
	}
	return err
}
