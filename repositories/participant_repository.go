package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
)

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantConflict    = errors.New("participant with this name is already registered in the room")
	ErrParticipantRoomInvalid = errors.New("participant room reference is invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Participant, error)
	CountByRoom(ctx context.Context, exec SQLExecutor, roomID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, roomID, participantID int) error
	// DeleteByRoom removes the whole roster and reports how many rows went.
	DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) (int, error)
}

type postgresParticipantRepository struct {
	baseRepository
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{baseRepository{db: db}}
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (room_id, name, external_ref)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, p.RoomID, p.Name, p.ExternalRef).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		switch code, constraint := pqCode(err); {
		case code == pqUniqueViolation && constraint == "participants_room_id_name_key":
			return ErrParticipantConflict
		case code == pqForeignKeyViolation:
			return ErrParticipantRoomInvalid
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Participant, error) {
	query := `
		SELECT id, room_id, name, external_ref, created_at
		FROM participants
		WHERE room_id = $1
		ORDER BY id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for room %d: %w", roomID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.ExternalRef, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) CountByRoom(ctx context.Context, exec SQLExecutor, roomID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE room_id = $1`, roomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, roomID, participantID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM participants WHERE id = $1 AND room_id = $2`, participantID, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete participant %d: %w", participantID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) (int, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM participants WHERE room_id = $1`, roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear participants of room %d: %w", roomID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared participants of room %d: %w", roomID, err)
	}
	return int(n), nil
}
