package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/pingpong-league/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupConflict = errors.New("group name already exists in the room")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error)
	ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Group, error)
	DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error
}

type postgresGroupRepository struct {
	baseRepository
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{baseRepository{db: db}}
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	query := `
		INSERT INTO room_groups (room_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, group.RoomID, group.Name).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		if code, _ := pqCode(err); code == pqUniqueViolation {
			return ErrGroupConflict
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Group, error) {
	query := `SELECT id, room_id, name, created_at FROM room_groups WHERE id = $1`
	group := &models.Group{}
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).
		Scan(&group.ID, &group.RoomID, &group.Name, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group %d: %w", id, err)
	}
	return group, nil
}

func (r *postgresGroupRepository) ListByRoom(ctx context.Context, exec SQLExecutor, roomID int) ([]*models.Group, error) {
	query := `
		SELECT id, room_id, name, created_at
		FROM room_groups
		WHERE room_id = $1
		ORDER BY id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for room %d: %w", roomID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.RoomID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group rows iteration: %w", err)
	}
	return groups, nil
}

func (r *postgresGroupRepository) DeleteByRoom(ctx context.Context, exec SQLExecutor, roomID int) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM room_groups WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("failed to delete groups for room %d: %w", roomID, err)
	}
	return nil
}
