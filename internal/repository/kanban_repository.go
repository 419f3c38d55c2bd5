package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/glpitrack/glpitrack/internal/models"
)

// KanbanColumnRepository persists a user's board columns and their order.
type KanbanColumnRepository interface {
	List(userID int) ([]*models.KanbanColumn, error)
	Create(userID int, name string) (*models.KanbanColumn, error)
	Rename(userID, columnID int, name string) error
	Reorder(userID int, columnIDs []int) error
	Delete(userID, columnID int) error
}

// KanbanColumnSQLRepository stores kanban columns in SQLite.
type KanbanColumnSQLRepository struct {
	db *sqlx.DB
}

// NewKanbanColumnRepository creates a new kanban column repository.
func NewKanbanColumnRepository(db *sqlx.DB) *KanbanColumnSQLRepository {
	return &KanbanColumnSQLRepository{db: db}
}

// List returns a user's columns in board order.
func (r *KanbanColumnSQLRepository) List(userID int) ([]*models.KanbanColumn, error) {
	var columns []*models.KanbanColumn
	err := r.db.Select(&columns,
		`SELECT * FROM kanban_columns WHERE user_id = ? ORDER BY position, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// Create appends a new column at the end of the board.
func (r *KanbanColumnSQLRepository) Create(userID int, name string) (*models.KanbanColumn, error) {
	result, err := r.db.Exec(`
		INSERT INTO kanban_columns (user_id, name, position)
		SELECT ?, ?, COALESCE(MAX(position), -1) + 1
		FROM kanban_columns WHERE user_id = ?`,
		userID, name, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted ID: %w", err)
	}

	var column models.KanbanColumn
	if err := r.db.Get(&column, `SELECT * FROM kanban_columns WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to reload column: %w", err)
	}
	return &column, nil
}

// Rename changes a column's name.
func (r *KanbanColumnSQLRepository) Rename(userID, columnID int, name string) error {
	result, err := r.db.Exec(
		`UPDATE kanban_columns SET name = ? WHERE user_id = ? AND id = ?`,
		name, userID, columnID,
	)
	if err != nil {
		return fmt.Errorf("failed to rename column: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder rewrites column positions to match the given ID order.
func (r *KanbanColumnSQLRepository) Reorder(userID int, columnIDs []int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for position, columnID := range columnIDs {
		if _, err := tx.Exec(
			`UPDATE kanban_columns SET position = ? WHERE user_id = ? AND id = ?`,
			position, userID, columnID,
		); err != nil {
			return fmt.Errorf("failed to reposition column %d: %w", columnID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a column. Tickets in it fall back to no column.
func (r *KanbanColumnSQLRepository) Delete(userID, columnID int) error {
	if _, err := r.db.Exec(
		`DELETE FROM kanban_columns WHERE user_id = ? AND id = ?`, userID, columnID,
	); err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return nil
}
