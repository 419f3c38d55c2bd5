package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/glpitrack/glpitrack/internal/models"
)

// TrackedTicketRepository persists the scalar projection of aggregated
// tickets, keyed by (user, ticket ID).
type TrackedTicketRepository interface {
	List(userID int) ([]*models.TrackedTicket, error)
	Get(userID int, ticketID string) (*models.TrackedTicket, error)
	Upsert(ticket *models.TrackedTicket) (*models.TrackedTicket, error)
	Update(userID int, ticketID string, fields map[string]any) (*models.TrackedTicket, error)
	Delete(userID int, ticketID string) error
}

// TrackedTicketSQLRepository stores tracked tickets in SQLite.
type TrackedTicketSQLRepository struct {
	db *sqlx.DB
}

// NewTrackedTicketRepository creates a new tracked ticket repository.
func NewTrackedTicketRepository(db *sqlx.DB) *TrackedTicketSQLRepository {
	return &TrackedTicketSQLRepository{db: db}
}

// List returns all tickets a user tracks, newest first.
func (r *TrackedTicketSQLRepository) List(userID int) ([]*models.TrackedTicket, error) {
	var tickets []*models.TrackedTicket
	err := r.db.Select(&tickets,
		`SELECT * FROM tracked_tickets WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked tickets: %w", err)
	}
	return tickets, nil
}

// Get returns one tracked ticket.
func (r *TrackedTicketSQLRepository) Get(userID int, ticketID string) (*models.TrackedTicket, error) {
	var ticket models.TrackedTicket
	err := r.db.Get(&ticket,
		`SELECT * FROM tracked_tickets WHERE user_id = ? AND ticket_id = ?`, userID, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked ticket: %w", err)
	}
	return &ticket, nil
}

// Upsert inserts or refreshes a tracked ticket's scalar fields.
func (r *TrackedTicketSQLRepository) Upsert(ticket *models.TrackedTicket) (*models.TrackedTicket, error) {
	_, err := r.db.Exec(`
		INSERT INTO tracked_tickets
			(user_id, ticket_id, title, status, priority, assignee, requester,
			 has_new_updates, column_id, glpi_created_at, glpi_updated_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, ticket_id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			priority = excluded.priority,
			assignee = excluded.assignee,
			requester = excluded.requester,
			has_new_updates = excluded.has_new_updates,
			glpi_created_at = excluded.glpi_created_at,
			glpi_updated_at = excluded.glpi_updated_at,
			updated_at = excluded.updated_at`,
		ticket.UserID, ticket.TicketID, ticket.Title, ticket.Status, ticket.Priority,
		ticket.Assignee, ticket.Requester, ticket.HasNewUpdates, ticket.ColumnID,
		ticket.GLPICreatedAt, ticket.GLPIUpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tracked ticket: %w", err)
	}
	return r.Get(ticket.UserID, ticket.TicketID)
}

// updatableFields guards Update against writing arbitrary columns.
var updatableFields = map[string]bool{
	"title":           true,
	"status":          true,
	"priority":        true,
	"assignee":        true,
	"requester":       true,
	"has_new_updates": true,
	"column_id":       true,
	"glpi_created_at": true,
	"glpi_updated_at": true,
}

// Update applies a partial update to a tracked ticket. Unknown fields are
// rejected.
func (r *TrackedTicketSQLRepository) Update(userID int, ticketID string, fields map[string]any) (*models.TrackedTicket, error) {
	sets := make([]string, 0, len(fields))
	values := make([]any, 0, len(fields)+2)
	for key, value := range fields {
		if !updatableFields[key] {
			return nil, fmt.Errorf("field %q is not updatable", key)
		}
		sets = append(sets, key+" = ?")
		values = append(values, value)
	}
	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	values = append(values, userID, ticketID)

	result, err := r.db.Exec(
		`UPDATE tracked_tickets SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND ticket_id = ?`,
		values...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update tracked ticket: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(userID, ticketID)
}

// Delete removes a tracked ticket.
func (r *TrackedTicketSQLRepository) Delete(userID int, ticketID string) error {
	if _, err := r.db.Exec(
		`DELETE FROM tracked_tickets WHERE user_id = ? AND ticket_id = ?`, userID, ticketID,
	); err != nil {
		return fmt.Errorf("failed to delete tracked ticket: %w", err)
	}
	return nil
}
