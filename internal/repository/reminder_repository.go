package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/glpitrack/glpitrack/internal/models"
)

// ReminderRepository persists scheduled reminders and hands due ones to the
// dispatcher.
type ReminderRepository interface {
	List(userID int) ([]*models.Reminder, error)
	Create(reminder *models.Reminder) error
	Delete(userID int, reminderID string) error
	Due(now time.Time) ([]*models.Reminder, error)
	MarkSent(reminderID string, at time.Time) error
}

// ReminderSQLRepository stores reminders in SQLite.
type ReminderSQLRepository struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *sqlx.DB) *ReminderSQLRepository {
	return &ReminderSQLRepository{db: db}
}

// List returns a user's reminders, soonest first.
func (r *ReminderSQLRepository) List(userID int) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.Select(&reminders,
		`SELECT * FROM reminders WHERE user_id = ? ORDER BY remind_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// Create inserts a new reminder.
func (r *ReminderSQLRepository) Create(reminder *models.Reminder) error {
	_, err := r.db.Exec(`
		INSERT INTO reminders (id, user_id, ticket_id, phone, message, remind_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		reminder.ID, reminder.UserID, reminder.TicketID,
		reminder.Phone, reminder.Message, reminder.RemindAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// Delete removes a reminder.
func (r *ReminderSQLRepository) Delete(userID int, reminderID string) error {
	if _, err := r.db.Exec(
		`DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, reminderID,
	); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// Due returns unsent reminders whose time has passed.
func (r *ReminderSQLRepository) Due(now time.Time) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.Select(&reminders,
		`SELECT * FROM reminders WHERE sent_at IS NULL AND remind_at <= ? ORDER BY remind_at`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	return reminders, nil
}

// MarkSent records that a reminder was dispatched.
func (r *ReminderSQLRepository) MarkSent(reminderID string, at time.Time) error {
	if _, err := r.db.Exec(
		`UPDATE reminders SET sent_at = ? WHERE id = ?`, at, reminderID,
	); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
