package models

import "time"

// GLPIConfig is one user's stored GLPI credentials.
type GLPIConfig struct {
	ID        int       `db:"id" json:"-"`
	UserID    int       `db:"user_id" json:"-"`
	BaseURL   string    `db:"base_url" json:"base_url"`
	AppToken  string    `db:"app_token" json:"app_token"`
	UserToken string    `db:"user_token" json:"user_token"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TrackedTicket is the persisted projection of an aggregated GLPI ticket.
// Scalar fields only; the timeline is refetched on demand.
type TrackedTicket struct {
	ID            int       `db:"id" json:"-"`
	UserID        int       `db:"user_id" json:"-"`
	TicketID      string    `db:"ticket_id" json:"ticket_id"`
	Title         string    `db:"title" json:"title"`
	Status        string    `db:"status" json:"status"`
	Priority      string    `db:"priority" json:"priority"`
	Assignee      string    `db:"assignee" json:"assignee"`
	Requester     string    `db:"requester" json:"requester"`
	HasNewUpdates bool      `db:"has_new_updates" json:"has_new_updates"`
	ColumnID      *int      `db:"column_id" json:"column_id,omitempty"`
	GLPICreatedAt string    `db:"glpi_created_at" json:"glpi_created_at"`
	GLPIUpdatedAt string    `db:"glpi_updated_at" json:"glpi_updated_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// KanbanColumn is one board column. Position orders columns left to right.
type KanbanColumn struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Reminder is a scheduled WhatsApp reminder for a tracked ticket. Delivery
// goes through the notifier; the relay itself is an external collaborator.
type Reminder struct {
	ID        string     `db:"id" json:"id"`
	UserID    int        `db:"user_id" json:"-"`
	TicketID  string     `db:"ticket_id" json:"ticket_id"`
	Phone     string     `db:"phone" json:"phone"`
	Message   string     `db:"message" json:"message"`
	RemindAt  time.Time  `db:"remind_at" json:"remind_at"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
