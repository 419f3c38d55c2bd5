package glpi

import "encoding/json"

// Config holds the credentials for one GLPI installation.
type Config struct {
	BaseURL   string `json:"base_url"`
	AppToken  string `json:"app_token"`
	UserToken string `json:"user_token"`
}

// Ticket is the aggregated, client-side projection of a GLPI ticket.
type Ticket struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	Priority      string          `json:"priority"`
	Assignee      string          `json:"assignee"`
	Requester     string          `json:"requester"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
	HasNewUpdates bool            `json:"hasNewUpdates"`
	Updates       []TimelineEvent `json:"updates"`
}

// TimelineEvent is one normalized entry in a ticket's activity history.
type TimelineEvent struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Timeline event types.
const (
	EventComment    = "comment"
	EventSolution   = "solution"
	EventTask       = "task"
	EventValidation = "validation"
	EventAttachment = "attachment"
)

// MonitorTicket is one row of a monitor search. Ephemeral; never persisted.
type MonitorTicket struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Technician string `json:"technician"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Date       string `json:"date"`
	DateMod    string `json:"dateMod"`
	Tag        string `json:"tag"`
}

// Group is one GLPI group usable as a search filter.
type Group struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	CompleteName string `json:"completename"`
}

// TestResult reports the outcome of a connection test.
type TestResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Ticket  *ticketResponse `json:"ticket,omitempty"`
}

// Wire shapes for the GLPI REST API. Parsed at the boundary; a failed parse
// is treated the same as a failed fetch.

type sessionResponse struct {
	SessionToken string `json:"session_token"`
}

type ticketResponse struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Content          string `json:"content"`
	Status           int    `json:"status"`
	Priority         int    `json:"priority"`
	DateCreation     string `json:"date_creation"`
	DateMod          string `json:"date_mod"`
	UsersIDRecipient int    `json:"users_id_recipient"`
}

type followupResponse struct {
	ID           int    `json:"id"`
	Content      string `json:"content"`
	DateCreation string `json:"date_creation"`
	UsersID      int    `json:"users_id"`
}

type solutionResponse struct {
	ID           int    `json:"id"`
	Content      string `json:"content"`
	DateCreation string `json:"date_creation"`
	UsersID      int    `json:"users_id"`
}

type taskResponse struct {
	ID           int    `json:"id"`
	Content      string `json:"content"`
	DateCreation string `json:"date_creation"`
	UsersID      int    `json:"users_id"`
}

type validationResponse struct {
	ID                int    `json:"id"`
	CommentSubmission string `json:"comment_submission"`
	CommentValidation string `json:"comment_validation"`
	DateCreation      string `json:"date_creation"`
	DateMod           string `json:"date_mod"`
	UsersID           int    `json:"users_id"`
	UsersIDValidate   int    `json:"users_id_validate"`
}

type documentItemResponse struct {
	ID           int    `json:"id"`
	DocumentsID  int    `json:"documents_id"`
	DateCreation string `json:"date_creation"`
	UsersID      int    `json:"users_id"`
}

type documentResponse struct {
	ID           int    `json:"id"`
	Filename     string `json:"filename"`
	DateCreation string `json:"date_creation"`
	UsersID      int    `json:"users_id"`
}

type userResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	RealName  string `json:"realname"`
	FirstName string `json:"firstname"`
}

// Ticket_User relation types.
const (
	relationRequester = 1
	relationAssigned  = 2
)

type ticketUserLink struct {
	ID      int `json:"id"`
	UsersID int `json:"users_id"`
	Type    int `json:"type"`
}

type groupResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	CompleteName string `json:"completename"`
}

type searchResponse struct {
	TotalCount int                          `json:"totalcount"`
	Data       []map[string]json.RawMessage `json:"data"`
}

type searchOption struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// MapStatus converts a GLPI status code to the tracker's status.
func MapStatus(status int) string {
	switch status {
	case 1:
		return "new"
	case 2:
		return "in-progress"
	case 3:
		return "pending"
	case 4:
		return "pending"
	case 5:
		return "resolved"
	case 6:
		return "closed"
	default:
		return "new"
	}
}

// MapPriority converts a GLPI priority code to the tracker's priority.
func MapPriority(priority int) string {
	switch priority {
	case 1:
		return "low"
	case 2:
		return "low"
	case 3:
		return "medium"
	case 4:
		return "high"
	case 5:
		return "urgent"
	case 6:
		return "urgent"
	default:
		return "medium"
	}
}
