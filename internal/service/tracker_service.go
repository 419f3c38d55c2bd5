package service

import (
	"context"
	"errors"

	"github.com/glpitrack/glpitrack/internal/glpi"
	"github.com/glpitrack/glpitrack/internal/models"
	"github.com/glpitrack/glpitrack/internal/repository"
)

// ErrNotConfigured is returned when a user has no stored GLPI credentials.
var ErrNotConfigured = errors.New("GLPI configuration not found")

// TrackerService binds the GLPI client to each user's stored credentials.
type TrackerService struct {
	client  *glpi.Client
	configs repository.GLPIConfigRepository
}

// NewTrackerService creates a tracker service.
func NewTrackerService(client *glpi.Client, configs repository.GLPIConfigRepository) *TrackerService {
	return &TrackerService{client: client, configs: configs}
}

func (s *TrackerService) clientConfig(userID int) (glpi.Config, error) {
	stored, err := s.configs.Load(userID)
	if err != nil {
		return glpi.Config{}, err
	}
	if stored == nil {
		return glpi.Config{}, ErrNotConfigured
	}
	return glpi.Config{
		BaseURL:   stored.BaseURL,
		AppToken:  stored.AppToken,
		UserToken: stored.UserToken,
	}, nil
}

// FetchTicket aggregates one GLPI ticket for the user. Returns (nil, nil)
// when the ticket does not exist.
func (s *TrackerService) FetchTicket(ctx context.Context, userID int, ticketID string) (*glpi.Ticket, error) {
	cfg, err := s.clientConfig(userID)
	if err != nil {
		return nil, err
	}
	return s.client.FetchTicket(ctx, cfg, ticketID)
}

// SearchTickets runs a monitor search for the user.
func (s *TrackerService) SearchTickets(ctx context.Context, userID int, groupID *int, dateFrom, dateTo string) ([]glpi.MonitorTicket, error) {
	cfg, err := s.clientConfig(userID)
	if err != nil {
		return nil, err
	}
	return s.client.SearchTickets(ctx, cfg, groupID, dateFrom, dateTo)
}

// ListGroups lists the user's GLPI groups.
func (s *TrackerService) ListGroups(ctx context.Context, userID int) ([]glpi.Group, error) {
	cfg, err := s.clientConfig(userID)
	if err != nil {
		return nil, err
	}
	return s.client.ListGroups(ctx, cfg)
}

// TestConnection checks credentials that have not necessarily been saved
// yet, which is why it takes an explicit configuration.
func (s *TrackerService) TestConnection(ctx context.Context, cfg *models.GLPIConfig, testTicketID string) glpi.TestResult {
	return s.client.TestConnection(ctx, glpi.Config{
		BaseURL:   cfg.BaseURL,
		AppToken:  cfg.AppToken,
		UserToken: cfg.UserToken,
	}, testTicketID)
}
