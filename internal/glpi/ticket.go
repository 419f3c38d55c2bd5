package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// FetchTicket retrieves a ticket and aggregates its sub-resources into one
// timeline view. A 404 returns (nil, nil): a missing ticket is a valid
// outcome, not an error. Sub-resource failures degrade to empty collections;
// only session and ticket-level failures propagate. The session is closed
// whether or not the fetch succeeds.
func (c *Client) FetchTicket(ctx context.Context, cfg Config, ticketID string) (*Ticket, error) {
	sess, err := c.initSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer c.killSession(ctx, sess)

	status, body, err := c.get(ctx, sess, "Ticket/"+ticketID, nil)
	if err != nil {
		return nil, err
	}
	if status == 404 {
		return nil, nil
	}
	if status < 200 || status >= 300 {
		if detail := parseAPIError(body); detail != "" {
			return nil, fmt.Errorf("failed to fetch ticket: %s", detail)
		}
		return nil, fmt.Errorf("failed to fetch ticket (HTTP %d)", status)
	}

	var ticket ticketResponse
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, fmt.Errorf("failed to parse ticket response: %w", err)
	}

	resolver := newUserResolver(c, sess)

	// Fan out all sub-resource fetches; each call overlaps the others'
	// network wait.
	var items subItems
	var assigneeID int
	var group errgroup.Group
	group.Go(func() error {
		items.followups = getSubItems[followupResponse](ctx, c, sess, ticketID, "ITILFollowup")
		return nil
	})
	group.Go(func() error {
		items.solutions = getSubItems[solutionResponse](ctx, c, sess, ticketID, "ITILSolution")
		return nil
	})
	group.Go(func() error {
		items.tasks = getSubItems[taskResponse](ctx, c, sess, ticketID, "TicketTask")
		return nil
	})
	group.Go(func() error {
		items.validations = getSubItems[validationResponse](ctx, c, sess, ticketID, "TicketValidation")
		return nil
	})
	group.Go(func() error {
		items.documentItems = getSubItems[documentItemResponse](ctx, c, sess, ticketID, "Document_Item")
		return nil
	})
	group.Go(func() error {
		assigneeID = c.getAssignee(ctx, sess, ticketID)
		return nil
	})
	group.Wait()

	var requesterName, assigneeName string
	var names errgroup.Group
	names.Go(func() error {
		requesterName = resolver.Resolve(ctx, ticket.UsersIDRecipient)
		return nil
	})
	names.Go(func() error {
		if assigneeID == 0 {
			assigneeName = Unassigned
			return nil
		}
		assigneeName = resolver.Resolve(ctx, assigneeID)
		return nil
	})
	names.Wait()

	updates := c.buildTimeline(ctx, sess, resolver, &ticket, items)

	return &Ticket{
		ID:        strconv.Itoa(ticket.ID),
		Title:     c.sanitizer.StripHTML(ticket.Name),
		Status:    MapStatus(ticket.Status),
		Priority:  MapPriority(ticket.Priority),
		Assignee:  assigneeName,
		Requester: requesterName,
		CreatedAt: ticket.DateCreation,
		UpdatedAt: ticket.DateMod,
		// Change detection against previously stored state is the caller's
		// concern; the client has no notion of "previously seen".
		HasNewUpdates: false,
		Updates:       updates,
	}, nil
}

// TestConnection verifies the given credentials by opening a session and,
// when a test ticket ID is given, fetching that ticket. Failures are
// reported in the result, never as an error.
func (c *Client) TestConnection(ctx context.Context, cfg Config, testTicketID string) TestResult {
	sess, err := c.initSession(ctx, cfg)
	if err != nil {
		return TestResult{Success: false, Message: err.Error()}
	}
	defer c.killSession(ctx, sess)

	var ticket *ticketResponse
	if testTicketID != "" {
		status, body, err := c.get(ctx, sess, "Ticket/"+testTicketID, nil)
		if err == nil && status >= 200 && status < 300 {
			var tr ticketResponse
			if err := json.Unmarshal(body, &tr); err == nil {
				ticket = &tr
			}
		}
	}

	if ticket != nil {
		return TestResult{
			Success: true,
			Message: fmt.Sprintf("Connection successful. Ticket %q found.", ticket.Name),
			Ticket:  ticket,
		}
	}
	return TestResult{Success: true, Message: "Connection successful. Authentication is working."}
}
