package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// getSubItems fetches a ticket-scoped sub-collection. Any failure or a
// non-array body yields an empty slice: a degraded-but-complete ticket view
// beats an all-or-nothing failure.
func getSubItems[T any](ctx context.Context, c *Client, sess session, ticketID, subItemType string) []T {
	status, body, err := c.get(ctx, sess, fmt.Sprintf("Ticket/%s/%s", ticketID, subItemType), nil)
	if err != nil || status < 200 || status >= 300 {
		return nil
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil
	}
	return items
}

// getAssignee returns the user ID assigned to a ticket, or 0 if none. The
// Ticket_User collection links users to a ticket by relation type; the first
// "assigned" entry wins.
func (c *Client) getAssignee(ctx context.Context, sess session, ticketID string) int {
	links := getSubItems[ticketUserLink](ctx, c, sess, ticketID, "Ticket_User")
	for _, link := range links {
		if link.Type == relationAssigned {
			return link.UsersID
		}
	}
	return 0
}

// getDocument fetches a document record by ID. Returns nil on any failure.
func (c *Client) getDocument(ctx context.Context, sess session, documentID int) *documentResponse {
	status, body, err := c.get(ctx, sess, fmt.Sprintf("Document/%d", documentID), nil)
	if err != nil || status < 200 || status >= 300 {
		return nil
	}

	var doc documentResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	return &doc
}

// fileExtension returns the extension including the dot, or the whole
// filename if it has none.
func fileExtension(filename string) string {
	if dot := strings.LastIndex(filename, "."); dot >= 0 {
		return filename[dot:]
	}
	return filename
}
