package glpi

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// subItems holds the per-ticket collections the timeline is merged from.
type subItems struct {
	followups     []followupResponse
	solutions     []solutionResponse
	tasks         []taskResponse
	validations   []validationResponse
	documentItems []documentItemResponse
}

// buildTimeline merges a ticket's sub-resources into one list of events
// sorted newest first. Events are appended in a fixed category order
// (description, followups, solutions, tasks, validations, attachments) so
// the stable sort resolves same-timestamp ties deterministically.
func (c *Client) buildTimeline(ctx context.Context, sess session, resolver *userResolver, ticket *ticketResponse, items subItems) []TimelineEvent {
	// Resolve linked documents first; their uploader IDs feed the name
	// prefetch below.
	documents := make([]*documentResponse, len(items.documentItems))
	var docGroup errgroup.Group
	for i, item := range items.documentItems {
		i, item := i, item
		docGroup.Go(func() error {
			documents[i] = c.getDocument(ctx, sess, item.DocumentsID)
			return nil
		})
	}
	docGroup.Wait()

	// Warm the resolver cache for every author concurrently. Duplicate IDs
	// collapse into a single call inside the resolver.
	var userIDs []int
	if ticket.Content != "" {
		userIDs = append(userIDs, ticket.UsersIDRecipient)
	}
	for _, f := range items.followups {
		userIDs = append(userIDs, f.UsersID)
	}
	for _, s := range items.solutions {
		userIDs = append(userIDs, s.UsersID)
	}
	for _, t := range items.tasks {
		userIDs = append(userIDs, t.UsersID)
	}
	for _, v := range items.validations {
		userIDs = append(userIDs, v.UsersID, v.UsersIDValidate)
	}
	for i, item := range items.documentItems {
		if item.UsersID != 0 {
			userIDs = append(userIDs, item.UsersID)
		} else if documents[i] != nil {
			userIDs = append(userIDs, documents[i].UsersID)
		}
	}
	var nameGroup errgroup.Group
	for _, id := range userIDs {
		if id == 0 {
			continue
		}
		id := id
		nameGroup.Go(func() error {
			resolver.Resolve(ctx, id)
			return nil
		})
	}
	nameGroup.Wait()

	var events []TimelineEvent

	// The ticket's own description opens the timeline.
	if ticket.Content != "" {
		events = append(events, TimelineEvent{
			ID:      "desc",
			Date:    ticket.DateCreation,
			Author:  resolver.Resolve(ctx, ticket.UsersIDRecipient),
			Content: c.sanitizer.SanitizeHTML(ticket.Content),
			Type:    EventComment,
		})
	}

	for _, f := range items.followups {
		events = append(events, TimelineEvent{
			ID:      fmt.Sprintf("followup-%d", f.ID),
			Date:    f.DateCreation,
			Author:  resolver.Resolve(ctx, f.UsersID),
			Content: c.sanitizer.SanitizeHTML(f.Content),
			Type:    EventComment,
		})
	}

	for _, s := range items.solutions {
		events = append(events, TimelineEvent{
			ID:      fmt.Sprintf("solution-%d", s.ID),
			Date:    s.DateCreation,
			Author:  resolver.Resolve(ctx, s.UsersID),
			Content: c.sanitizer.SanitizeHTML(s.Content),
			Type:    EventSolution,
		})
	}

	for _, t := range items.tasks {
		events = append(events, TimelineEvent{
			ID:      fmt.Sprintf("task-%d", t.ID),
			Date:    t.DateCreation,
			Author:  resolver.Resolve(ctx, t.UsersID),
			Content: c.sanitizer.SanitizeHTML(t.Content),
			Type:    EventTask,
		})
	}

	for _, v := range items.validations {
		submitter := resolver.Resolve(ctx, v.UsersID)
		validator := resolver.Resolve(ctx, v.UsersIDValidate)

		// A validation comment belongs to the validator; a pending request
		// only carries the submitter's comment.
		author := submitter
		content := c.sanitizer.SanitizeHTML(v.CommentSubmission)
		if v.CommentValidation != "" {
			author = validator
			content = c.sanitizer.SanitizeHTML(v.CommentValidation)
		}
		if content == "" {
			content = fmt.Sprintf("%s requested approval from %s", submitter, validator)
		}

		date := v.DateMod
		if date == "" {
			date = v.DateCreation
		}
		events = append(events, TimelineEvent{
			ID:      fmt.Sprintf("validation-%d", v.ID),
			Date:    date,
			Author:  author,
			Content: content,
			Type:    EventValidation,
		})
	}

	for i, item := range items.documentItems {
		doc := documents[i]
		if doc == nil {
			continue
		}
		uploaderID := item.UsersID
		if uploaderID == 0 {
			uploaderID = doc.UsersID
		}
		date := item.DateCreation
		if date == "" {
			date = doc.DateCreation
		}
		events = append(events, TimelineEvent{
			ID:      fmt.Sprintf("doc-%d", item.ID),
			Date:    date,
			Author:  resolver.Resolve(ctx, uploaderID),
			Content: "Attachment " + fileExtension(doc.Filename),
			Type:    EventAttachment,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return parseGLPITime(events[i].Date).After(parseGLPITime(events[j].Date))
	})
	return events
}
