package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Ticket search-option field IDs (GLPI's fixed catalog for the Ticket type).
const (
	fieldName       = 1
	fieldID         = 2
	fieldPriority   = 3
	fieldTechnician = 5
	fieldGroup      = 8
	fieldStatus     = 12
	fieldOpenDate   = 15
	fieldDateMod    = 19
)

const (
	searchPageSize = 500
	searchMaxRows  = 5000
)

// tagFieldMarker identifies the optional tag plugin's search option by a
// substring of its uid. Installations without the plugin simply lack a
// matching option. The heuristic is fragile against exotic identifier
// schemes but is all the plugin exposes.
const tagFieldMarker = "tag"

// discoverTagField finds the search-option ID contributed by the tag plugin,
// if the installation has it. The outcome, including "absent", is computed at
// most once per process regardless of call volume.
func (c *Client) discoverTagField(ctx context.Context, sess session) (int, bool) {
	c.tagOnce.Do(func() {
		c.tagFieldID, c.tagFieldKnown = c.lookupTagField(ctx, sess)
	})
	return c.tagFieldID, c.tagFieldKnown
}

func (c *Client) lookupTagField(ctx context.Context, sess session) (int, bool) {
	status, body, err := c.get(ctx, sess, "listSearchOptions/Ticket", nil)
	if err != nil || status < 200 || status >= 300 {
		return 0, false
	}

	var options map[string]json.RawMessage
	if err := json.Unmarshal(body, &options); err != nil {
		return 0, false
	}
	for key, raw := range options {
		id, err := strconv.Atoi(key)
		if err != nil {
			// The catalog mixes group labels in with numeric field keys.
			continue
		}
		var opt searchOption
		if err := json.Unmarshal(raw, &opt); err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(opt.UID), tagFieldMarker) {
			return id, true
		}
	}
	return 0, false
}

// SearchTickets runs a filtered, paginated search over the GLPI ticket index.
// groupID filters by assigned group; nil means all groups. dateFrom/dateTo
// ("2006-01-02") bound the opening date inclusively: GLPI only offers strict
// comparisons, so each bound is shifted one day outward before applying
// morethan/lessthan.
func (c *Client) SearchTickets(ctx context.Context, cfg Config, groupID *int, dateFrom, dateTo string) ([]MonitorTicket, error) {
	sess, err := c.initSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer c.killSession(ctx, sess)

	from, err := time.Parse("2006-01-02", dateFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", dateFrom, err)
	}
	to, err := time.Parse("2006-01-02", dateTo)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", dateTo, err)
	}
	lower := from.AddDate(0, 0, -1).Format("2006-01-02")
	upper := to.AddDate(0, 0, 1).Format("2006-01-02")

	tagField, hasTag := c.discoverTagField(ctx, sess)

	display := []int{fieldName, fieldID, fieldStatus, fieldOpenDate, fieldDateMod, fieldPriority, fieldTechnician}
	if hasTag {
		display = append(display, tagField)
	}

	query := url.Values{}
	criterion := 0
	if groupID != nil {
		addCriterion(query, criterion, "", fieldGroup, "equals", strconv.Itoa(*groupID))
		criterion++
	}
	link := ""
	if criterion > 0 {
		link = "AND"
	}
	addCriterion(query, criterion, link, fieldOpenDate, "morethan", lower)
	criterion++
	addCriterion(query, criterion, "AND", fieldOpenDate, "lessthan", upper)
	for i, field := range display {
		query.Set(fmt.Sprintf("forcedisplay[%d]", i), strconv.Itoa(field))
	}

	var rows []map[string]json.RawMessage
	for offset := 0; offset < searchMaxRows; offset += searchPageSize {
		query.Set("range", fmt.Sprintf("%d-%d", offset, offset+searchPageSize-1))

		status, body, err := c.get(ctx, sess, "search/Ticket", query)
		if err != nil {
			return nil, err
		}
		// 206 is how GLPI signals a partial page, not a failure.
		if status != 200 && status != 206 {
			if detail := parseAPIError(body); detail != "" {
				return nil, fmt.Errorf("search failed: %s", detail)
			}
			return nil, fmt.Errorf("search failed (HTTP %d)", status)
		}

		var page searchResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse search response: %w", err)
		}
		if len(page.Data) == 0 {
			break
		}
		rows = append(rows, page.Data...)
		if len(rows) >= page.TotalCount {
			break
		}
	}

	// Resolve each distinct technician once, no matter how many tickets
	// share one.
	resolver := newUserResolver(c, sess)
	techKey := strconv.Itoa(fieldTechnician)
	techIDs := make(map[int]bool)
	for _, row := range rows {
		if id := rawInt(row[techKey]); id != 0 {
			techIDs[id] = true
		}
	}
	var group errgroup.Group
	for id := range techIDs {
		id := id
		group.Go(func() error {
			resolver.Resolve(ctx, id)
			return nil
		})
	}
	group.Wait()

	tagKey := strconv.Itoa(tagField)
	tickets := make([]MonitorTicket, 0, len(rows))
	for _, row := range rows {
		ticket := MonitorTicket{
			ID:       rawInt(row[strconv.Itoa(fieldID)]),
			Title:    rawString(row[strconv.Itoa(fieldName)]),
			Status:   MapStatus(rawInt(row[strconv.Itoa(fieldStatus)])),
			Priority: MapPriority(rawInt(row[strconv.Itoa(fieldPriority)])),
			Date:     rawString(row[strconv.Itoa(fieldOpenDate)]),
			DateMod:  rawString(row[strconv.Itoa(fieldDateMod)]),
		}
		if techID := rawInt(row[techKey]); techID != 0 {
			ticket.Technician = resolver.Resolve(ctx, techID)
		}
		if hasTag {
			ticket.Tag = rawString(row[tagKey])
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func addCriterion(query url.Values, index int, link string, field int, searchType, value string) {
	prefix := fmt.Sprintf("criteria[%d]", index)
	if link != "" {
		query.Set(prefix+"[link]", link)
	}
	query.Set(prefix+"[field]", strconv.Itoa(field))
	query.Set(prefix+"[searchtype]", searchType)
	query.Set(prefix+"[value]", value)
}

// ListGroups returns the groups usable as monitor search filters, sorted by
// their full path name.
func (c *Client) ListGroups(ctx context.Context, cfg Config) ([]Group, error) {
	sess, err := c.initSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer c.killSession(ctx, sess)

	query := url.Values{}
	query.Set("range", "0-999")
	query.Set("order", "ASC")
	status, body, err := c.get(ctx, sess, "Group", query)
	if err != nil {
		return nil, err
	}
	if status != 200 && status != 206 {
		if detail := parseAPIError(body); detail != "" {
			return nil, fmt.Errorf("failed to list groups: %s", detail)
		}
		return nil, fmt.Errorf("failed to list groups (HTTP %d)", status)
	}

	var raw []groupResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse group response: %w", err)
	}

	groups := make([]Group, 0, len(raw))
	for _, g := range raw {
		if g.ID == 0 || g.Name == "" {
			continue
		}
		name := g.CompleteName
		if name == "" {
			name = g.Name
		}
		groups = append(groups, Group{ID: g.ID, Name: g.Name, CompleteName: name})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CompleteName < groups[j].CompleteName
	})
	return groups, nil
}

// rawString coerces a search cell to a string. GLPI emits strings, numbers
// and nulls depending on the field.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// rawInt coerces a search cell to an int. Multi-valued cells (a ticket with
// several technicians) arrive as arrays; the first entry wins.
func rawInt(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
		return 0
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		return rawInt(arr[0])
	}
	return 0
}
