package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchOptionsBody = `{
	"common": "Characteristics",
	"1": {"uid": "Ticket.name", "name": "Title"},
	"2": {"uid": "Ticket.id", "name": "ID"},
	"10005": {"uid": "Ticket.PluginTagTag.name", "name": "Tags"}
}`

func emptySearchPage(w http.ResponseWriter) {
	fmt.Fprint(w, `{"totalcount": 0, "data": []}`)
}

func TestDiscoverTagField(t *testing.T) {
	t.Run("DiscoveredOncePerClient", func(t *testing.T) {
		var optionCalls atomic.Int32
		cfg := newFakeGLPI(t, func(w http.ResponseWriter, path string) bool {
			switch {
			case path == "listSearchOptions/Ticket":
				optionCalls.Add(1)
				fmt.Fprint(w, searchOptionsBody)
			case strings.HasPrefix(path, "search/Ticket"):
				emptySearchPage(w)
			default:
				return false
			}
			return true
		})

		client := NewClient()
		for i := 0; i < 3; i++ {
			_, err := client.SearchTickets(context.Background(), cfg, nil, "2024-01-10", "2024-01-10")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), optionCalls.Load())
	})

	t.Run("AbsentPluginIsRememberedToo", func(t *testing.T) {
		var optionCalls atomic.Int32
		cfg := newFakeGLPI(t, func(w http.ResponseWriter, path string) bool {
			switch {
			case path == "listSearchOptions/Ticket":
				optionCalls.Add(1)
				fmt.Fprint(w, `{"1": {"uid": "Ticket.name", "name": "Title"}}`)
			case strings.HasPrefix(path, "search/Ticket"):
				emptySearchPage(w)
			default:
				return false
			}
			return true
		})

		client := NewClient()
		for i := 0; i < 2; i++ {
			_, err := client.SearchTickets(context.Background(), cfg, nil, "2024-01-10", "2024-01-10")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), optionCalls.Load())
	})
}

func TestSearchTickets(t *testing.T) {
	t.Run("InclusiveDateBoundaries", func(t *testing.T) {
		var captured url.Values
		cfg := newFakeGLPIWithRequest(t, func(w http.ResponseWriter, r *http.Request, path string) bool {
			switch path {
			case "listSearchOptions/Ticket":
				fmt.Fprint(w, `{}`)
			case "search/Ticket":
				captured = r.URL.Query()
				emptySearchPage(w)
			default:
				return false
			}
			return true
		})

		_, err := NewClient().SearchTickets(context.Background(), cfg, nil, "2024-01-10", "2024-01-10")
		require.NoError(t, err)
		require.NotNil(t, captured)

		// A single-day range still matches the whole day: GLPI only has
		// strict comparisons, so the bounds sit one day outside.
		assert.Equal(t, "15", captured.Get("criteria[0][field]"))
		assert.Equal(t, "morethan", captured.Get("criteria[0][searchtype]"))
		assert.Equal(t, "2024-01-09", captured.Get("criteria[0][value]"))
		assert.Equal(t, "15", captured.Get("criteria[1][field]"))
		assert.Equal(t, "lessthan", captured.Get("criteria[1][searchtype]"))
		assert.Equal(t, "2024-01-11", captured.Get("criteria[1][value]"))
		assert.Equal(t, "AND", captured.Get("criteria[1][link]"))
		assert.Equal(t, "0-499", captured.Get("range"))
	})

	t.Run("GroupFilterLeadsCriteria", func(t *testing.T) {
		var captured url.Values
		cfg := newFakeGLPIWithRequest(t, func(w http.ResponseWriter, r *http.Request, path string) bool {
			switch path {
			case "listSearchOptions/Ticket":
				fmt.Fprint(w, `{}`)
			case "search/Ticket":
				captured = r.URL.Query()
				emptySearchPage(w)
			default:
				return false
			}
			return true
		})

		groupID := 12
		_, err := NewClient().SearchTickets(context.Background(), cfg, &groupID, "2024-01-01", "2024-01-31")
		require.NoError(t, err)
		require.NotNil(t, captured)

		assert.Equal(t, "8", captured.Get("criteria[0][field]"))
		assert.Equal(t, "equals", captured.Get("criteria[0][searchtype]"))
		assert.Equal(t, "12", captured.Get("criteria[0][value]"))
		assert.Equal(t, "AND", captured.Get("criteria[1][link]"))
		assert.Equal(t, "2023-12-31", captured.Get("criteria[1][value]"))
		assert.Equal(t, "2024-02-01", captured.Get("criteria[2][value]"))
	})

	t.Run("InvalidDates", func(t *testing.T) {
		cfg := newFakeGLPI(t, nil)
		client := NewClient()

		_, err := client.SearchTickets(context.Background(), cfg, nil, "10/01/2024", "2024-01-10")
		assert.Error(t, err)
		_, err = client.SearchTickets(context.Background(), cfg, nil, "2024-01-10", "nope")
		assert.Error(t, err)
	})

	t.Run("MapsRowsAndResolvesTechnicians", func(t *testing.T) {
		var userCalls atomic.Int32
		cfg := newFakeGLPIWithRequest(t, func(w http.ResponseWriter, r *http.Request, path string) bool {
			switch path {
			case "listSearchOptions/Ticket":
				fmt.Fprint(w, searchOptionsBody)
			case "search/Ticket":
				w.WriteHeader(http.StatusPartialContent)
				fmt.Fprint(w, `{"totalcount": 2, "data": [
					{"1": "Printer down", "2": 101, "3": 5, "5": 7, "12": 2, "15": "2024-01-10 09:00:00", "19": "2024-01-11 10:00:00", "10005": "VIP"},
					{"1": "Slow network", "2": 102, "3": 1, "5": [7, 8], "12": 6, "15": "2024-01-10 11:00:00", "19": "2024-01-10 11:00:00", "10005": null}
				]}`)
			case "User/7":
				userCalls.Add(1)
				fmt.Fprint(w, `{"id": 7, "firstname": "Alice", "realname": "Smith"}`)
			default:
				return false
			}
			return true
		})

		tickets, err := NewClient().SearchTickets(context.Background(), cfg, nil, "2024-01-10", "2024-01-10")
		require.NoError(t, err)
		require.Len(t, tickets, 2)

		assert.Equal(t, MonitorTicket{
			ID:         101,
			Title:      "Printer down",
			Technician: "Alice Smith",
			Status:     "in-progress",
			Priority:   "urgent",
			Date:       "2024-01-10 09:00:00",
			DateMod:    "2024-01-11 10:00:00",
			Tag:        "VIP",
		}, tickets[0])

		// Multi-technician cells collapse to the first entry; both rows
		// share one resolved name.
		assert.Equal(t, "Alice Smith", tickets[1].Technician)
		assert.Equal(t, "closed", tickets[1].Status)
		assert.Equal(t, "low", tickets[1].Priority)
		assert.Equal(t, "", tickets[1].Tag)
		assert.Equal(t, int32(1), userCalls.Load())
	})

	t.Run("PaginatesUntilTotalCount", func(t *testing.T) {
		var ranges []string
		cfg := newFakeGLPIWithRequest(t, func(w http.ResponseWriter, r *http.Request, path string) bool {
			switch path {
			case "listSearchOptions/Ticket":
				fmt.Fprint(w, `{}`)
			case "search/Ticket":
				ranges = append(ranges, r.URL.Query().Get("range"))
				page := len(ranges) - 1
				count := 500
				if page == 1 {
					count = 100
				}
				rows := make([]map[string]any, count)
				for i := range rows {
					rows[i] = map[string]any{"1": "t", "2": page*500 + i, "12": 1, "3": 3}
				}
				w.WriteHeader(http.StatusPartialContent)
				json.NewEncoder(w).Encode(map[string]any{"totalcount": 600, "data": rows})
			default:
				return false
			}
			return true
		})

		tickets, err := NewClient().SearchTickets(context.Background(), cfg, nil, "2024-01-01", "2024-01-31")
		require.NoError(t, err)
		assert.Len(t, tickets, 600)
		assert.Equal(t, []string{"0-499", "500-999"}, ranges)
	})

	t.Run("SearchErrorPropagates", func(t *testing.T) {
		cfg := newFakeGLPIWithRequest(t, func(w http.ResponseWriter, r *http.Request, path string) bool {
			switch path {
			case "listSearchOptions/Ticket":
				fmt.Fprint(w, `{}`)
			case "search/Ticket":
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `["ERROR_FIELD_NOT_FOUND", "unknown field"]`)
			default:
				return false
			}
			return true
		})

		_, err := NewClient().SearchTickets(context.Background(), cfg, nil, "2024-01-01", "2024-01-31")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ERROR_FIELD_NOT_FOUND")
	})
}

func TestListGroups(t *testing.T) {
	t.Run("FiltersAndSorts", func(t *testing.T) {
		cfg := newFakeGLPI(t, func(w http.ResponseWriter, path string) bool {
			if path != "Group" {
				return false
			}
			fmt.Fprint(w, `[
				{"id": 3, "name": "Support", "completename": "IT > Support"},
				{"id": 0, "name": "Root", "completename": "Root"},
				{"id": 5, "name": "", "completename": "Nameless"},
				{"id": 2, "name": "Helpdesk", "completename": ""},
				{"id": 4, "name": "Admins", "completename": "IT > Admins"}
			]`)
			return true
		})

		groups, err := NewClient().ListGroups(context.Background(), cfg)
		require.NoError(t, err)
		require.Len(t, groups, 3)

		assert.Equal(t, Group{ID: 2, Name: "Helpdesk", CompleteName: "Helpdesk"}, groups[0])
		assert.Equal(t, Group{ID: 4, Name: "Admins", CompleteName: "IT > Admins"}, groups[1])
		assert.Equal(t, Group{ID: 3, Name: "Support", CompleteName: "IT > Support"}, groups[2])
	})

	t.Run("ErrorPropagates", func(t *testing.T) {
		cfg := newFakeGLPI(t, nil)

		_, err := NewClient().ListGroups(context.Background(), cfg)
		assert.Error(t, err)
	})
}

// newFakeGLPIWithRequest is newFakeGLPI with access to the raw request, for
// tests that assert on query parameters.
func newFakeGLPIWithRequest(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, path string) bool) Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/apirest.php/")
		switch path {
		case "initSession":
			fmt.Fprint(w, `{"session_token": "test-session"}`)
		case "killSession":
			fmt.Fprint(w, `{}`)
		default:
			if handle != nil && handle(w, r, path) {
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return Config{BaseURL: srv.URL, AppToken: "app", UserToken: "user"}
}
