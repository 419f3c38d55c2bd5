package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// userResolver memoizes user-ID-to-name lookups within one session. Both
// in-flight and completed lookups are cached, so concurrent resolutions of
// the same ID during a fan-out collapse into a single HTTP call. A resolver
// must not outlive its session: the token becomes invalid on kill.
type userResolver struct {
	client *Client
	sess   session

	mu      sync.Mutex
	entries map[int]*userEntry
}

type userEntry struct {
	done chan struct{}
	name string
}

func newUserResolver(client *Client, sess session) *userResolver {
	return &userResolver{
		client:  client,
		sess:    sess,
		entries: make(map[int]*userEntry),
	}
}

// Resolve returns the display name for a user ID. Zero IDs short-circuit to
// the placeholder without a network call; any fetch failure also yields the
// placeholder, never an error, so name resolution cannot abort a larger
// fetch.
func (r *userResolver) Resolve(ctx context.Context, userID int) string {
	if userID == 0 {
		return UnknownUser
	}

	r.mu.Lock()
	if entry, ok := r.entries[userID]; ok {
		r.mu.Unlock()
		<-entry.done
		return entry.name
	}
	entry := &userEntry{done: make(chan struct{})}
	r.entries[userID] = entry
	r.mu.Unlock()

	entry.name = r.fetch(ctx, userID)
	close(entry.done)
	return entry.name
}

func (r *userResolver) fetch(ctx context.Context, userID int) string {
	status, body, err := r.client.get(ctx, r.sess, fmt.Sprintf("User/%d", userID), nil)
	if err != nil || status < 200 || status >= 300 {
		return UnknownUser
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return UnknownUser
	}
	if user.FirstName != "" && user.RealName != "" {
		return user.FirstName + " " + user.RealName
	}
	if user.Name != "" {
		return user.Name
	}
	return UnknownUser
}
