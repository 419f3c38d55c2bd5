// Package glpi implements a read-only client for the GLPI REST API. It
// aggregates a ticket and its sub-resources into a single timeline view and
// runs paginated monitor searches. Sessions are opened per operation and
// closed best-effort; the client never writes to GLPI.
package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// UnknownUser is returned whenever a user ID cannot be resolved to a name.
const UnknownUser = "Unknown user"

// Unassigned is the assignee shown when a ticket has no assigned technician.
const Unassigned = "Unassigned"

// Client talks to a GLPI installation. It is safe for concurrent use; the
// only mutable state is the tag-field discovery memo, guarded by sync.Once.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  *Sanitizer

	tagOnce       sync.Once
	tagFieldID    int
	tagFieldKnown bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a GLPI client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		sanitizer:  NewSanitizer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var apiSuffixRe = regexp.MustCompile(`(?i)/apirest\.php$`)

// NormalizeBaseURL strips trailing slashes and a trailing /apirest.php
// segment so stored URLs can be entered either way.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	return apiSuffixRe.ReplaceAllString(trimmed, "")
}

func apiURL(cfg Config, path string) string {
	return NormalizeBaseURL(cfg.BaseURL) + "/apirest.php/" + strings.TrimPrefix(path, "/")
}

// session is one short-lived authenticated GLPI session. It is created per
// logical operation and never reused after killSession.
type session struct {
	cfg   Config
	token string
}

// initSession authenticates with the app token and the user's personal token
// and returns a session token.
func (c *Client) initSession(ctx context.Context, cfg Config) (session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL(cfg, "initSession"), nil)
	if err != nil {
		return session{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("App-Token", cfg.AppToken)
	req.Header.Set("Authorization", "user_token "+cfg.UserToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if detail := parseAPIError(body); detail != "" {
			return session{}, fmt.Errorf("failed to open session: %s", detail)
		}
		return session{}, fmt.Errorf("failed to open session (HTTP %d)", resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return session{}, fmt.Errorf("failed to parse session response: %w", err)
	}
	return session{cfg: cfg, token: sr.SessionToken}, nil
}

// killSession closes a session. Best-effort: any failure is swallowed so
// that cleanup never masks the outcome of the operation it guards.
func (c *Client) killSession(ctx context.Context, sess session) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL(sess.cfg, "killSession"), nil)
	if err != nil {
		return
	}
	req.Header.Set("App-Token", sess.cfg.AppToken)
	req.Header.Set("Session-Token", sess.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("kill session failed", "error", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// get performs an authenticated GET within a session and returns the status
// code and raw body. Callers decide how failures degrade.
func (c *Client) get(ctx context.Context, sess session, path string, query url.Values) (int, []byte, error) {
	u := apiURL(sess.cfg, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("App-Token", sess.cfg.AppToken)
	req.Header.Set("Session-Token", sess.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// parseAPIError extracts a human-readable message from a GLPI error body.
// GLPI reports errors either as a two-element array ["CODE", "message"], as
// an object with numeric-string keys mimicking that array, or as an object
// carrying a message/error field. Returns "" if no structured error is found.
func parseAPIError(body []byte) string {
	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil && len(arr) > 0 {
		code := rawToString(arr[0])
		if len(arr) > 1 {
			if msg := rawToString(arr[1]); msg != "" {
				return code + ": " + msg
			}
		}
		return code
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	if code, ok := obj["0"]; ok {
		out := rawToString(code)
		if msg, ok := obj["1"]; ok {
			if m := rawToString(msg); m != "" {
				return out + ": " + m
			}
		}
		return out
	}
	if msg, ok := obj["message"]; ok {
		return rawToString(msg)
	}
	if msg, ok := obj["error"]; ok {
		return rawToString(msg)
	}
	return ""
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// glpiTimeLayouts covers the timestamp formats GLPI emits.
var glpiTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parseGLPITime parses a GLPI timestamp. Unparseable values sort last.
func parseGLPITime(value string) time.Time {
	for _, layout := range glpiTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
