// Package client implements the rider app's authentication flow against the
// wasil-auth HTTP API: phone entry, code entry with resend cooldown, profile
// setup for new users, and a locally persisted session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// State is the client's position in the auth flow
type State int

const (
	StateUninitialized State = iota
	StateUnauthenticated
	StateCodeEntry
	StateProfileSetup
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCodeEntry:
		return "code_entry"
	case StateProfileSetup:
		return "profile_setup"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var (
	// ErrBusy is returned while a request for the same action is outstanding
	ErrBusy = errors.New("request already in flight")
	// ErrResendCooldown is returned when resend is requested before the
	// countdown elapses
	ErrResendCooldown = errors.New("resend cooldown has not elapsed")
	// ErrInvalidState is returned when an operation does not apply to the
	// current state
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrNotAuthenticated is returned when no session is held
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// User mirrors the server's user JSON
type User struct {
	ID           string  `json:"id"`
	Phone        string  `json:"phone"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	UserType     string  `json:"user_type"`
	ProfilePhoto string  `json:"profile_photo"`
	Rating       float64 `json:"rating"`
	IsVerified   bool    `json:"is_verified"`
	Language     string  `json:"language"`
}

// ProfileUpdate carries the mutable profile fields for CompleteProfile
type ProfileUpdate struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ProfilePhoto *string `json:"profile_photo,omitempty"`
	Language     *string `json:"language,omitempty"`
}

// Config configures a Client
type Config struct {
	BaseURL string
	Store   SessionStore
	// HTTPClient defaults to a client with a 15s timeout
	HTTPClient *http.Client
	// ResendCooldown gates the resend affordance; defaults to 30s
	ResendCooldown time.Duration
}

// Client drives the auth flow. All methods are safe for concurrent use; at
// most one request per action is in flight at a time.
type Client struct {
	baseURL  string
	httpc    *http.Client
	store    SessionStore
	cooldown time.Duration
	now      func() time.Time

	mu           sync.Mutex
	state        State
	session      *Session
	pendingPhone string
	resendAt     time.Time
	inflight     map[string]bool
}

// New creates a client in the Uninitialized state; call Init before use.
func New(cfg Config) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	cooldown := cfg.ResendCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		httpc:    httpc,
		store:    store,
		cooldown: cooldown,
		now:      time.Now,
		state:    StateUninitialized,
		inflight: make(map[string]bool),
	}
}

// Init loads the persisted session and resolves the startup state: a stored
// token means Authenticated, anything else means Unauthenticated. The token
// is advisory; a stale one surfaces as a 401 on the next request.
func (c *Client) Init(ctx context.Context) (State, error) {
	session, err := c.store.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || session == nil || session.Token == "" {
		c.state = StateUnauthenticated
		return c.state, err
	}
	c.session = session
	c.state = StateAuthenticated
	return c.state, nil
}

// State returns the current flow state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the cached user copy, if any
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	u := c.session.User
	return &u
}

// Token returns the held bearer token, empty when unauthenticated
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// ResendWait reports how long until the resend affordance unlocks
func (c *Client) ResendWait() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	wait := c.resendAt.Sub(c.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// RequestCode submits the phone number and moves to code entry. The resend
// countdown restarts on every successful send.
func (c *Client) RequestCode(ctx context.Context, phone, countryCode string) error {
	if err := c.acquire("send"); err != nil {
		return err
	}
	defer c.release("send")

	var resp struct {
		Success bool   `json:"success"`
		Phone   string `json:"phone"`
	}
	body := map[string]string{"phone": phone}
	if countryCode != "" {
		body["country_code"] = countryCode
	}
	if err := c.do(ctx, http.MethodPost, "/auth/send-otp", "", body, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingPhone = resp.Phone
	c.state = StateCodeEntry
	c.resendAt = c.now().Add(c.cooldown)
	return nil
}

// ResendCode requests a fresh code for the pending phone, gated by the
// cooldown. The previous code is invalidated server-side.
func (c *Client) ResendCode(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateCodeEntry {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.resendAt.After(c.now()) {
		c.mu.Unlock()
		return ErrResendCooldown
	}
	phone := c.pendingPhone
	c.mu.Unlock()

	return c.RequestCode(ctx, phone, "")
}

// VerifyCode submits the entered code. On success the session is persisted
// and the flow moves to ProfileSetup for new users or Authenticated
// otherwise. On failure the state is unchanged so the UI can clear the boxes
// and retry.
func (c *Client) VerifyCode(ctx context.Context, code string) (isNewUser bool, err error) {
	c.mu.Lock()
	if c.state != StateCodeEntry {
		c.mu.Unlock()
		return false, ErrInvalidState
	}
	phone := c.pendingPhone
	c.mu.Unlock()

	if err := c.acquire("verify"); err != nil {
		return false, err
	}
	defer c.release("verify")

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		User    struct {
			User
			IsNewUser bool `json:"is_new_user"`
		} `json:"user"`
	}
	body := map[string]string{"phone": phone, "otp": code}
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", "", body, &resp); err != nil {
		return false, err
	}

	session := &Session{Token: resp.Token, User: resp.User.User}
	if err := c.store.Save(session); err != nil {
		return false, fmt.Errorf("failed to persist session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	c.pendingPhone = ""
	if resp.User.IsNewUser {
		c.state = StateProfileSetup
	} else {
		c.state = StateAuthenticated
	}
	return resp.User.IsNewUser, nil
}

// CompleteProfile submits the profile setup form and finishes onboarding
func (c *Client) CompleteProfile(ctx context.Context, update ProfileUpdate) error {
	c.mu.Lock()
	if c.state != StateProfileSetup && c.state != StateAuthenticated {
		c.mu.Unlock()
		return ErrInvalidState
	}
	token := ""
	if c.session != nil {
		token = c.session.Token
	}
	c.mu.Unlock()
	if token == "" {
		return ErrNotAuthenticated
	}

	if err := c.acquire("profile"); err != nil {
		return err
	}
	defer c.release("profile")

	var resp struct {
		Success bool `json:"success"`
		User    User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, update, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		if resp.User.FirstName != "" {
			c.session.User.FirstName = resp.User.FirstName
		}
		if resp.User.LastName != "" {
			c.session.User.LastName = resp.User.LastName
		}
		if resp.User.Email != "" {
			c.session.User.Email = resp.User.Email
		}
		if resp.User.ProfilePhoto != "" {
			c.session.User.ProfilePhoto = resp.User.ProfilePhoto
		}
		if resp.User.Language != "" {
			c.session.User.Language = resp.User.Language
		}
		_ = c.store.Save(c.session)
	}
	c.state = StateAuthenticated
	return nil
}

// Profile fetches the authoritative profile from the server and refreshes
// the cached copy.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	if err := c.acquire("me"); err != nil {
		return nil, err
	}
	defer c.release("me")

	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.User = user
		_ = c.store.Save(c.session)
	}
	return &user, nil
}

// Logout clears the local session. The server call is best effort: tokens
// are stateless so a failed logout request changes nothing server-side.
func (c *Client) Logout(ctx context.Context) error {
	token := c.Token()
	if token != "" {
		if err := c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil); err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				return err
			}
		}
	}

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.pendingPhone = ""
	c.state = StateUnauthenticated
	return nil
}

func (c *Client) acquire(action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[action] {
		return ErrBusy
	}
	c.inflight[action] = true
	return nil
}

func (c *Client) release(action string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, action)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
