package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/ponto/internal/model"
)

const pageSize = 500

// Client is an authenticated client of the punch backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client that authenticates with tok, refreshing and
// re-saving it through the token endpoint when it expires.
func NewClient(ctx context.Context, opts Options, tok *oauth2.Token) *Client {
	ts := oauth2Config(opts).TokenSource(ctx, tok)
	return &Client{
		httpClient: oauth2.NewClient(ctx, &savingTokenSource{ts: ts, path: opts.TokenPath}),
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
	}
}

// savingTokenSource wraps a TokenSource and persists refreshed tokens.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		// Best-effort save; ignore errors.
		_ = saveToken(s.path, tok)
		s.last = tok.AccessToken
	}
	return tok, nil
}

// APIError is a non-2xx backend response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Body)
}

// rowID accepts both numeric and string ids.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", b)
	}
	*id = rowID(n.String())
	return nil
}

// PunchRow is a time_entries row as the backend stores it.
type PunchRow struct {
	ID        rowID    `json:"id,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RegisterRequest is the payload of the employee registration function.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type profileRow struct {
	ID        string  `json:"id"`
	FullName  *string `json:"full_name"`
	WorkEmail *string `json:"work_email"`
	Role      *string `json:"role"`
}

// do sends a request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any, header http.Header) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &u, nil)
	return u, err
}

// FetchPunches returns the user's rows with from <= timestamp <= to, oldest first.
func (c *Client) FetchPunches(ctx context.Context, userID string, from, to time.Time) ([]PunchRow, error) {
	var all []PunchRow
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		q.Set("select", "id,user_id,type,timestamp,latitude,longitude")
		q.Set("user_id", "eq."+userID)
		q.Add("timestamp", "gte."+from.UTC().Format(time.RFC3339Nano))
		q.Add("timestamp", "lte."+to.UTC().Format(time.RFC3339Nano))
		q.Set("order", "timestamp.asc")
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page []PunchRow
		if err := c.do(ctx, http.MethodGet, "/rest/v1/time_entries", q, nil, &page, nil); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// InsertPunch stores p remotely and returns the row as the backend saved it.
func (c *Client) InsertPunch(ctx context.Context, p model.Punch) (PunchRow, error) {
	row := PunchRow{
		UserID:    p.UserID,
		Type:      string(p.Kind),
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339Nano),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
	var saved []PunchRow
	header := http.Header{"Prefer": {"return=representation"}}
	if err := c.do(ctx, http.MethodPost, "/rest/v1/time_entries", nil, []PunchRow{row}, &saved, header); err != nil {
		return PunchRow{}, err
	}
	if len(saved) == 0 {
		return PunchRow{}, fmt.Errorf("backend returned no row for inserted punch")
	}
	return saved[0], nil
}

// ListEmployees returns profiles with the given role (all when empty), by name.
func (c *Client) ListEmployees(ctx context.Context, role model.Role) ([]model.Employee, error) {
	q := url.Values{}
	q.Set("select", "id,full_name,work_email,role")
	if role != "" {
		q.Set("role", "eq."+string(role))
	}
	q.Set("order", "full_name.asc")

	var rows []profileRow
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &rows, nil); err != nil {
		return nil, err
	}
	out := make([]model.Employee, 0, len(rows))
	for _, r := range rows {
		e := model.Employee{ID: r.ID, Role: role}
		if r.FullName != nil {
			e.FullName = *r.FullName
		}
		if r.WorkEmail != nil {
			e.WorkEmail = *r.WorkEmail
		}
		if r.Role != nil {
			e.Role = model.Role(*r.Role)
		}
		out = append(out, e)
	}
	return out, nil
}

// RegisterEmployee creates an employee account through the backend function
// and returns the registered email.
func (c *Client) RegisterEmployee(ctx context.Context, req RegisterRequest) (string, error) {
	var resp struct {
		Email string `json:"email"`
	}
	if err := c.do(ctx, http.MethodPost, "/functions/v1/register-employee", nil, req, &resp, nil); err != nil {
		return "", err
	}
	if resp.Email == "" {
		return req.Email, nil
	}
	return resp.Email, nil
}
