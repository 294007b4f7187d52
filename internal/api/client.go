// Package api implements the HTTP client for the investor-directory backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pschneider14/venturelens/internal/domain"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the current bearer credential at request-build time,
// so a logout is observed by every request issued afterwards.
type TokenSource interface {
	Token() (string, bool)
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() (string, bool)

func (f TokenFunc) Token() (string, bool) { return f() }

// HTTPError is a non-2xx response that is neither an authentication nor a
// quota rejection.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the investor-directory API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates an API client. tokens may be nil for a client that only ever
// performs unauthenticated calls.
func New(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}

	var resp struct {
		Access      string `json:"access"`
		AccessToken string `json:"access_token"`
	}
	if err := c.post(ctx, "/login/", body, &resp); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("api.Login: %w", err)
	}

	token := resp.Access
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("api.Login: no token in response")
	}
	return token, nil
}

// Register creates a new account. The caller logs in separately afterwards.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.post(ctx, "/register/", body, nil); err != nil {
		return fmt.Errorf("api.Register: %w", err)
	}
	return nil
}

// investorsResponse is the wire shape of the paginated directory listing.
type investorsResponse struct {
	Count    int                     `json:"count"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
	Results  []domain.InvestorRecord `json:"results"`
}

// ListInvestors fetches one directory page for the given query snapshot.
// When the snapshot carries a cursor, the cursor URL is fetched as-is; the
// client never parses or constructs cursor contents.
func (c *Client) ListInvestors(ctx context.Context, q domain.QueryState) (*domain.ResultPage, error) {
	endpoint := q.Cursor
	if endpoint == "" {
		params := url.Values{}
		if s := strings.TrimSpace(q.Search); s != "" {
			params.Set("search", s)
		}
		for _, d := range q.Domains {
			params.Add("domain", d)
		}
		for _, r := range q.Regions {
			params.Add("region", r)
		}
		if q.Stage != "" {
			params.Set("stage", string(q.Stage))
		}
		endpoint = c.baseURL + "/investors/"
		if encoded := params.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}
	}

	var resp investorsResponse
	if err := c.getURL(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("api.ListInvestors: %w", err)
	}

	page := &domain.ResultPage{
		Items:      resp.Results,
		TotalCount: resp.Count,
	}
	if resp.Next != nil {
		page.NextCursor = *resp.Next
	}
	if resp.Previous != nil {
		page.PrevCursor = *resp.Previous
	}
	return page, nil
}

// SubscriptionStatus fetches the authoritative access state.
func (c *Client) SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error) {
	var status domain.SubscriptionStatus
	if err := c.get(ctx, "/subscription/status/", &status); err != nil {
		return nil, fmt.Errorf("api.SubscriptionStatus: %w", err)
	}
	return &status, nil
}

// Plans lists the purchasable subscription plans.
func (c *Client) Plans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	var plans []domain.SubscriptionPlan
	if err := c.get(ctx, "/subscription/plans/", &plans); err != nil {
		return nil, fmt.Errorf("api.Plans: %w", err)
	}
	return plans, nil
}

// Subscribe purchases a plan and returns the refreshed status.
func (c *Client) Subscribe(ctx context.Context, planID string) (*domain.SubscriptionStatus, error) {
	if err := c.post(ctx, "/subscription/subscribe/", map[string]string{"plan": planID}, nil); err != nil {
		return nil, fmt.Errorf("api.Subscribe: %w", err)
	}
	return c.SubscriptionStatus(ctx)
}

// Domains lists the selectable domain filter options.
func (c *Client) Domains(ctx context.Context) ([]domain.NamedOption, error) {
	var opts []domain.NamedOption
	if err := c.get(ctx, "/domains/", &opts); err != nil {
		return nil, fmt.Errorf("api.Domains: %w", err)
	}
	return opts, nil
}

// Regions lists the selectable region filter options.
func (c *Client) Regions(ctx context.Context) ([]domain.NamedOption, error) {
	var opts []domain.NamedOption
	if err := c.get(ctx, "/regions/", &opts); err != nil {
		return nil, fmt.Errorf("api.Regions: %w", err)
	}
	return opts, nil
}

// Ping reports whether the backend is reachable. Any HTTP response counts,
// including 401: reachability is about transport, not authorization.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domains/", nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: "ping", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, c.baseURL+path, nil, out)
}

func (c *Client) getURL(ctx context.Context, fullURL string, out any) error {
	return c.doRequest(ctx, http.MethodGet, fullURL, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, c.baseURL+path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, fullURL string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// mapError translates the two authoritative rejection signals into their
// sentinel errors and wraps everything else as an HTTPError.
func (c *Client) mapError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if readErr != nil {
		respBody = nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("server rejected credential: %w", domain.ErrUnauthenticated)
	case http.StatusForbidden:
		return fmt.Errorf("server denied access: %w", domain.ErrAccessDenied)
	}

	var apiErr struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	message := strings.TrimSpace(string(respBody))
	if json.Unmarshal(respBody, &apiErr) == nil {
		switch {
		case apiErr.Message != "":
			message = apiErr.Message
		case apiErr.Detail != "":
			message = apiErr.Detail
		case apiErr.Error != "":
			message = apiErr.Error
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: message}
}
