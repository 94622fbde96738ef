package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// Client talks to the advisor service. Every operation makes exactly one
// attempt: no retry, no backoff, no caching. The caller decides whether to
// retry, and cancels via ctx; the client itself sets no timeout.
type Client struct {
	baseURL    string
	authURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session
}

// NewClient creates a client for the given API base and auth origins.
func NewClient(baseURL, authURL string) *Client {
	if authURL == "" {
		authURL = baseURL
	}
	return &Client{
		baseURL:    baseURL,
		authURL:    authURL,
		httpClient: &http.Client{},
	}
}

// SetSession installs the session whose bearer token is attached to
// subsequent requests. Pass nil to clear.
func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// Session returns the currently installed session, or nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// do performs a single request and returns the raw body for 2xx responses.
// Non-2xx responses become a *RemoteError carrying the server detail when
// the body had one; transport failures become a *NetworkError.
func (c *Client) do(ctx context.Context, op, method, rawURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s := c.Session(); s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Detail: extractDetail(data)}
	}
	return data, nil
}

// extractDetail pulls the server's error message out of a failure body.
// The service uses "detail" on auth routes and "error" elsewhere.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Error
}

func decode[T any](op string, data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	return &v, nil
}

// FetchPrediction triggers a prediction run and returns its result.
func (c *Client) FetchPrediction(ctx context.Context) (*PredictionResult, error) {
	data, err := c.do(ctx, "fetch prediction", http.MethodGet, c.baseURL+"/api/predict", nil)
	if err != nil {
		return nil, err
	}
	return decode[PredictionResult]("fetch prediction", data)
}

// FetchHistory returns past prediction runs in server order. An empty or
// absent list decodes to an empty slice, never nil.
func (c *Client) FetchHistory(ctx context.Context) ([]HistoryRun, error) {
	data, err := c.do(ctx, "fetch history", http.MethodGet, c.baseURL+"/api/history", nil)
	if err != nil {
		return nil, err
	}
	wrapper, err := decode[struct {
		History []HistoryRun `json:"history"`
	}]("fetch history", data)
	if err != nil {
		return nil, err
	}
	if wrapper.History == nil {
		return []HistoryRun{}, nil
	}
	return wrapper.History, nil
}

// InitPaperAccount resets the remote paper trading ledger and returns the
// post-reset state.
func (c *Client) InitPaperAccount(ctx context.Context) (*PortfolioState, error) {
	data, err := c.do(ctx, "init paper account", http.MethodPost, c.baseURL+"/api/paper/init", nil)
	if err != nil {
		return nil, err
	}
	return decode[PortfolioState]("init paper account", data)
}

// PlaceTrade submits a paper trade. Quantity is forwarded as-is beyond a
// basic positivity check; the service is the authority on rejection.
func (c *Client) PlaceTrade(ctx context.Context, action TradeAction, quantity int) (*TradeResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("place trade: quantity must be positive, got %d", quantity)
	}
	q := url.Values{}
	q.Set("action", string(action))
	q.Set("quantity", strconv.Itoa(quantity))
	data, err := c.do(ctx, "place trade", http.MethodPost, c.baseURL+"/api/paper/trade?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decode[TradeResult]("place trade", data)
}

// FetchPortfolio returns the current paper account snapshot.
func (c *Client) FetchPortfolio(ctx context.Context) (*PortfolioState, error) {
	data, err := c.do(ctx, "fetch portfolio", http.MethodGet, c.baseURL+"/api/paper/portfolio", nil)
	if err != nil {
		return nil, err
	}
	return decode[PortfolioState]("fetch portfolio", data)
}

// Login authenticates and returns the session. The session is NOT installed
// on the client; the caller decides when to adopt it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("login: encoding request: %w", err)
	}
	data, err := c.do(ctx, "login", http.MethodPost, c.authURL+"/auth/login", body)
	if err != nil {
		return nil, err
	}
	resp, err := decode[struct {
		Token string `json:"token"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}]("login", data)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &ParseError{Op: "login", Err: fmt.Errorf("response carried no token")}
	}
	return &Session{
		Token: resp.Token,
		User:  Profile{Name: resp.Name, Email: resp.Email},
	}, nil
}

// Signup registers a new account and returns the server message.
func (c *Client) Signup(ctx context.Context, name, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("signup: encoding request: %w", err)
	}
	data, err := c.do(ctx, "signup", http.MethodPost, c.authURL+"/auth/signup", body)
	if err != nil {
		return "", err
	}
	resp, err := decode[struct {
		Message string `json:"message"`
	}]("signup", data)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
