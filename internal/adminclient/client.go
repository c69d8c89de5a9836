// Package adminclient provides an HTTP client for the famledger admin API.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// User is an authorized family member as returned by the admin API.
type User struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Name      string    `json:"name"`
	FamilyID  string    `json:"family_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserPage is one page of users.
type UserPage struct {
	Data       []User `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int64  `json:"total_items"`
	TotalPages int    `json:"total_pages"`
}

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client communicates with the famledger admin API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new admin API client.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// RefreshAuth asks the bot to reload its authorized users and returns the
// number of users loaded.
func (c *Client) RefreshAuth(ctx context.Context) (int, error) {
	var result struct {
		AuthorizedUsers int `json:"authorized_users"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/auth/refresh", nil, &result); err != nil {
		return 0, fmt.Errorf("refreshing authorization: %w", err)
	}
	return result.AuthorizedUsers, nil
}

// ListUsers fetches one page of authorized users.
func (c *Client) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	path := "/api/v1/admin/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result UserPage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return &result, nil
}

// CreateUser provisions a family member.
func (c *Client) CreateUser(ctx context.Context, chatID int64, name, familyID string) (*User, error) {
	body := struct {
		ChatID   int64  `json:"chat_id"`
		Name     string `json:"name"`
		FamilyID string `json:"family_id"`
	}{ChatID: chatID, Name: name, FamilyID: familyID}

	var result struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/users", body, &result); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &result.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
