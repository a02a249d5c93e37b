package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bissquit/stockroom/internal/domain"
)

// HTTPRoleChecker confirms tokens against the server's role
// introspection endpoint.
type HTTPRoleChecker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRoleChecker creates a checker for the given API base URL,
// e.g. "http://localhost:8080/api/v1".
func NewHTTPRoleChecker(baseURL string, client *http.Client) *HTTPRoleChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRoleChecker{baseURL: baseURL, client: client}
}

// CheckRole asks the server which role the token carries. Any non-200
// response means the token is no longer usable.
func (c *HTTPRoleChecker) CheckRole(ctx context.Context, token string) (domain.Role, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/role", nil)
	if err != nil {
		return "", fmt.Errorf("build role request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("role request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("role request: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			Role domain.Role `json:"role"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode role response: %w", err)
	}
	if !body.Data.Role.IsValid() {
		return "", fmt.Errorf("role request: unknown role %q", body.Data.Role)
	}
	return body.Data.Role, nil
}
