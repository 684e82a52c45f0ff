package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthResponse is the body of a successful login or tenant selection. The
// user payload is left raw for the session decoder.
type AuthResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type selectTenantRequest struct {
	TenantID int `json:"tenantId"`
}

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Login exchanges email and password for a tenant-less token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		// Login carries no token, so a rejection can't mean expiry.
		var statusErr *StatusError
		switch {
		case errors.Is(err, ErrTokenExpired):
			return nil, ErrInvalidCredentials
		case errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusBadRequest):
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: %w", &StatusError{StatusCode: http.StatusOK, Body: "missing token"})
	}
	return &resp, nil
}

// SelectTenant exchanges token for one scoped to tenantID.
func (c *Client) SelectTenant(ctx context.Context, token string, tenantID int) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/select-tenant", token, selectTenantRequest{TenantID: tenantID}, &resp); err != nil {
		return nil, fmt.Errorf("select tenant: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("select tenant: %w", &StatusError{StatusCode: http.StatusOK, Body: "missing token"})
	}
	return &resp, nil
}

// ValidateToken issues a cheap authenticated request and discards the body.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	if err := c.do(ctx, http.MethodGet, "/projects", token, nil, nil); err != nil {
		return fmt.Errorf("validate token: %w", err)
	}
	return nil
}
