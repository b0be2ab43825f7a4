package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the provider's backend REST API with a secret key.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a JSON request and decodes the response into out (when non-nil).
// Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %v", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %v", err)
		}
	}
	return nil
}

func (c *Client) CreateOrganization(ctx context.Context, name, slug string) (*Organization, error) {
	var org Organization
	err := c.do(ctx, http.MethodPost, "/organizations", map[string]string{
		"name": name,
		"slug": slug,
	}, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) DeleteOrganization(ctx context.Context, orgID string) error {
	return c.do(ctx, http.MethodDelete, "/organizations/"+url.PathEscape(orgID), nil, nil)
}

func (c *Client) ListUsersByEmail(ctx context.Context, email string) ([]User, error) {
	var out struct {
		Data []User `json:"data"`
	}
	path := "/users?email_address=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/users", map[string]any{
		"email_address":        []string{p.Email},
		"first_name":           p.FirstName,
		"last_name":            p.LastName,
		"username":             p.Username,
		"password":             p.Password,
		"skip_password_checks": true,
		"private_metadata":     p.Metadata,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, md Metadata) error {
	return c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID)+"/metadata", map[string]any{
		"private_metadata": md,
	}, nil)
}

// VerifyEmailAddress marks the address verified so the account can log in
// without an email round-trip.
func (c *Client) VerifyEmailAddress(ctx context.Context, userID, email string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/verify_email", map[string]string{
		"email_address": email,
	}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) BanUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/ban", nil, nil)
}

func (c *Client) UnbanUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/unban", nil, nil)
}

func (c *Client) CreateOrganizationMembership(ctx context.Context, orgID, userID, role string) error {
	return c.do(ctx, http.MethodPost, "/organizations/"+url.PathEscape(orgID)+"/memberships", map[string]string{
		"user_id": userID,
		"role":    role,
	}, nil)
}

func (c *Client) UpdateOrganizationMembership(ctx context.Context, orgID, userID, role string) error {
	path := "/organizations/" + url.PathEscape(orgID) + "/memberships/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodPatch, path, map[string]string{"role": role}, nil)
}

func (c *Client) DeleteOrganizationMembership(ctx context.Context, orgID, userID string) error {
	path := "/organizations/" + url.PathEscape(orgID) + "/memberships/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListOrganizationMemberships(ctx context.Context, orgID string) ([]Membership, error) {
	var out struct {
		Data []Membership `json:"data"`
	}
	path := "/organizations/" + url.PathEscape(orgID) + "/memberships"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) ListUserMemberships(ctx context.Context, userID string) ([]Membership, error) {
	var out struct {
		Data []Membership `json:"data"`
	}
	path := "/users/" + url.PathEscape(userID) + "/organization_memberships"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}
