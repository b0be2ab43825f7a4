package provider

import (
	"context"
	"fmt"
	"net/http"
)

// Org role names on the provider side.
const (
	OrgRoleAdmin  = "org:admin"
	OrgRoleMember = "org:member"
)

// Metadata keys carried in a user's private metadata. The provider is
// authoritative for both; local records are a cache.
type Metadata struct {
	Role                  string `json:"role,omitempty"`
	DefaultOrganisationID string `json:"default_organisation_id,omitempty"`
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email_address"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Username  string   `json:"username"`
	Banned    bool     `json:"banned"`
	Metadata  Metadata `json:"private_metadata"`
}

type Membership struct {
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
}

type CreateUserParams struct {
	Email     string
	FirstName string
	LastName  string
	Username  string
	Password  string
	Metadata  Metadata
}

// API is the slice of the identity/organisation provider the platform uses.
// All calls are synchronous request/response.
type API interface {
	CreateOrganization(ctx context.Context, name, slug string) (*Organization, error)
	DeleteOrganization(ctx context.Context, orgID string) error

	ListUsersByEmail(ctx context.Context, email string) ([]User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	CreateUser(ctx context.Context, p CreateUserParams) (*User, error)
	UpdateUserMetadata(ctx context.Context, userID string, md Metadata) error
	VerifyEmailAddress(ctx context.Context, userID, email string) error
	DeleteUser(ctx context.Context, userID string) error
	BanUser(ctx context.Context, userID string) error
	UnbanUser(ctx context.Context, userID string) error

	CreateOrganizationMembership(ctx context.Context, orgID, userID, role string) error
	UpdateOrganizationMembership(ctx context.Context, orgID, userID, role string) error
	DeleteOrganizationMembership(ctx context.Context, orgID, userID string) error
	ListOrganizationMemberships(ctx context.Context, orgID string) ([]Membership, error)
	ListUserMemberships(ctx context.Context, userID string) ([]Membership, error)
}

// APIError is a failed provider call. Status carries the provider's HTTP
// status and Body its raw response for diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.Status, e.Body)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}
