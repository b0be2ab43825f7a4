package workflows

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/sustainwear/donation-platform-go/models"
	provider "github.com/sustainwear/donation-platform-go/provider"
	store "github.com/sustainwear/donation-platform-go/store"
)

// Team manages charity staff memberships. Invites reuse the onboarding
// account-resolution step; removal is its mirror image, demoting a user back
// to DONOR once their last membership anywhere is gone.
type Team struct {
	orgs  store.Organisations
	users store.Users
	idp   provider.API
}

func NewTeam(orgs store.Organisations, users store.Users, idp provider.API) *Team {
	return &Team{orgs: orgs, users: users, idp: idp}
}

type TeamMember struct {
	ProviderUserID string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"` // "admin" or "member"
}

type InviteResult struct {
	IsNewUser    bool   `json:"is_new_user"`
	LoginEmail   string `json:"login_email"`
	TempPassword string `json:"temp_password,omitempty"`
}

// platformRoleFor maps a provider org role to the platform role stored in
// user metadata.
func platformRoleFor(orgRole string) string {
	if orgRole == provider.OrgRoleAdmin {
		return models.RoleOrgAdmin
	}
	return models.RoleOrgStaff
}

// InviteMember resolves or creates an account for email and grants it a
// membership with the given provider org role.
func (t *Team) InviteMember(ctx context.Context, organisationID primitive.ObjectID, email, name, orgRole string) (*InviteResult, error) {
	org, err := t.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return nil, ErrOrganisationNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load organisation", Err: err}
	}

	existing, err := t.idp.ListUsersByEmail(ctx, email)
	if err != nil {
		return nil, &ProviderError{Op: "list users", Err: err}
	}

	var (
		userID       string
		isNewUser    bool
		tempPassword string
	)

	if len(existing) > 0 {
		userID = existing[0].ID

		memberships, err := t.idp.ListOrganizationMemberships(ctx, org.ProviderOrgID)
		if err != nil {
			return nil, &ProviderError{Op: "list organization memberships", Err: err}
		}
		for _, m := range memberships {
			if m.UserID == userID {
				return nil, ErrAlreadyMember
			}
		}

		// Promote donors joining a charity team; anyone already holding an
		// org role keeps it.
		current := existing[0].Metadata.Role
		if current == "" || current == models.RoleDonor {
			err = t.idp.UpdateUserMetadata(ctx, userID, provider.Metadata{
				Role:                  platformRoleFor(orgRole),
				DefaultOrganisationID: org.ProviderOrgID,
			})
			if err != nil {
				return nil, &ProviderError{Op: "update user metadata", Err: err}
			}
			if err := t.users.UpdateRoleBinding(ctx, userID, platformRoleFor(orgRole), org.ProviderOrgID); err != nil {
				log.Printf("could not mirror role for user %s: %v", userID, err)
			}
		}
	} else {
		isNewUser = true
		tempPassword = GenerateTempPassword()
		firstName, lastName := splitName(name, "Team", "Member")

		user, err := t.idp.CreateUser(ctx, provider.CreateUserParams{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Username:  makeUsername(email),
			Password:  tempPassword,
			Metadata: provider.Metadata{
				Role:                  platformRoleFor(orgRole),
				DefaultOrganisationID: org.ProviderOrgID,
			},
		})
		if err != nil {
			return nil, &ProviderError{Op: "create user", Err: err}
		}
		userID = user.ID

		if err := t.idp.VerifyEmailAddress(ctx, userID, email); err != nil {
			log.Printf("could not auto-verify email for %s: %v", email, err)
		}

		now := time.Now()
		mirror := &models.User{
			ID:                   primitive.NewObjectID(),
			ProviderUserID:       userID,
			Email:                email,
			Name:                 name,
			PlatformRole:         platformRoleFor(orgRole),
			DefaultProviderOrgID: org.ProviderOrgID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := t.users.Insert(ctx, mirror); err != nil {
			log.Printf("could not mirror invited user %s locally: %v", userID, err)
		}
	}

	if err := t.idp.CreateOrganizationMembership(ctx, org.ProviderOrgID, userID, orgRole); err != nil {
		return nil, &ProviderError{Op: "create organization membership", Err: err}
	}

	res := &InviteResult{IsNewUser: isNewUser, LoginEmail: email}
	if isNewUser {
		res.TempPassword = tempPassword
	}
	return res, nil
}

// RemoveMember deletes the membership and, only when the user has no
// memberships left anywhere, demotes them back to DONOR and clears the org
// binding.
func (t *Team) RemoveMember(ctx context.Context, organisationID primitive.ObjectID, providerUserID string) error {
	org, err := t.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return ErrOrganisationNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "load organisation", Err: err}
	}

	err = t.idp.DeleteOrganizationMembership(ctx, org.ProviderOrgID, providerUserID)
	if err != nil && !provider.IsNotFound(err) {
		return &ProviderError{Op: "delete organization membership", Err: err}
	}

	remaining, err := t.idp.ListUserMemberships(ctx, providerUserID)
	if err != nil {
		log.Printf("could not list memberships for user %s after removal: %v", providerUserID, err)
		return nil
	}
	if len(remaining) > 0 {
		return nil
	}

	if err := t.idp.UpdateUserMetadata(ctx, providerUserID, provider.Metadata{
		Role:                  models.RoleDonor,
		DefaultOrganisationID: "",
	}); err != nil {
		log.Printf("could not demote user %s: %v", providerUserID, err)
		return nil
	}
	if err := t.users.UpdateRoleBinding(ctx, providerUserID, models.RoleDonor, ""); err != nil {
		log.Printf("could not mirror demotion for user %s: %v", providerUserID, err)
	}
	return nil
}

// ChangeMemberRole updates the membership role and keeps the platform role in
// provider metadata and the local mirror in step.
func (t *Team) ChangeMemberRole(ctx context.Context, organisationID primitive.ObjectID, providerUserID, orgRole string) error {
	org, err := t.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return ErrOrganisationNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "load organisation", Err: err}
	}

	if err := t.idp.UpdateOrganizationMembership(ctx, org.ProviderOrgID, providerUserID, orgRole); err != nil {
		return &ProviderError{Op: "update organization membership", Err: err}
	}
	if err := t.idp.UpdateUserMetadata(ctx, providerUserID, provider.Metadata{
		Role:                  platformRoleFor(orgRole),
		DefaultOrganisationID: org.ProviderOrgID,
	}); err != nil {
		return &ProviderError{Op: "update user metadata", Err: err}
	}
	if err := t.users.UpdateRoleBinding(ctx, providerUserID, platformRoleFor(orgRole), org.ProviderOrgID); err != nil {
		log.Printf("could not mirror role change for user %s: %v", providerUserID, err)
	}
	return nil
}

// ListMembers joins the provider membership list with per-user lookups.
// Users that fail to resolve are skipped rather than failing the whole list.
func (t *Team) ListMembers(ctx context.Context, organisationID primitive.ObjectID) ([]TeamMember, error) {
	org, err := t.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return nil, ErrOrganisationNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load organisation", Err: err}
	}

	memberships, err := t.idp.ListOrganizationMemberships(ctx, org.ProviderOrgID)
	if err != nil {
		return nil, &ProviderError{Op: "list organization memberships", Err: err}
	}

	members := []TeamMember{}
	for _, m := range memberships {
		user, err := t.idp.GetUser(ctx, m.UserID)
		if err != nil {
			log.Printf("could not fetch user %s: %v", m.UserID, err)
			continue
		}
		role := "member"
		if m.Role == provider.OrgRoleAdmin {
			role = "admin"
		}
		name := user.FirstName
		if user.LastName != "" {
			name += " " + user.LastName
		}
		members = append(members, TeamMember{
			ProviderUserID: m.UserID,
			Name:           name,
			Email:          user.Email,
			Role:           role,
		})
	}
	return members, nil
}
