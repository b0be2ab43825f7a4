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

// Onboarding converts PENDING charity applications into live organisations
// across the identity provider and the local store. The two systems share no
// transaction, so steps run in a fixed order with compensating deletes for
// the provider-side effects, and the hardest-to-reverse step (marking the
// application approved) runs last.
type Onboarding struct {
	apps      store.Applications
	orgs      store.Organisations
	users     store.Users
	donations store.Donations
	idp       provider.API

	// AllowAccountUpgrade switches the duplicate-email policy: when false
	// (the default) an application whose contact email already has an
	// account is rejected outright; when true the existing account is
	// promoted to ORG_ADMIN and bound to the new organisation instead.
	AllowAccountUpgrade bool
}

func NewOnboarding(apps store.Applications, orgs store.Organisations, users store.Users, donations store.Donations, idp provider.API) *Onboarding {
	return &Onboarding{apps: apps, orgs: orgs, users: users, donations: donations, idp: idp}
}

// ApprovalResult is what the admin UI renders after a successful approval.
// TempPassword is set only when a brand-new account was created; it is shown
// exactly once and never stored.
type ApprovalResult struct {
	Organisation *models.Organisation `json:"organisation"`
	LoginEmail   string               `json:"login_email"`
	TempPassword string               `json:"temp_password,omitempty"`
	IsNewUser    bool                 `json:"is_new_user"`
}

// ApproveApplication runs the onboarding sequence for a PENDING application.
func (o *Onboarding) ApproveApplication(ctx context.Context, applicationID primitive.ObjectID) (*ApprovalResult, error) {
	app, err := o.apps.FindByID(ctx, applicationID)
	if err == store.ErrNotFound {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load application", Err: err}
	}

	switch app.Status {
	case models.ApplicationPending:
	case models.ApplicationApproved:
		return nil, ErrAlreadyApproved
	case models.ApplicationRejected:
		return nil, ErrAlreadyRejected
	default:
		return nil, ErrAlreadyRejected
	}

	if app.ContactEmail == "" {
		return nil, ErrNoContactEmail
	}

	email := app.ContactEmail
	existing, err := o.idp.ListUsersByEmail(ctx, email)
	if err != nil {
		return nil, &ProviderError{Op: "list users", Err: err}
	}
	if len(existing) > 0 && !o.AllowAccountUpgrade {
		return nil, ErrEmailInUse
	}

	// Provider organisation first: nothing to roll back if it fails.
	slug := MakeUniqueSlug(app.OrgName)
	org, err := o.idp.CreateOrganization(ctx, app.OrgName, slug)
	if err != nil {
		return nil, &ProviderError{Op: "create organization", Err: err}
	}

	var (
		adminUserID  string
		tempPassword string
		isNewUser    bool
	)

	if len(existing) > 0 {
		// Upgrade path: promote the existing account in place.
		adminUserID = existing[0].ID
		err = o.idp.UpdateUserMetadata(ctx, adminUserID, provider.Metadata{
			Role:                  models.RoleOrgAdmin,
			DefaultOrganisationID: org.ID,
		})
		if err != nil {
			o.compensateOrg(ctx, org.ID)
			return nil, &ProviderError{Op: "update user metadata", Err: err}
		}
	} else {
		isNewUser = true
		tempPassword = GenerateTempPassword()
		firstName, lastName := splitName(app.ContactName, "Charity", "Admin")

		user, err := o.idp.CreateUser(ctx, provider.CreateUserParams{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Username:  makeUsername(email),
			Password:  tempPassword,
			Metadata: provider.Metadata{
				Role:                  models.RoleOrgAdmin,
				DefaultOrganisationID: org.ID,
			},
		})
		if err != nil {
			// Roll back the organisation so it is not left empty.
			o.compensateOrg(ctx, org.ID)
			return nil, &ProviderError{Op: "create user", Err: err}
		}
		adminUserID = user.ID

		// Verify the address so the admin can log in without an email
		// round-trip. Not fatal: the account still works after a manual verify.
		if err := o.idp.VerifyEmailAddress(ctx, adminUserID, email); err != nil {
			log.Printf("could not auto-verify email for %s: %v", email, err)
		}
	}

	if err := o.idp.CreateOrganizationMembership(ctx, org.ID, adminUserID, provider.OrgRoleAdmin); err != nil {
		// Known acceptable-orphan case: the org and account stay behind.
		log.Printf("membership grant failed for org %s user %s; provider objects remain: %v", org.ID, adminUserID, err)
		return nil, &ProviderError{Op: "create organization membership", Err: err}
	}

	now := time.Now()
	record := &models.Organisation{
		ID:            primitive.NewObjectID(),
		ProviderOrgID: org.ID,
		Name:          app.OrgName,
		ContactName:   app.ContactName,
		ContactEmail:  email,
		Approved:      true,
		Slug:          slug,
		CreatedAt:     now,
	}
	if err := o.orgs.Insert(ctx, record); err != nil {
		return nil, &PersistenceError{Op: "insert organisation", Err: err}
	}

	if isNewUser {
		mirror := &models.User{
			ID:                   primitive.NewObjectID(),
			ProviderUserID:       adminUserID,
			Email:                email,
			Name:                 app.ContactName,
			PlatformRole:         models.RoleOrgAdmin,
			DefaultProviderOrgID: org.ID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := o.users.Insert(ctx, mirror); err != nil {
			// The next authenticated access re-creates the row from
			// provider metadata, so only log it.
			log.Printf("could not mirror new admin user %s locally: %v", adminUserID, err)
		}
	}

	// Conditional flip is the real idempotency guard: losing it means a
	// concurrent approval already committed, so undo our copy.
	flipped, err := o.apps.TransitionStatus(ctx, applicationID, models.ApplicationPending, models.ApplicationApproved)
	if err != nil {
		return nil, &PersistenceError{Op: "mark application approved", Err: err}
	}
	if !flipped {
		o.compensateOrg(ctx, org.ID)
		if isNewUser {
			if err := o.idp.DeleteUser(ctx, adminUserID); err != nil && !provider.IsNotFound(err) {
				log.Printf("compensation: could not delete user %s: %v", adminUserID, err)
			}
			// The mirror row points at a provider account that no longer
			// exists, so read-time sync can never repair it.
			if err := o.users.DeleteByProviderUserID(ctx, adminUserID); err != nil {
				log.Printf("compensation: could not delete local user mirror %s: %v", adminUserID, err)
			}
		}
		if err := o.orgs.Delete(ctx, record.ID); err != nil {
			log.Printf("compensation: could not delete organisation record %s: %v", record.ID.Hex(), err)
		}
		return nil, ErrAlreadyApproved
	}

	return &ApprovalResult{
		Organisation: record,
		LoginEmail:   email,
		TempPassword: tempPassword,
		IsNewUser:    isNewUser,
	}, nil
}

// compensateOrg deletes a just-created provider organisation. Compensation
// failures are logged rather than escalated so they never mask the original
// error.
func (o *Onboarding) compensateOrg(ctx context.Context, providerOrgID string) {
	if err := o.idp.DeleteOrganization(ctx, providerOrgID); err != nil && !provider.IsNotFound(err) {
		log.Printf("compensation: could not delete provider organization %s: %v", providerOrgID, err)
	}
}

// RejectApplication flips a PENDING application to REJECTED. No provider
// effects are involved.
func (o *Onboarding) RejectApplication(ctx context.Context, applicationID primitive.ObjectID) error {
	app, err := o.apps.FindByID(ctx, applicationID)
	if err == store.ErrNotFound {
		return ErrApplicationNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "load application", Err: err}
	}
	switch app.Status {
	case models.ApplicationApproved:
		return ErrAlreadyApproved
	case models.ApplicationRejected:
		return ErrAlreadyRejected
	}

	flipped, err := o.apps.TransitionStatus(ctx, applicationID, models.ApplicationPending, models.ApplicationRejected)
	if err != nil {
		return &PersistenceError{Op: "mark application rejected", Err: err}
	}
	if !flipped {
		return ErrAlreadyApproved
	}
	return nil
}

// DeleteOrganisation is the reverse of onboarding: provider cleanup first so
// a mid-failure retry can still find the local record to retry against.
func (o *Onboarding) DeleteOrganisation(ctx context.Context, organisationID primitive.ObjectID) error {
	org, err := o.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return ErrOrganisationNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "load organisation", Err: err}
	}

	memberships, err := o.idp.ListOrganizationMemberships(ctx, org.ProviderOrgID)
	if err != nil {
		// The org may already be gone at the provider; keep going so the
		// local record can still be removed.
		log.Printf("could not list memberships for org %s: %v", org.ProviderOrgID, err)
	}
	for _, m := range memberships {
		if err := o.idp.DeleteUser(ctx, m.UserID); err != nil && !provider.IsNotFound(err) {
			log.Printf("could not delete provider user %s: %v", m.UserID, err)
		}
	}

	if err := o.idp.DeleteOrganization(ctx, org.ProviderOrgID); err != nil && !provider.IsNotFound(err) {
		return &ProviderError{Op: "delete organization", Err: err}
	}

	if _, err := o.users.DeleteByDefaultOrg(ctx, org.ProviderOrgID); err != nil {
		return &PersistenceError{Op: "delete organisation users", Err: err}
	}
	// Donations bound to this organisation would sit in no charity's queue
	// forever; open donations stay and remain visible everywhere.
	if _, err := o.donations.DeleteByOrganisation(ctx, organisationID); err != nil {
		return &PersistenceError{Op: "delete organisation donations", Err: err}
	}
	if err := o.orgs.Delete(ctx, organisationID); err != nil && err != store.ErrNotFound {
		return &PersistenceError{Op: "delete organisation", Err: err}
	}
	return nil
}

// SuspendOrganisation marks the charity suspended and bans its provider
// accounts. The approval flag is untouched.
func (o *Onboarding) SuspendOrganisation(ctx context.Context, organisationID primitive.ObjectID) error {
	return o.setOrgSuspension(ctx, organisationID, true)
}

// UnsuspendOrganisation lifts a suspension and unbans the charity's accounts.
func (o *Onboarding) UnsuspendOrganisation(ctx context.Context, organisationID primitive.ObjectID) error {
	return o.setOrgSuspension(ctx, organisationID, false)
}

func (o *Onboarding) setOrgSuspension(ctx context.Context, organisationID primitive.ObjectID, suspend bool) error {
	org, err := o.orgs.FindByID(ctx, organisationID)
	if err == store.ErrNotFound {
		return ErrOrganisationNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "load organisation", Err: err}
	}

	if err := o.orgs.SetSuspended(ctx, organisationID, suspend); err != nil {
		return &PersistenceError{Op: "set suspension", Err: err}
	}

	// Ban/unban is best effort per account; a miss only delays lockout.
	memberships, err := o.idp.ListOrganizationMemberships(ctx, org.ProviderOrgID)
	if err != nil {
		log.Printf("could not list memberships for org %s: %v", org.ProviderOrgID, err)
		return nil
	}
	for _, m := range memberships {
		var err error
		if suspend {
			err = o.idp.BanUser(ctx, m.UserID)
		} else {
			err = o.idp.UnbanUser(ctx, m.UserID)
		}
		if err != nil {
			log.Printf("could not update ban state for user %s: %v", m.UserID, err)
			continue
		}
		if err := o.users.SetSuspendedByProviderUserID(ctx, m.UserID, suspend); err != nil && err != store.ErrNotFound {
			log.Printf("could not mirror ban state for user %s: %v", m.UserID, err)
		}
	}
	return nil
}
