package workflows

import (
	"context"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/sustainwear/donation-platform-go/models"
	provider "github.com/sustainwear/donation-platform-go/provider"
	store "github.com/sustainwear/donation-platform-go/store"
)

// --- MOCKS ---

// fakeProvider simulates the identity provider in memory.
type fakeProvider struct {
	orgs        map[string]provider.Organization
	users       map[string]*provider.User
	memberships []provider.Membership

	nextID int

	errCreateOrg   error
	errCreateUser  error
	errListUsers   error
	errMembership  error
	errListOrgMems error

	deletedUsers []string
	deletedOrgs  []string
	banned       map[string]bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		orgs:   map[string]provider.Organization{},
		users:  map[string]*provider.User{},
		banned: map[string]bool{},
	}
}

func (f *fakeProvider) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s_%d", prefix, f.nextID)
}

func notFoundErr() error {
	return &provider.APIError{Status: http.StatusNotFound, Body: "not found"}
}

func (f *fakeProvider) CreateOrganization(ctx context.Context, name, slug string) (*provider.Organization, error) {
	if f.errCreateOrg != nil {
		return nil, f.errCreateOrg
	}
	org := provider.Organization{ID: f.id("org"), Name: name, Slug: slug}
	f.orgs[org.ID] = org
	return &org, nil
}

func (f *fakeProvider) DeleteOrganization(ctx context.Context, orgID string) error {
	if _, ok := f.orgs[orgID]; !ok {
		return notFoundErr()
	}
	delete(f.orgs, orgID)
	f.deletedOrgs = append(f.deletedOrgs, orgID)
	kept := f.memberships[:0]
	for _, m := range f.memberships {
		if m.OrganizationID != orgID {
			kept = append(kept, m)
		}
	}
	f.memberships = kept
	return nil
}

func (f *fakeProvider) ListUsersByEmail(ctx context.Context, email string) ([]provider.User, error) {
	if f.errListUsers != nil {
		return nil, f.errListUsers
	}
	var out []provider.User
	for _, u := range f.users {
		if u.Email == email {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetUser(ctx context.Context, userID string) (*provider.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, notFoundErr()
	}
	copied := *u
	return &copied, nil
}

func (f *fakeProvider) CreateUser(ctx context.Context, p provider.CreateUserParams) (*provider.User, error) {
	if f.errCreateUser != nil {
		return nil, f.errCreateUser
	}
	u := &provider.User{
		ID:        f.id("user"),
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Username:  p.Username,
		Metadata:  p.Metadata,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeProvider) UpdateUserMetadata(ctx context.Context, userID string, md provider.Metadata) error {
	u, ok := f.users[userID]
	if !ok {
		return notFoundErr()
	}
	u.Metadata = md
	return nil
}

func (f *fakeProvider) VerifyEmailAddress(ctx context.Context, userID, email string) error {
	if _, ok := f.users[userID]; !ok {
		return notFoundErr()
	}
	return nil
}

func (f *fakeProvider) DeleteUser(ctx context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return notFoundErr()
	}
	delete(f.users, userID)
	f.deletedUsers = append(f.deletedUsers, userID)
	kept := f.memberships[:0]
	for _, m := range f.memberships {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.memberships = kept
	return nil
}

func (f *fakeProvider) BanUser(ctx context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return notFoundErr()
	}
	f.banned[userID] = true
	return nil
}

func (f *fakeProvider) UnbanUser(ctx context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return notFoundErr()
	}
	f.banned[userID] = false
	return nil
}

func (f *fakeProvider) CreateOrganizationMembership(ctx context.Context, orgID, userID, role string) error {
	if f.errMembership != nil {
		return f.errMembership
	}
	f.memberships = append(f.memberships, provider.Membership{
		OrganizationID: orgID, UserID: userID, Role: role,
	})
	return nil
}

func (f *fakeProvider) UpdateOrganizationMembership(ctx context.Context, orgID, userID, role string) error {
	for i, m := range f.memberships {
		if m.OrganizationID == orgID && m.UserID == userID {
			f.memberships[i].Role = role
			return nil
		}
	}
	return notFoundErr()
}

func (f *fakeProvider) DeleteOrganizationMembership(ctx context.Context, orgID, userID string) error {
	for i, m := range f.memberships {
		if m.OrganizationID == orgID && m.UserID == userID {
			f.memberships = append(f.memberships[:i], f.memberships[i+1:]...)
			return nil
		}
	}
	return notFoundErr()
}

func (f *fakeProvider) ListOrganizationMemberships(ctx context.Context, orgID string) ([]provider.Membership, error) {
	if f.errListOrgMems != nil {
		return nil, f.errListOrgMems
	}
	var out []provider.Membership
	for _, m := range f.memberships {
		if m.OrganizationID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeProvider) ListUserMemberships(ctx context.Context, userID string) ([]provider.Membership, error) {
	var out []provider.Membership
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- fake stores ---

type fakeApps struct {
	apps map[primitive.ObjectID]*models.CharityApplication
}

func newFakeApps() *fakeApps {
	return &fakeApps{apps: map[primitive.ObjectID]*models.CharityApplication{}}
}

func (f *fakeApps) Insert(ctx context.Context, app *models.CharityApplication) error {
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApps) FindByID(ctx context.Context, id primitive.ObjectID) (*models.CharityApplication, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (f *fakeApps) List(ctx context.Context) ([]models.CharityApplication, error) {
	var out []models.CharityApplication
	for _, app := range f.apps {
		out = append(out, *app)
	}
	return out, nil
}

func (f *fakeApps) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	app, ok := f.apps[id]
	if !ok || app.Status != from {
		return false, nil
	}
	app.Status = to
	return true, nil
}

type fakeOrgs struct {
	orgs      map[primitive.ObjectID]*models.Organisation
	insertErr error
}

func newFakeOrgs() *fakeOrgs {
	return &fakeOrgs{orgs: map[primitive.ObjectID]*models.Organisation{}}
}

func (f *fakeOrgs) Insert(ctx context.Context, org *models.Organisation) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.orgs[org.ID] = org
	return nil
}

func (f *fakeOrgs) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Organisation, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (f *fakeOrgs) FindByProviderOrgID(ctx context.Context, providerOrgID string) (*models.Organisation, error) {
	for _, org := range f.orgs {
		if org.ProviderOrgID == providerOrgID {
			copied := *org
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeOrgs) List(ctx context.Context, approvedOnly bool) ([]models.Organisation, error) {
	var out []models.Organisation
	for _, org := range f.orgs {
		if approvedOnly && !org.Approved {
			continue
		}
		out = append(out, *org)
	}
	return out, nil
}

func (f *fakeOrgs) SetSuspended(ctx context.Context, id primitive.ObjectID, suspended bool) error {
	org, ok := f.orgs[id]
	if !ok {
		return store.ErrNotFound
	}
	org.Suspended = suspended
	return nil
}

func (f *fakeOrgs) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.orgs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.orgs, id)
	return nil
}

type fakeDonations struct {
	donations []*models.Donation
}

func (f *fakeDonations) DeleteByOrganisation(ctx context.Context, organisationID primitive.ObjectID) (int64, error) {
	var kept []*models.Donation
	var deleted int64
	for _, d := range f.donations {
		if d.OrganisationID != nil && *d.OrganisationID == organisationID {
			deleted++
			continue
		}
		kept = append(kept, d)
	}
	f.donations = kept
	return deleted, nil
}

type fakeUsers struct {
	users []*models.User
}

func (f *fakeUsers) Insert(ctx context.Context, user *models.User) error {
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUsers) FindByProviderUserID(ctx context.Context, providerUserID string) (*models.User, error) {
	for _, u := range f.users {
		if u.ProviderUserID == providerUserID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) Sync(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.ProviderUserID == user.ProviderUserID {
			u.Email = user.Email
			u.Name = user.Name
			u.PlatformRole = user.PlatformRole
			u.DefaultProviderOrgID = user.DefaultProviderOrgID
			u.Suspended = user.Suspended
		}
	}
	return nil
}

func (f *fakeUsers) UpdateRoleBinding(ctx context.Context, providerUserID, role, providerOrgID string) error {
	for _, u := range f.users {
		if u.ProviderUserID == providerUserID {
			u.PlatformRole = role
			u.DefaultProviderOrgID = providerOrgID
		}
	}
	return nil
}

func (f *fakeUsers) SetSuspendedByProviderUserID(ctx context.Context, providerUserID string, suspended bool) error {
	for _, u := range f.users {
		if u.ProviderUserID == providerUserID {
			u.Suspended = suspended
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeUsers) DeleteByProviderUserID(ctx context.Context, providerUserID string) error {
	for i, u := range f.users {
		if u.ProviderUserID == providerUserID {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeUsers) DeleteByDefaultOrg(ctx context.Context, providerOrgID string) (int64, error) {
	var kept []*models.User
	var deleted int64
	for _, u := range f.users {
		if u.DefaultProviderOrgID == providerOrgID {
			deleted++
			continue
		}
		kept = append(kept, u)
	}
	f.users = kept
	return deleted, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}
