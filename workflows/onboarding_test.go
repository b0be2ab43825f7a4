package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/sustainwear/donation-platform-go/models"
	provider "github.com/sustainwear/donation-platform-go/provider"
)

func pendingApplication(apps *fakeApps) primitive.ObjectID {
	id := primitive.NewObjectID()
	apps.apps[id] = &models.CharityApplication{
		ID:           id,
		OrgName:      "Sheffield Clothing Bank",
		ContactName:  "Jo Bloggs",
		ContactEmail: "a@b.org",
		Status:       models.ApplicationPending,
		CreatedAt:    time.Now(),
	}
	return id
}

func newOnboarding() (*Onboarding, *fakeApps, *fakeOrgs, *fakeUsers, *fakeProvider) {
	apps := newFakeApps()
	orgs := newFakeOrgs()
	users := &fakeUsers{}
	idp := newFakeProvider()
	return NewOnboarding(apps, orgs, users, &fakeDonations{}, idp), apps, orgs, users, idp
}

func TestApproveApplicationHappyPath(t *testing.T) {
	o, apps, orgs, _, idp := newOnboarding()
	id := pendingApplication(apps)

	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if res.Organisation == nil || res.Organisation.Name != "Sheffield Clothing Bank" {
		t.Fatalf("unexpected organisation in result: %+v", res.Organisation)
	}
	if !res.Organisation.Approved {
		t.Error("organisation should be approved")
	}
	if res.LoginEmail != "a@b.org" {
		t.Errorf("login email = %q, want a@b.org", res.LoginEmail)
	}
	if !res.IsNewUser {
		t.Error("expected a brand-new account")
	}
	if len(res.TempPassword) != tempPasswordLength {
		t.Errorf("temp password length = %d, want %d", len(res.TempPassword), tempPasswordLength)
	}
	for _, ch := range res.TempPassword {
		if !strings.ContainsRune(passwordAlphabet, ch) {
			t.Errorf("temp password contains %q, not in alphabet", ch)
		}
	}

	if apps.apps[id].Status != models.ApplicationApproved {
		t.Errorf("application status = %s, want APPROVED", apps.apps[id].Status)
	}
	if len(orgs.orgs) != 1 {
		t.Errorf("organisation rows = %d, want 1", len(orgs.orgs))
	}
	if len(idp.orgs) != 1 {
		t.Errorf("provider organisations = %d, want 1", len(idp.orgs))
	}
	if len(idp.memberships) != 1 || idp.memberships[0].Role != provider.OrgRoleAdmin {
		t.Errorf("expected one admin membership, got %+v", idp.memberships)
	}

	if !strings.HasPrefix(res.Organisation.Slug, "sheffield-clothing-bank-") {
		t.Errorf("slug = %q", res.Organisation.Slug)
	}
}

func TestApproveApplicationIsNotRepeatable(t *testing.T) {
	o, apps, orgs, _, _ := newOnboarding()
	id := pendingApplication(apps)

	if _, err := o.ApproveApplication(context.Background(), id); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	_, err := o.ApproveApplication(context.Background(), id)
	if err != ErrAlreadyApproved {
		t.Fatalf("second approve error = %v, want ErrAlreadyApproved", err)
	}
	if len(orgs.orgs) != 1 {
		t.Errorf("organisation rows = %d after double approve, want 1", len(orgs.orgs))
	}
}

func TestApproveNonPendingDoesNothing(t *testing.T) {
	for _, status := range []string{models.ApplicationApproved, models.ApplicationRejected} {
		o, apps, orgs, _, idp := newOnboarding()
		id := primitive.NewObjectID()
		apps.apps[id] = &models.CharityApplication{
			ID: id, OrgName: "X", ContactEmail: "x@y.org", Status: status,
		}

		_, err := o.ApproveApplication(context.Background(), id)
		if err != ErrAlreadyApproved && err != ErrAlreadyRejected {
			t.Fatalf("status %s: err = %v", status, err)
		}
		if len(idp.orgs) != 0 || len(idp.users) != 0 || len(orgs.orgs) != 0 {
			t.Errorf("status %s: approval of a settled application mutated state", status)
		}
		if apps.apps[id].Status != status {
			t.Errorf("status %s: application status changed to %s", status, apps.apps[id].Status)
		}
	}
}

func TestApproveMissingApplication(t *testing.T) {
	o, _, _, _, _ := newOnboarding()
	_, err := o.ApproveApplication(context.Background(), primitive.NewObjectID())
	if err != ErrApplicationNotFound {
		t.Fatalf("err = %v, want ErrApplicationNotFound", err)
	}
}

func TestApproveWithoutContactEmail(t *testing.T) {
	o, apps, _, _, idp := newOnboarding()
	id := primitive.NewObjectID()
	apps.apps[id] = &models.CharityApplication{ID: id, OrgName: "X", Status: models.ApplicationPending}

	_, err := o.ApproveApplication(context.Background(), id)
	if err != ErrNoContactEmail {
		t.Fatalf("err = %v, want ErrNoContactEmail", err)
	}
	if len(idp.orgs) != 0 {
		t.Error("no provider calls should happen before preconditions pass")
	}
}

func TestApproveRejectsDuplicateEmail(t *testing.T) {
	o, apps, _, _, idp := newOnboarding()
	id := pendingApplication(apps)
	idp.users["user_existing"] = &provider.User{ID: "user_existing", Email: "a@b.org"}

	_, err := o.ApproveApplication(context.Background(), id)
	if err != ErrEmailInUse {
		t.Fatalf("err = %v, want ErrEmailInUse", err)
	}
	if len(idp.orgs) != 0 {
		t.Error("no organisation should be created for a duplicate email")
	}
}

func TestApproveUpgradesExistingAccountWhenEnabled(t *testing.T) {
	o, apps, _, _, idp := newOnboarding()
	o.AllowAccountUpgrade = true
	id := pendingApplication(apps)
	idp.users["user_existing"] = &provider.User{
		ID: "user_existing", Email: "a@b.org",
		Metadata: provider.Metadata{Role: models.RoleDonor},
	}

	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if res.IsNewUser {
		t.Error("existing account should not be reported as new")
	}
	if res.TempPassword != "" {
		t.Error("no credentials should be returned when upgrading an existing account")
	}
	md := idp.users["user_existing"].Metadata
	if md.Role != models.RoleOrgAdmin {
		t.Errorf("role = %s, want ORG_ADMIN", md.Role)
	}
	if md.DefaultOrganisationID == "" {
		t.Error("default organisation binding not set")
	}
}

func TestApproveRollsBackOrgWhenUserCreateFails(t *testing.T) {
	o, apps, orgs, _, idp := newOnboarding()
	id := pendingApplication(apps)
	idp.errCreateUser = errors.New("provider down")

	_, err := o.ApproveApplication(context.Background(), id)
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if len(idp.orgs) != 0 {
		t.Error("provider organisation must be rolled back when user creation fails")
	}
	if len(orgs.orgs) != 0 {
		t.Error("no local organisation should exist")
	}
	if apps.apps[id].Status != models.ApplicationPending {
		t.Errorf("application status = %s, want PENDING", apps.apps[id].Status)
	}
}

func TestApproveReportsPersistenceFailureDistinctly(t *testing.T) {
	o, apps, orgs, _, _ := newOnboarding()
	id := pendingApplication(apps)
	orgs.insertErr = errors.New("disk full")

	_, err := o.ApproveApplication(context.Background(), id)
	var perErr *PersistenceError
	if !errors.As(err, &perErr) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
	if apps.apps[id].Status != models.ApplicationPending {
		t.Error("application must stay PENDING when local persistence fails")
	}
}

func TestApproveLosingTheRaceCompensates(t *testing.T) {
	o, apps, orgs, users, idp := newOnboarding()
	id := pendingApplication(apps)

	// A concurrent admin commits between our precondition read and the
	// conditional status flip.
	racer := &racingApps{fakeApps: apps, id: id}
	o.apps = racer

	_, err := o.ApproveApplication(context.Background(), id)
	if err != ErrAlreadyApproved {
		t.Fatalf("err = %v, want ErrAlreadyApproved", err)
	}
	if len(idp.orgs) != 0 {
		t.Error("losing approval must delete its provider organisation")
	}
	if len(idp.users) != 0 {
		t.Error("losing approval must delete the account it created")
	}
	if len(orgs.orgs) != 0 {
		t.Error("losing approval must delete its local organisation row")
	}
	if len(users.users) != 0 {
		t.Errorf("losing approval must delete its local user mirror, got %+v", users.users[0])
	}
}

// racingApps flips the application to APPROVED underneath the workflow just
// before the conditional update runs.
type racingApps struct {
	*fakeApps
	id primitive.ObjectID
}

func (r *racingApps) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	if id == r.id && r.apps[id].Status == models.ApplicationPending {
		r.apps[id].Status = models.ApplicationApproved
		return false, nil
	}
	return r.fakeApps.TransitionStatus(ctx, id, from, to)
}

func TestRejectApplication(t *testing.T) {
	o, apps, _, _, _ := newOnboarding()
	id := pendingApplication(apps)

	if err := o.RejectApplication(context.Background(), id); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if apps.apps[id].Status != models.ApplicationRejected {
		t.Errorf("status = %s, want REJECTED", apps.apps[id].Status)
	}

	if err := o.RejectApplication(context.Background(), id); err != ErrAlreadyRejected {
		t.Errorf("second reject err = %v, want ErrAlreadyRejected", err)
	}
}

func TestRejectApprovedApplication(t *testing.T) {
	o, apps, _, _, _ := newOnboarding()
	id := pendingApplication(apps)
	apps.apps[id].Status = models.ApplicationApproved

	if err := o.RejectApplication(context.Background(), id); err != ErrAlreadyApproved {
		t.Errorf("err = %v, want ErrAlreadyApproved", err)
	}
}

func TestDeleteOrganisationSymmetry(t *testing.T) {
	o, apps, orgs, users, idp := newOnboarding()
	id := pendingApplication(apps)

	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	orgID := res.Organisation.ID
	providerOrgID := res.Organisation.ProviderOrgID

	if err := o.DeleteOrganisation(context.Background(), orgID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, ok := idp.orgs[providerOrgID]; ok {
		t.Error("provider organisation still exists")
	}
	for _, m := range idp.memberships {
		if m.OrganizationID == providerOrgID {
			t.Errorf("membership for deleted org remains: %+v", m)
		}
	}
	for _, u := range users.users {
		if u.DefaultProviderOrgID == providerOrgID {
			t.Errorf("local user still references deleted org: %+v", u)
		}
	}
	if len(orgs.orgs) != 0 {
		t.Error("local organisation record still exists")
	}
}

func TestDeleteOrganisationCascadesDonations(t *testing.T) {
	apps := newFakeApps()
	orgs := newFakeOrgs()
	donations := &fakeDonations{}
	o := NewOnboarding(apps, orgs, &fakeUsers{}, donations, newFakeProvider())
	id := pendingApplication(apps)

	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	orgID := res.Organisation.ID
	otherOrgID := primitive.NewObjectID()

	donations.donations = []*models.Donation{
		{ID: primitive.NewObjectID(), OrganisationID: &orgID, Title: "Winter coat"},
		{ID: primitive.NewObjectID(), OrganisationID: &otherOrgID, Title: "Trainers"},
		{ID: primitive.NewObjectID(), OrganisationID: nil, Title: "Scarf"},
	}

	if err := o.DeleteOrganisation(context.Background(), orgID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(donations.donations) != 2 {
		t.Fatalf("donation rows = %d after cascade, want 2", len(donations.donations))
	}
	for _, d := range donations.donations {
		if d.OrganisationID != nil && *d.OrganisationID == orgID {
			t.Errorf("donation %q still bound to the deleted organisation", d.Title)
		}
	}
}

func TestDeleteOrganisationToleratesProviderAlreadyGone(t *testing.T) {
	o, apps, orgs, _, idp := newOnboarding()
	id := pendingApplication(apps)
	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Simulate the provider org vanishing out of band.
	delete(idp.orgs, res.Organisation.ProviderOrgID)

	if err := o.DeleteOrganisation(context.Background(), res.Organisation.ID); err != nil {
		t.Fatalf("delete should treat a missing provider org as success, got %v", err)
	}
	if len(orgs.orgs) != 0 {
		t.Error("local record should still be deleted")
	}
}

func TestSuspendAndUnsuspendOrganisation(t *testing.T) {
	o, apps, orgs, users, idp := newOnboarding()
	id := pendingApplication(apps)
	res, err := o.ApproveApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := o.SuspendOrganisation(context.Background(), res.Organisation.ID); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if !orgs.orgs[res.Organisation.ID].Suspended {
		t.Error("organisation not marked suspended")
	}
	if !orgs.orgs[res.Organisation.ID].Approved {
		t.Error("suspension must not clear the approval flag")
	}
	for userID := range idp.users {
		if !idp.banned[userID] {
			t.Errorf("member %s not banned", userID)
		}
	}
	for _, u := range users.users {
		if !u.Suspended {
			t.Errorf("local mirror for %s not suspended", u.ProviderUserID)
		}
	}

	if err := o.UnsuspendOrganisation(context.Background(), res.Organisation.ID); err != nil {
		t.Fatalf("unsuspend failed: %v", err)
	}
	if orgs.orgs[res.Organisation.ID].Suspended {
		t.Error("organisation still suspended")
	}
}
