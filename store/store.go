package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/sustainwear/donation-platform-go/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Applications holds charity signup applications.
type Applications interface {
	Insert(ctx context.Context, app *models.CharityApplication) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.CharityApplication, error)
	List(ctx context.Context) ([]models.CharityApplication, error)
	// TransitionStatus flips status from -> to atomically. A false return
	// means no document matched, i.e. a concurrent caller got there first.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
}

// Organisations holds local mirrors of provider organisations.
type Organisations interface {
	Insert(ctx context.Context, org *models.Organisation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Organisation, error)
	FindByProviderOrgID(ctx context.Context, providerOrgID string) (*models.Organisation, error)
	List(ctx context.Context, approvedOnly bool) ([]models.Organisation, error)
	SetSuspended(ctx context.Context, id primitive.ObjectID, suspended bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Donations holds donated items. Controllers read and write donations against
// the collection directly; the workflow layer only needs the cascade delete
// that runs when an organisation is removed.
type Donations interface {
	DeleteByOrganisation(ctx context.Context, organisationID primitive.ObjectID) (int64, error)
}

// Users holds local mirrors of provider users.
type Users interface {
	Insert(ctx context.Context, user *models.User) error
	FindByProviderUserID(ctx context.Context, providerUserID string) (*models.User, error)
	Sync(ctx context.Context, user *models.User) error
	UpdateRoleBinding(ctx context.Context, providerUserID, role, providerOrgID string) error
	SetSuspendedByProviderUserID(ctx context.Context, providerUserID string, suspended bool) error
	DeleteByProviderUserID(ctx context.Context, providerUserID string) error
	DeleteByDefaultOrg(ctx context.Context, providerOrgID string) (int64, error)
	List(ctx context.Context) ([]models.User, error)
}
