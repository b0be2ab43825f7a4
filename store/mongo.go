package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/sustainwear/donation-platform-go/models"
)

// Mongo bundles the collection-backed stores over a single database.
type Mongo struct {
	Applications  *MongoApplications
	Organisations *MongoOrganisations
	Users         *MongoUsers
	Donations     *MongoDonations
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		Applications:  &MongoApplications{col: db.Collection("charity_applications")},
		Organisations: &MongoOrganisations{col: db.Collection("organisations")},
		Users:         &MongoUsers{col: db.Collection("users")},
		Donations:     &MongoDonations{col: db.Collection("donations")},
	}
}

// ---------------- APPLICATIONS ----------------

type MongoApplications struct {
	col *mongo.Collection
}

func (s *MongoApplications) Insert(ctx context.Context, app *models.CharityApplication) error {
	_, err := s.col.InsertOne(ctx, app)
	return err
}

func (s *MongoApplications) FindByID(ctx context.Context, id primitive.ObjectID) (*models.CharityApplication, error) {
	var app models.CharityApplication
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *MongoApplications) List(ctx context.Context) ([]models.CharityApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var apps []models.CharityApplication
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// TransitionStatus is the concurrency guard for approval/rejection: the
// status predicate makes the check-then-act a single conditional write.
func (s *MongoApplications) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ---------------- ORGANISATIONS ----------------

type MongoOrganisations struct {
	col *mongo.Collection
}

func (s *MongoOrganisations) Insert(ctx context.Context, org *models.Organisation) error {
	_, err := s.col.InsertOne(ctx, org)
	return err
}

func (s *MongoOrganisations) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Organisation, error) {
	var org models.Organisation
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *MongoOrganisations) FindByProviderOrgID(ctx context.Context, providerOrgID string) (*models.Organisation, error) {
	var org models.Organisation
	err := s.col.FindOne(ctx, bson.M{"provider_org_id": providerOrgID}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *MongoOrganisations) List(ctx context.Context, approvedOnly bool) ([]models.Organisation, error) {
	filter := bson.M{}
	if approvedOnly {
		filter["approved"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var orgs []models.Organisation
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *MongoOrganisations) SetSuspended(ctx context.Context, id primitive.ObjectID, suspended bool) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"suspended": suspended}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoOrganisations) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------- DONATIONS ----------------

type MongoDonations struct {
	col *mongo.Collection
}

func (s *MongoDonations) DeleteByOrganisation(ctx context.Context, organisationID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"organisation_id": organisationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ---------------- USERS ----------------

type MongoUsers struct {
	col *mongo.Collection
}

func (s *MongoUsers) Insert(ctx context.Context, user *models.User) error {
	_, err := s.col.InsertOne(ctx, user)
	return err
}

func (s *MongoUsers) FindByProviderUserID(ctx context.Context, providerUserID string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"provider_user_id": providerUserID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Sync writes the provider-sourced fields back over the local cache row.
func (s *MongoUsers) Sync(ctx context.Context, user *models.User) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"provider_user_id": user.ProviderUserID},
		bson.M{"$set": bson.M{
			"email":                   user.Email,
			"name":                    user.Name,
			"platform_role":           user.PlatformRole,
			"default_provider_org_id": user.DefaultProviderOrgID,
			"suspended":               user.Suspended,
			"updated_at":              time.Now(),
		}},
	)
	return err
}

func (s *MongoUsers) UpdateRoleBinding(ctx context.Context, providerUserID, role, providerOrgID string) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"provider_user_id": providerUserID},
		bson.M{"$set": bson.M{
			"platform_role":           role,
			"default_provider_org_id": providerOrgID,
			"updated_at":              time.Now(),
		}},
	)
	return err
}

func (s *MongoUsers) SetSuspendedByProviderUserID(ctx context.Context, providerUserID string, suspended bool) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"provider_user_id": providerUserID},
		bson.M{"$set": bson.M{"suspended": suspended, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUsers) DeleteByProviderUserID(ctx context.Context, providerUserID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"provider_user_id": providerUserID})
	return err
}

func (s *MongoUsers) DeleteByDefaultOrg(ctx context.Context, providerOrgID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"default_provider_org_id": providerOrgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoUsers) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
