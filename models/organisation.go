package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organisation mirrors an identity-provider organisation. ProviderOrgID is
// unique and never changes after creation. Suspended and Approved are
// independent: a suspended charity stays approved but is denied active use.
type Organisation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderOrgID string             `bson:"provider_org_id" json:"provider_org_id"`
	Name          string             `bson:"name" json:"name"`
	ContactName   string             `bson:"contact_name,omitempty" json:"contact_name,omitempty"`
	ContactEmail  string             `bson:"contact_email" json:"contact_email"`
	Approved      bool               `bson:"approved" json:"approved"`
	Suspended     bool               `bson:"suspended" json:"suspended"`
	Slug          string             `bson:"slug" json:"slug"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
