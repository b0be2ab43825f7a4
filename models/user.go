package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform roles. Stored in the identity provider's private metadata; the
// local record is a cache and gets re-synced on read when it drifts.
const (
	RoleDonor         = "DONOR"
	RoleOrgStaff      = "ORG_STAFF"
	RoleOrgAdmin      = "ORG_ADMIN"
	RolePlatformAdmin = "PLATFORM_ADMIN"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderUserID       string             `bson:"provider_user_id" json:"provider_user_id"`
	Email                string             `bson:"email" json:"email"`
	Name                 string             `bson:"name,omitempty" json:"name,omitempty"`
	PlatformRole         string             `bson:"platform_role" json:"platform_role"`
	DefaultProviderOrgID string             `bson:"default_provider_org_id,omitempty" json:"default_provider_org_id,omitempty"`
	Suspended            bool               `bson:"suspended" json:"suspended"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updated_at"`
}
