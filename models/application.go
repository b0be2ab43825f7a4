package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses. PENDING is the only state that allows a transition;
// APPROVED and REJECTED are terminal.
const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

type CharityApplication struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgName      string             `bson:"org_name" json:"org_name"`
	ContactName  string             `bson:"contact_name" json:"contact_name"`
	ContactEmail string             `bson:"contact_email" json:"contact_email"`
	Website      string             `bson:"website,omitempty" json:"website,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
	Status       string             `bson:"status" json:"status"` // PENDING, APPROVED, REJECTED
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
