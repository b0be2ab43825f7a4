package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation statuses. Only SUBMITTED donations can be edited by the donor;
// everything else is driven by charity staff.
const (
	DonationSubmitted   = "SUBMITTED"
	DonationUnderReview = "UNDER_REVIEW"
	DonationApproved    = "APPROVED"
	DonationRejected    = "REJECTED"
	DonationShipped     = "SHIPPED"
	DonationReceived    = "RECEIVED"
	DonationArchived    = "ARCHIVED"
)

// Categories and conditions accepted on the donation form.
var (
	DonationCategories = []string{"TOPS", "BOTTOMS", "DRESSES", "OUTERWEAR", "SHOES", "ACCESSORIES", "OTHER"}
	DonationConditions = []string{"NEW", "LIKE_NEW", "GOOD", "FAIR", "POOR"}
	DonationStatuses   = []string{
		DonationSubmitted, DonationUnderReview, DonationApproved,
		DonationRejected, DonationShipped, DonationReceived, DonationArchived,
	}
)

// Donation is a single clothing item offered by a donor. A nil OrganisationID
// means the item is open to any charity and shows up in every incoming queue.
type Donation struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganisationID *primitive.ObjectID `bson:"organisation_id,omitempty" json:"organisation_id,omitempty"`
	DonorUserID    primitive.ObjectID  `bson:"donor_user_id" json:"donor_user_id"`
	Title          string              `bson:"title" json:"title"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Brand          string              `bson:"brand,omitempty" json:"brand,omitempty"`
	Colour         string              `bson:"colour,omitempty" json:"colour,omitempty"`
	SizeLabel      string              `bson:"size_label,omitempty" json:"size_label,omitempty"`
	Category       string              `bson:"category" json:"category"`
	Condition      string              `bson:"condition" json:"condition"`
	Season         string              `bson:"season,omitempty" json:"season,omitempty"`
	Status         string              `bson:"status" json:"status"`
	ImageURL       string              `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// ValidCategory maps a raw form value to a Category enum value, defaulting to OTHER.
func ValidCategory(raw string) string {
	for _, c := range DonationCategories {
		if c == raw {
			return c
		}
	}
	return "OTHER"
}

// ValidCondition maps a raw form value to a Condition enum value, defaulting to GOOD.
func ValidCondition(raw string) string {
	for _, c := range DonationConditions {
		if c == raw {
			return c
		}
	}
	return "GOOD"
}

// ValidDonationStatus reports whether raw is one of the donation statuses.
func ValidDonationStatus(raw string) bool {
	for _, s := range DonationStatuses {
		if s == raw {
			return true
		}
	}
	return false
}
