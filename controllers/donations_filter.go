package controllers

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// charityQueueFilter selects the donations a charity may triage: items bound
// to it plus items with no organisation, which are open to every charity.
func charityQueueFilter(orgID primitive.ObjectID, status string) bson.M {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"organisation_id": orgID},
			bson.M{"organisation_id": nil},
		},
	}
	if status != "" {
		filter["status"] = status
	}
	return filter
}
