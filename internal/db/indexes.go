package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names referenced when translating duplicate-key errors.
const (
	IndexEmailUnique             = "email_unique"
	IndexMobileUnique            = "mobile_unique"
	IndexActiveAllotmentUnique   = "active_allotment_unique"
	IndexPendingPayRequestUnique = "pending_pay_request_unique"
)

func indexModels() map[string][]mongo.IndexModel {
	email := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(IndexEmailUnique),
	}
	mobile := mongo.IndexModel{
		Keys:    bson.D{{Key: "mobile", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(IndexMobileUnique),
	}

	return map[string][]mongo.IndexModel{
		AdminsCollection:    {email},
		AgentsCollection:    {email, mobile},
		CustomersCollection: {email, mobile, {Keys: bson.D{{Key: "hoker", Value: 1}}}},
		HokersCollection: {
			mobile,
			{Keys: bson.D{{Key: "agentId", Value: 1}}},
		},
		AllotedCustomersCollection: {
			{
				Keys: bson.D{{Key: "customerId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName(IndexActiveAllotmentUnique).
					SetPartialFilterExpression(bson.M{"is_active": true}),
			},
			{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		SubscriptionsCollection: {
			{Keys: bson.D{{Key: "customerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		DeliveriesCollection: {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hokerId", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "date", Value: -1}}},
		},
		BillsCollection: {
			{
				Keys: bson.D{
					{Key: "agentId", Value: 1},
					{Key: "customerId", Value: 1},
					{Key: "year", Value: 1},
					{Key: "month", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "status", Value: 1}}},
		},
		PayRequestsCollection: {
			{
				Keys: bson.D{{Key: "billId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName(IndexPendingPayRequestUnique).
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
			{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "status", Value: 1}}},
		},
		PayRequestHistoryCollection: {
			{Keys: bson.D{{Key: "billId", Value: 1}}},
			{Keys: bson.D{{Key: "agentId", Value: 1}, {Key: "resolvedAt", Value: -1}}},
		},
		EmailTemplatesCollection: {
			{Keys: bson.D{{Key: "templateId", Value: 1}, {Key: "locale", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// EnsureIndexes creates the indexes the services rely on for uniqueness and lookups.
// Creating an index that already exists with the same definition is a no-op.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for collection, models := range indexModels() {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
