package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// ISubscriptionService stores each customer's newspaper and booklet selection.
type ISubscriptionService interface {
	Save(ctx context.Context, customerID utils.SixID, newspapers, booklets []utils.SixID) (*models.CustomerSubscription, error)
	Get(ctx context.Context, customerID utils.SixID) (*models.CustomerSubscription, error)
}

type subscriptionService struct {
	db      *mongo.Database
	catalog ICatalogService
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(db *mongo.Database, catalog ICatalogService) ISubscriptionService {
	return &subscriptionService{db: db, catalog: catalog}
}

// dedupe keeps the first occurrence of every ID.
func dedupe(ids []utils.SixID) []utils.SixID {
	seen := make(map[utils.SixID]struct{}, len(ids))
	out := make([]utils.SixID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Save replaces the customer's selection. Every ID must exist in the catalog.
func (s *subscriptionService) Save(ctx context.Context, customerID utils.SixID, newspapers, booklets []utils.SixID) (*models.CustomerSubscription, error) {
	newspapers, booklets = dedupe(newspapers), dedupe(booklets)
	if _, err := s.catalog.Resolve(ctx, models.KindNewspaper, newspapers); err != nil {
		return nil, err
	}
	if _, err := s.catalog.Resolve(ctx, models.KindBooklet, booklets); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var sub models.CustomerSubscription
	err := db.Try(func() error {
		return s.db.Collection(db.SubscriptionsCollection).FindOneAndUpdate(ctx,
			bson.M{"customerId": customerID},
			bson.M{
				"$set": bson.M{"newspapers": newspapers, "booklets": booklets, "updatedAt": now},
				"$setOnInsert": bson.M{
					"_id":       utils.NewSixID(),
					"createdAt": now,
				},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&sub)
	})
	if err != nil {
		return nil, fmt.Errorf("error saving subscription for customer %s: %w", customerID, err)
	}
	return &sub, nil
}

// Get returns the stored selection, or an empty one when the customer has not saved any.
func (s *subscriptionService) Get(ctx context.Context, customerID utils.SixID) (*models.CustomerSubscription, error) {
	var sub models.CustomerSubscription
	err := findOne(ctx, s.db.Collection(db.SubscriptionsCollection), bson.M{"customerId": customerID}, &sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.CustomerSubscription{
				CustomerID: customerID,
				Newspapers: []utils.SixID{},
				Booklets:   []utils.SixID{},
			}, nil
		}
		return nil, err
	}
	if sub.Newspapers == nil {
		sub.Newspapers = []utils.SixID{}
	}
	if sub.Booklets == nil {
		sub.Booklets = []utils.SixID{}
	}
	return &sub, nil
}
