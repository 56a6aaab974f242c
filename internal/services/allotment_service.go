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

// IAllotmentService manages which customers each agent serves.
type IAllotmentService interface {
	Allot(ctx context.Context, agentID, customerID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error)
	UpdateEntitlements(ctx context.Context, agentID, allotmentID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error)
	Deactivate(ctx context.Context, agentID, allotmentID utils.SixID) error
	ListActive(ctx context.Context, agentID utils.SixID) ([]models.AllotedCustomerView, error)
	ActiveForCustomer(ctx context.Context, customerID utils.SixID) (*models.AllotedCustomer, error)
}

type allotmentService struct {
	db *mongo.Database
}

// NewAllotmentService creates a new AllotmentService.
func NewAllotmentService(db *mongo.Database) IAllotmentService {
	return &allotmentService{db: db}
}

func (s *allotmentService) coll() *mongo.Collection {
	return s.db.Collection(db.AllotedCustomersCollection)
}

// Allot binds a customer to the agent. A customer may have only one active
// allotment; the partial unique index on customerId enforces it under races.
func (s *allotmentService) Allot(ctx context.Context, agentID, customerID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error) {
	count, err := s.db.Collection(db.CustomersCollection).CountDocuments(ctx, bson.M{"_id": customerID})
	if err != nil {
		return nil, fmt.Errorf("error checking customer %s: %w", customerID, err)
	}
	if count == 0 {
		return nil, mongo.ErrNoDocuments
	}

	existing, err := s.ActiveForCustomer(ctx, customerID)
	if err == nil {
		if existing.AgentID == agentID {
			return nil, fmt.Errorf("%w: customer is already allotted to you", ErrAllotmentExists)
		}
		return nil, ErrAllotmentExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	allotment := &models.AllotedCustomer{
		AgentID:      agentID,
		CustomerID:   customerID,
		Entitlements: ent,
		IsActive:     true,
	}
	allotment.Touch(time.Now().UTC())
	err = db.Try(func() error {
		allotment.GenID()
		_, err := s.coll().InsertOne(ctx, allotment)
		return err
	})
	if err != nil {
		if db.IsDuplicateOnIndex(err, db.IndexActiveAllotmentUnique) {
			return nil, ErrAllotmentExists
		}
		return nil, fmt.Errorf("error inserting allotment: %w", err)
	}
	return allotment, nil
}

// UpdateEntitlements replaces the counters of an active allotment owned by the agent.
func (s *allotmentService) UpdateEntitlements(ctx context.Context, agentID, allotmentID utils.SixID, ent models.Entitlements) (*models.AllotedCustomer, error) {
	var allotment models.AllotedCustomer
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": allotmentID, "agentId": agentID, "is_active": true},
		bson.M{"$set": bson.M{"entitlements": ent, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&allotment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating allotment %s: %w", allotmentID, err)
	}
	return &allotment, nil
}

// Deactivate ends an allotment and unassigns the customer's hoker.
func (s *allotmentService) Deactivate(ctx context.Context, agentID, allotmentID utils.SixID) error {
	var allotment models.AllotedCustomer
	now := time.Now().UTC()
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": allotmentID, "agentId": agentID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updatedAt": now}},
	).Decode(&allotment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		return fmt.Errorf("error deactivating allotment %s: %w", allotmentID, err)
	}

	_, err = s.db.Collection(db.CustomersCollection).UpdateByID(ctx, allotment.CustomerID,
		bson.M{"$unset": bson.M{"hoker": ""}, "$set": bson.M{"updatedAt": now}})
	if err != nil {
		return fmt.Errorf("error clearing hoker for customer %s: %w", allotment.CustomerID, err)
	}
	return nil
}

// ListActive returns the agent's active allotments joined with their customers.
func (s *allotmentService) ListActive(ctx context.Context, agentID utils.SixID) ([]models.AllotedCustomerView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"agentId": agentID, "is_active": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CustomersCollection,
			"localField":   "customerId",
			"foreignField": "_id",
			"as":           "customer",
		}}},
		{{Key: "$unwind", Value: "$customer"}},
		{{Key: "$project", Value: bson.M{"customer.password": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "customer.name", Value: 1}}}},
	}
	cursor, err := s.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error listing allotments for agent %s: %w", agentID, err)
	}
	views := []models.AllotedCustomerView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("error decoding allotments: %w", err)
	}
	return views, nil
}

// ActiveForCustomer returns the customer's active allotment or mongo.ErrNoDocuments.
func (s *allotmentService) ActiveForCustomer(ctx context.Context, customerID utils.SixID) (*models.AllotedCustomer, error) {
	var allotment models.AllotedCustomer
	if err := findOne(ctx, s.coll(), bson.M{"customerId": customerID, "is_active": true}, &allotment); err != nil {
		return nil, err
	}
	return &allotment, nil
}
