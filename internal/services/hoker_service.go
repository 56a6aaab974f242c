package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/auth"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// IHokerService defines delivery-person operations.
type IHokerService interface {
	Create(ctx context.Context, agentID utils.SixID, name, mobile string) (*models.Hoker, error)
	ListByAgent(ctx context.Context, agentID utils.SixID) ([]models.Hoker, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Hoker, error)
	Reset(ctx context.Context, agentID, hokerID utils.SixID) (*models.Hoker, error)
	Login(ctx context.Context, mobile, password string) (hoker *models.Hoker, mustSetPassword bool, err error)
	SetPassword(ctx context.Context, hokerID utils.SixID, password string) error
	AssignCustomer(ctx context.Context, agentID, customerID utils.SixID, hokerID *utils.SixID) error
	AssignedCustomers(ctx context.Context, hokerID utils.SixID) ([]models.Customer, error)
}

type hokerService struct {
	db  *mongo.Database
	cfg *config.Config
	now func() time.Time
}

// NewHokerService creates a new HokerService.
func NewHokerService(db *mongo.Database, cfg *config.Config) IHokerService {
	return &hokerService{db: db, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

func (s *hokerService) coll() *mongo.Collection {
	return s.db.Collection(db.HokersCollection)
}

// Create provisions a hoker without a password. The hoker logs in once with the
// bootstrap password within HokerBootstrapTTL and then sets their own.
func (s *hokerService) Create(ctx context.Context, agentID utils.SixID, name, mobile string) (*models.Hoker, error) {
	mobile = NormalizeMobile(mobile)
	if err := ensureUnique(ctx, s.coll(), nil, bson.M{"mobile": mobile}); err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(s.cfg.HokerBootstrapTTL)
	hoker := &models.Hoker{
		AgentID:            agentID,
		Name:               name,
		Mobile:             mobile,
		BootstrapExpiresAt: &expires,
	}
	hoker.Touch(now)
	err := insertAccount(ctx, s.coll(), func() interface{} {
		hoker.GenID()
		return hoker
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("Hoker provisioned", "hoker_id", hoker.ID, "agent_id", agentID)
	return hoker, nil
}

// ListByAgent returns the agent's hokers sorted by name.
func (s *hokerService) ListByAgent(ctx context.Context, agentID utils.SixID) ([]models.Hoker, error) {
	cursor, err := s.coll().Find(ctx, bson.M{"agentId": agentID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing hokers for agent %s: %w", agentID, err)
	}
	hokers := []models.Hoker{}
	if err := cursor.All(ctx, &hokers); err != nil {
		return nil, fmt.Errorf("error decoding hokers: %w", err)
	}
	return hokers, nil
}

// FindByID returns the hoker or mongo.ErrNoDocuments.
func (s *hokerService) FindByID(ctx context.Context, id utils.SixID) (*models.Hoker, error) {
	var hoker models.Hoker
	if err := findOne(ctx, s.coll(), bson.M{"_id": id}, &hoker); err != nil {
		return nil, err
	}
	return &hoker, nil
}

// Reset clears the hoker's password and opens a fresh bootstrap window.
// Only the owning agent may reset a hoker.
func (s *hokerService) Reset(ctx context.Context, agentID, hokerID utils.SixID) (*models.Hoker, error) {
	now := s.now()
	var hoker models.Hoker
	err := s.coll().FindOneAndUpdate(ctx,
		bson.M{"_id": hokerID, "agentId": agentID},
		bson.M{
			"$set":   bson.M{"bootstrapExpiresAt": now.Add(s.cfg.HokerBootstrapTTL), "updatedAt": now},
			"$unset": bson.M{"password": "", "bootstrapUsedAt": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&hoker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error resetting hoker %s: %w", hokerID, err)
	}
	return &hoker, nil
}

// Login authenticates a hoker by mobile number. A hoker with a password is checked
// against its hash only. A hoker without one may use the bootstrap password once,
// inside the provisioning window; mustSetPassword is then true.
func (s *hokerService) Login(ctx context.Context, mobile, password string) (*models.Hoker, bool, error) {
	var hoker models.Hoker
	if err := findOne(ctx, s.coll(), bson.M{"mobile": NormalizeMobile(mobile)}, &hoker); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, ErrInvalidCredentials
		}
		return nil, false, err
	}

	if hoker.HasPassword() {
		if !auth.CheckPasswordHash(password, hoker.PasswordHash) {
			return nil, false, ErrInvalidCredentials
		}
		return &hoker, false, nil
	}

	if !auth.MatchBootstrap(password, s.cfg.HokerBootstrapPassword) {
		return nil, false, ErrInvalidCredentials
	}
	now := s.now()
	if !auth.BootstrapEligible(&hoker, now) {
		return nil, false, ErrBootstrapExpired
	}

	// Consume the bootstrap atomically so two concurrent logins cannot both use it.
	res, err := s.coll().UpdateOne(ctx,
		bson.M{
			"_id":                hoker.ID,
			"password":           bson.M{"$exists": false},
			"bootstrapUsedAt":    bson.M{"$exists": false},
			"bootstrapExpiresAt": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"bootstrapUsedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return nil, false, fmt.Errorf("error consuming bootstrap for hoker %s: %w", hoker.ID, err)
	}
	if res.ModifiedCount == 0 {
		return nil, false, ErrBootstrapExpired
	}
	hoker.BootstrapUsedAt = &now
	logger.L().Infow("Hoker bootstrap login", "hoker_id", hoker.ID)
	return &hoker, true, nil
}

// SetPassword stores a password hash and ends bootstrap eligibility for good.
func (s *hokerService) SetPassword(ctx context.Context, hokerID utils.SixID, password string) error {
	if err := validatePassword(password, s.cfg.PasswordMinLength); err != nil {
		return err
	}
	if auth.MatchBootstrap(password, s.cfg.HokerBootstrapPassword) {
		return fmt.Errorf("%w: choose a password other than the bootstrap password", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.coll().UpdateByID(ctx, hokerID, bson.M{
		"$set":   bson.M{"password": hash, "updatedAt": s.now()},
		"$unset": bson.M{"bootstrapExpiresAt": ""},
	})
	if err != nil {
		return fmt.Errorf("error setting password for hoker %s: %w", hokerID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AssignCustomer sets (or with a nil hokerID clears) the customer's hoker.
// The customer must be actively allotted to the agent and the hoker must belong to it.
func (s *hokerService) AssignCustomer(ctx context.Context, agentID, customerID utils.SixID, hokerID *utils.SixID) error {
	allotted, err := s.db.Collection(db.AllotedCustomersCollection).CountDocuments(ctx,
		bson.M{"agentId": agentID, "customerId": customerID, "is_active": true})
	if err != nil {
		return fmt.Errorf("error checking allotment: %w", err)
	}
	if allotted == 0 {
		return ErrForbidden
	}

	update := bson.M{"$unset": bson.M{"hoker": ""}, "$set": bson.M{"updatedAt": s.now()}}
	if hokerID != nil {
		count, err := s.coll().CountDocuments(ctx, bson.M{"_id": *hokerID, "agentId": agentID})
		if err != nil {
			return fmt.Errorf("error checking hoker: %w", err)
		}
		if count == 0 {
			return ErrForbidden
		}
		update = bson.M{"$set": bson.M{"hoker": *hokerID, "updatedAt": s.now()}}
	}

	res, err := s.db.Collection(db.CustomersCollection).UpdateByID(ctx, customerID, update)
	if err != nil {
		return fmt.Errorf("error assigning hoker to customer %s: %w", customerID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AssignedCustomers lists the customers a hoker delivers to.
func (s *hokerService) AssignedCustomers(ctx context.Context, hokerID utils.SixID) ([]models.Customer, error) {
	cursor, err := s.db.Collection(db.CustomersCollection).Find(ctx,
		bson.M{"hoker": hokerID},
		options.Find().SetSort(bson.D{{Key: "address.line1", Value: 1}, {Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing customers for hoker %s: %w", hokerID, err)
	}
	customers := []models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("error decoding customers: %w", err)
	}
	return customers, nil
}
